package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// WriteJSON writes a JSON response with the given status code. Responses
// are marked no-store unless the handler already set a Cache-Control.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	if w.Header().Get("Cache-Control") == "" {
		NoCache(w)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// PublicCache marks a response cacheable by shared caches for maxAge.
func PublicCache(w http.ResponseWriter, maxAge time.Duration) {
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(maxAge.Seconds())))
}

// IsFormEncoded reports whether the request body is (or may be treated as)
// application/x-www-form-urlencoded. A missing Content-Type is accepted.
func IsFormEncoded(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}
