package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket refilled at RequestsPerWindow per
// Window holding at most Burst tokens.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.RequestsPerWindow <= 0 || c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// Tiers used by the router. Each can be overridden at startup through
// RATELIMIT_<TIER>_REQUESTS, RATELIMIT_<TIER>_WINDOW_SEC and
// RATELIMIT_<TIER>_BURST.
var (
	// StrictLimit guards the password and refresh grants.
	StrictLimit = ParseRateLimitFromEnv("STRICT", RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5})

	// ModerateLimit guards token revocation and admin writes.
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20})

	LenientLimit = ParseRateLimitFromEnv("LENIENT", RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100})

	// PublicLimit covers the JWKS document.
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000})
)

// ParseRateLimitFromEnv overlays RATELIMIT_<tier>_* variables on def.
// Missing, malformed and non-positive values keep the default.
func ParseRateLimitFromEnv(tier string, def RateLimitConfig) RateLimitConfig {
	positive := func(field string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv("RATELIMIT_" + tier + "_" + field))
		return n, err == nil && n > 0
	}

	cfg := def
	if n, ok := positive("REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

// KeyExtractor maps a request onto the bucket it is charged to. An empty
// key exempts the request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client address: the first X-Forwarded-For
// hop, then X-Real-IP, then the host part of RemoteAddr.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SubjectKeyExtractor returns the subject set by AuthnMiddleware.
func SubjectKeyExtractor(r *http.Request) string {
	return SubjectFromContext(r.Context())
}

// FormFieldKeyExtractor returns a query or form-body field. The form is
// parsed once here and stays cached on the request for the handler.
func FormFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.FormValue(field)
	}
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if k := extract(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

const (
	bucketIdleTTL = 10 * time.Minute
	sweepEvery    = time.Minute
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// buckets holds one limiter per key and forgets keys idle for longer than
// bucketIdleTTL. An idle bucket has refilled completely, so dropping it
// does not change what the key is allowed.
type buckets struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	byKey     map[string]*bucket
	lastSweep time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{cfg: cfg, now: time.Now, byKey: make(map[string]*bucket)}
}

// reserve takes a token for key and reports how long the caller would have
// to wait for one when none is available.
func (b *buckets) reserve(key string) (ok bool, retryAfter time.Duration) {
	now := b.now()

	b.mu.Lock()
	if now.Sub(b.lastSweep) >= sweepEvery {
		for k, e := range b.byKey {
			if now.Sub(e.lastSeen) > bucketIdleTTL {
				delete(b.byKey, k)
			}
		}
		b.lastSweep = now
	}
	e, found := b.byKey[key]
	if !found {
		e = &bucket{lim: rate.NewLimiter(b.cfg.limit(), b.cfg.Burst)}
		b.byKey[key] = e
	}
	e.lastSeen = now
	b.mu.Unlock()

	if e.lim.AllowN(now, 1) {
		return true, 0
	}
	r := e.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, b.cfg.Window
	}
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// RateLimitMiddleware rejects requests over cfg with 429 and a Retry-After
// header. Every call gets its own set of buckets.
func RateLimitMiddleware(cfg RateLimitConfig, key KeyExtractor) Middleware {
	b := newBuckets(cfg)
	limit := strconv.Itoa(cfg.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := b.reserve(k)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			secs := max(int((wait+time.Second-1)/time.Second), 1)
			h := w.Header()
			h.Set("Retry-After", strconv.Itoa(secs))
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Window", cfg.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"path", r.URL.Path,
				"retry_after", secs,
			)
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "too many requests, retry later",
			})
		})
	}
}

// RateLimitByIP charges requests to the client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitBySubject charges requests to subject and address. Mount it
// after AuthnMiddleware.
func RateLimitBySubject(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", SubjectKeyExtractor, IPKeyExtractor))
}

// RateLimitByIPAndFormField charges requests to address plus a form field,
// so one address guessing passwords for many usernames gets a bucket each
// and one username is still throttled per address.
func RateLimitByIPAndFormField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, FormFieldKeyExtractor(field)))
}
