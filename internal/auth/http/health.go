package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

const readyzTimeout = 2 * time.Second

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Answers 200 while the process is serving, without touching any dependency
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthBody("ok", startTime, version, nil))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database, the active signing key (by signing and verifying a short-lived token) and the revocation list backend
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"every check ok"
//	@Failure		503	{object}	authsdk.HealthResponse	"at least one check failed"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	km *jwtx.KeyManager,
	list revocation.List,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		check := func(err error) string {
			if err == nil {
				return "ok"
			}
			status, code = "degraded", http.StatusServiceUnavailable
			return "error: " + err.Error()
		}

		checks := &authsdk.HealthChecks{
			Database:    check(st.Ping(ctx)),
			Signer:      check(km.HealthCheck()),
			Revocations: check(list.Ping(ctx)),
		}
		httpx.WriteJSON(w, code, healthBody(status, startTime, version, checks))
	}
}

func healthBody(status string, startTime time.Time, version string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
		Checks:  checks,
	}
}
