package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// maxAdminBody caps JSON request bodies on admin endpoints.
const maxAdminBody = 4 << 10

// SubjectsHandler serves subject-wide administration.
type SubjectsHandler struct {
	RevocationService *service.RevocationService
	IdentityService   *service.IdentityService
}

// HandleRevoke handles POST /v1/subjects/{sub}/revoke
//
//	@Summary		Revoke a subject
//	@Description	Revokes every refresh chain of the subject and every access token issued to it so far.
//	@Description	Tokens issued afterwards are unaffected.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			sub		path		string							true	"Subject (identity id)"
//	@Param			body	body		authsdk.RevokeSubjectRequest	false	"Optional reason"
//	@Success		200		{object}	authsdk.RevokeSubjectResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/subjects/{sub}/revoke [post]
func (h *SubjectsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("sub")
	if subject == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// The body is optional.
	var req authsdk.RevokeSubjectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAdminBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	n, err := h.RevocationService.RevokeSubject(r.Context(), subject, req.Reason)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		slogx.FromContext(r.Context()).Error("subject revocation failed", "sub", subject, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RevokeSubjectResponse{
		Subject:       subject,
		ChainsRevoked: n,
	})
}

// HandleListChains handles GET /v1/subjects/{sub}/chains
//
//	@Summary		List a subject's refresh chains
//	@Description	Returns the ids of the subject's refresh chains that have not been revoked.
//	@Tags			Admin
//	@Produce		json
//	@Param			sub	path		string	true	"Subject (identity id)"
//	@Success		200	{object}	authsdk.SubjectChainsResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/subjects/{sub}/chains [get]
func (h *SubjectsHandler) HandleListChains(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("sub")

	chains, err := h.RevocationService.ListChains(r.Context(), subject)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		slogx.FromContext(r.Context()).Error("listing chains failed", "sub", subject, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SubjectChainsResponse{
		Subject: subject,
		Chains:  chains,
	})
}

// HandleDisable handles POST /v1/subjects/{sub}/disable
//
//	@Summary		Disable a subject
//	@Description	The identity can no longer log in or refresh, and every token issued to it so far is revoked.
//	@Tags			Admin
//	@Produce		json
//	@Param			sub	path		string	true	"Subject (identity id)"
//	@Success		200	{object}	authsdk.RevokeSubjectResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found - unknown subject"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/subjects/{sub}/disable [post]
func (h *SubjectsHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := r.PathValue("sub")
	if !h.setDisabled(w, r, subject, true) {
		return
	}

	n, err := h.RevocationService.RevokeSubject(ctx, subject, service.ReasonIdentityRemoved)
	if err != nil {
		slogx.FromContext(ctx).Error("revoking disabled subject failed", "sub", subject, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RevokeSubjectResponse{
		Subject:       subject,
		ChainsRevoked: n,
	})
}

// HandleEnable handles POST /v1/subjects/{sub}/enable
//
//	@Summary		Enable a subject
//	@Description	Lets a disabled identity log in again. Revoked tokens stay revoked.
//	@Tags			Admin
//	@Param			sub	path	string	true	"Subject (identity id)"
//	@Success		204	"Enabled"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found - unknown subject"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/subjects/{sub}/enable [post]
func (h *SubjectsHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	if h.setDisabled(w, r, r.PathValue("sub"), false) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *SubjectsHandler) setDisabled(w http.ResponseWriter, r *http.Request, subject string, disabled bool) bool {
	err := h.IdentityService.SetDisabled(r.Context(), subject, disabled)
	switch {
	case err == nil:
		slogx.FromContext(r.Context()).Info("identity updated", "sub", subject, "disabled", disabled)
		return true
	case errors.Is(err, store.ErrNotFound):
		authsdk.ErrSubjectNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("updating identity failed", "sub", subject, "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
	return false
}

// CleanupHandler handles POST /v1/admin/cleanup
//
//	@Summary		Run housekeeping now
//	@Description	Deletes expired refresh tokens, revocation records and signing keys past their grace window.
//	@Description	The same pass also runs on the housekeeping interval.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	authsdk.CleanupResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Security		BearerAuth
//	@Router			/v1/admin/cleanup [post]
func CleanupHandler(hk *service.HousekeepingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := hk.Cleanup(r.Context())
		httpx.WriteJSON(w, http.StatusOK, authsdk.CleanupResponse{
			RefreshTokens: report.RefreshTokens,
			Revocations:   report.Revocations,
			SigningKeys:   report.SigningKeys,
			Failures:      report.Failures,
		})
	}
}

// StatsHandler handles GET /v1/admin/stats
//
//	@Summary		Token statistics
//	@Description	Counts of live refresh tokens, chains, revocations, identities and keys by state.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	authsdk.StatsResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/admin/stats [get]
func StatsHandler(rs *service.RevocationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := rs.Stats(r.Context())
		if err != nil {
			slogx.FromContext(r.Context()).Error("stats failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, authsdk.StatsResponse{
			ActiveRefreshTokens: stats.Refresh.ActiveTokens,
			ActiveChains:        stats.Refresh.ActiveChains,
			RevokedChains:       stats.Refresh.RevokedChains,
			Revocations:         stats.Revocations,
			Identities:          stats.Identities,
			Keys:                stats.Keys,
		})
	}
}
