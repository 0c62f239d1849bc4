package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// RevokeHandler serves POST /v1/oauth2/revoke following RFC 7009.
//
// Revoking a token needs only the token and the client it was issued to;
// a token of another client is left alone. Revoking a chain by id is an
// operator action and needs an admin bearer token. Unknown and already
// invalid tokens return 200 OK so the endpoint reveals nothing about them.
type RevokeHandler struct {
	RevocationService *service.RevocationService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Revocation Endpoint
//	@Description	Revokes an access token, or a refresh token and its chain (RFC 7009). The token must belong to client_id.
//	@Description	Revoking a chain by chain_id requires an admin bearer token.
//	@Description	The endpoint is idempotent and returns 200 OK even for invalid, unknown or foreign tokens.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Security		BearerAuth
//	@Param			token			formData	string	false	"The token to revoke (required unless chain_id is given)"
//	@Param			token_type_hint	formData	string	false	"Hint about the token type"	Enums(access_token, refresh_token)
//	@Param			client_id		formData	string	false	"Client the token was issued to (required with token)"
//	@Param			chain_id		formData	string	false	"Refresh chain to revoke (admin only)"
//	@Param			reason			formData	string	false	"Reason recorded with the revocation"
//	@Success		200				"Token revoked (or was already invalid)"
//	@Failure		400				{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401				{object}	authsdk.ErrorResponse	"invalid_token - chain_id without a valid bearer token"
//	@Failure		403				{object}	authsdk.ErrorResponse	"insufficient_scope - chain_id requires the admin role"
//	@Failure		500				{object}	authsdk.ErrorResponse	"server_error - the revocation was not recorded"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Router			/v1/oauth2/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if !httpx.IsFormEncoded(r) {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	req := service.RevokeRequest{
		Token:     r.PostForm.Get("token"),
		TokenHint: r.PostForm.Get("token_type_hint"),
		ClientID:  r.PostForm.Get("client_id"),
		ChainID:   r.PostForm.Get("chain_id"),
		Reason:    r.PostForm.Get("reason"),
	}

	if req.ChainID != "" && !h.authorizeOperator(w, r) {
		return
	}

	if err := h.RevocationService.Revoke(ctx, req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			authsdk.ErrInvalidRequest.WriteError(w)
		default:
			// The caller must retry: reporting success here would leave the
			// token usable.
			log.Error("revocation failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

// authorizeOperator requires an admin bearer token and writes the error
// response when there is none.
func (h *RevokeHandler) authorizeOperator(w http.ResponseWriter, r *http.Request) bool {
	log := slogx.FromContext(r.Context())

	raw, ok := httpx.BearerToken(r)
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		authsdk.ErrInvalidToken.WriteError(w)
		return false
	}

	claims, err := h.RevocationService.Authenticate(r.Context(), raw)
	if err != nil {
		log.Warn("chain revocation with rejected bearer token", "err", err)
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		authsdk.ErrInvalidToken.WriteError(w)
		return false
	}
	if claims.Role != domain.RoleAdmin {
		log.Warn("chain revocation denied", "sub", claims.Subject)
		w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
		authsdk.ErrInsufficientScope.WriteError(w)
		return false
	}
	return true
}
