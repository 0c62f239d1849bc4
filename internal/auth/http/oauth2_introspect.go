package http

import (
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

// IntrospectHandler serves POST /v1/oauth2/introspect following RFC 7662.
type IntrospectHandler struct {
	RevocationService *service.RevocationService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Introspection Endpoint
//	@Description	Reports whether an access or refresh token is currently active (RFC 7662).
//	@Description	Expired, revoked, malformed and unknown tokens all yield {"active":false}.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Security		BearerAuth
//	@Param			token			formData	string							true	"The token to introspect"
//	@Param			token_type_hint	formData	string							false	"Hint about the token type"	Enums(access_token, refresh_token)
//	@Success		200				{object}	authsdk.IntrospectionResponse	"active, sub, exp, iat"
//	@Failure		400				{object}	authsdk.ErrorResponse			"invalid_request"
//	@Failure		401				{object}	authsdk.ErrorResponse			"invalid_token"
//	@Failure		403				{object}	authsdk.ErrorResponse			"insufficient_scope - requires the admin role"
//	@Header			200				{string}	Cache-Control					"no-store"
//	@Router			/v1/oauth2/introspect [post].
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !httpx.IsFormEncoded(r) {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.PostForm.Get("token")
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res := h.RevocationService.Introspect(r.Context(), token, r.PostForm.Get("token_type_hint"))
	httpx.WriteJSON(w, http.StatusOK, authsdk.IntrospectionResponse{
		Active:    res.Active,
		Sub:       res.Sub,
		Exp:       res.Exp,
		Iat:       res.Iat,
		TokenType: res.TokenType,
	})
}
