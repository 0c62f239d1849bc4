package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// KeyRotationHandler serves the signing key admin endpoints. All of them
// require the admin role.
type KeyRotationHandler struct {
	KeyRotationService *service.KeyRotationService
}

// HandleRotate handles POST /v1/keys/rotate
//
//	@Summary		Rotate signing keys
//	@Description	Generates a new active signing key. The previous key is retired and keeps verifying for the grace period.
//	@Tags			Keys
//	@Produce		json
//	@Success		200	{object}	authsdk.SigningKeyInfo	"The new active key"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Rotation failed, the previous key stays active"
//	@Security		BearerAuth
//	@Router			/v1/keys/rotate [post]
func (h *KeyRotationHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	info, err := h.KeyRotationService.RotateKey(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("manual key rotation failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSDKKey(info))
}

// HandleListKeys handles GET /v1/keys
//
//	@Summary		List signing keys
//	@Description	Lists the keys that currently verify tokens, the active key first.
//	@Tags			Keys
//	@Produce		json
//	@Success		200	{object}	authsdk.ListKeysResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Security		BearerAuth
//	@Router			/v1/keys [get]
func (h *KeyRotationHandler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	keys := h.KeyRotationService.ListKeys()

	resp := authsdk.ListKeysResponse{Keys: make([]authsdk.SigningKeyInfo, len(keys))}
	for i, k := range keys {
		resp.Keys[i] = toSDKKey(k)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRevokeKey handles POST /v1/keys/{kid}/revoke
//
//	@Summary		Revoke a signing key
//	@Description	Removes a retired key from verification immediately. Tokens it signed stop verifying.
//	@Description	The active key cannot be revoked, rotate first.
//	@Tags			Keys
//	@Produce		json
//	@Param			kid	path	string	true	"Key ID to revoke"
//	@Success		204	"No Content - key revoked"
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires the admin role"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Key not found"
//	@Failure		409	{object}	authsdk.ErrorResponse	"The key is the active signing key"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/keys/{kid}/revoke [post]
func (h *KeyRotationHandler) HandleRevokeKey(w http.ResponseWriter, r *http.Request) {
	kid := r.PathValue("kid")
	if kid == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.KeyRotationService.RevokeKey(r.Context(), kid); err != nil {
		switch {
		case errors.Is(err, jwtx.ErrActiveKey):
			authsdk.ErrActiveKey.WriteError(w)
		case errors.Is(err, jwtx.ErrNoKey):
			authsdk.ErrKeyNotFound.WriteError(w)
		default:
			slogx.FromContext(r.Context()).Error("key revocation failed", "kid", kid, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toSDKKey(k service.KeyInfo) authsdk.SigningKeyInfo {
	return authsdk.SigningKeyInfo{
		Kid:         k.Kid,
		Algorithm:   k.Algorithm,
		State:       k.State,
		CreatedAt:   k.CreatedAt,
		VerifyUntil: k.VerifyUntil,
	}
}
