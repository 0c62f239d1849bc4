package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// jwksMaxAge bounds how long relying parties cache the key set. A key
// rotated in is published at most this long before it signs anything a
// cached client cannot verify, so it stays well below the grace period.
const jwksMaxAge = 5 * time.Minute

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
//
//	@Summary		Get JWKS
//	@Description	Returns the active and retired public keys used to verify JWTs.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Header			200	{string}	Cache-Control			"public, max-age=300"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(km *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.PublicCache(w, jwksMaxAge)
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(km.PublicJWKS()))
	}
}
