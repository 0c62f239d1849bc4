package authsdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// GetJWKS fetches the public keys the service currently publishes.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", "", nil, nil)
	if err != nil {
		return nil, err
	}

	var doc JWKSResponse
	if err := decodeJSON(resp, &doc, http.StatusOK); err != nil {
		return nil, err
	}
	return &doc, nil
}

// KeySet fetches the JWKS and turns it into a key set that a
// jwtx.Verifier can check tokens against. Refetch it after a key rotation.
func (c *SDKClient) KeySet(ctx context.Context) (*jwtx.KeySet, error) {
	doc, err := c.GetJWKS(ctx)
	if err != nil {
		return nil, err
	}
	set, err := jwtx.NewKeySetFromJWKS(jwtx.JWKS(*doc))
	if err != nil {
		return nil, fmt.Errorf("authsdk: build key set: %w", err)
	}
	return set, nil
}
