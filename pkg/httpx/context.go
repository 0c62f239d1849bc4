package httpx

import (
	"context"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeySubject ctxKey = "sub"
	CtxKeyRole    ctxKey = "role"
	CtxKeyClaims  ctxKey = "claims"
)

// ClaimsFromContext returns the claims stored by AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(*jwtx.Claims)
	return c, ok
}

// SubjectFromContext returns the authenticated subject, or "".
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(CtxKeySubject).(string)
	return sub
}

func roleFromCtx(ctx context.Context) string {
	role, _ := ctx.Value(CtxKeyRole).(string)
	return role
}
