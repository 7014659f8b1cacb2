// Package http provides HTTP middleware and handlers for the authentication
// engine.
package http

import (
	"context"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
)

// claimsKey is a context key type for storing verified credential claims.
type claimsKey struct{}

// WithClaims stores verified claims in the context. Called by the
// authentication middleware after successful credential verification.
func WithClaims(ctx context.Context, claims *authDomain.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims retrieves verified claims from the context. Returns
// (claims, true) if present, or (nil, false) if no claims were set.
func GetClaims(ctx context.Context) (*authDomain.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*authDomain.Claims)
	return claims, ok
}
