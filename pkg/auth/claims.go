// Package auth provides JWT-based authentication for the traversal API.
// The token subject is the current user identity and the "orgs" claim lists the
// organizations whose RoleBased Facts the user may read.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClaimsKey is the context key for storing JWT claims.
const ClaimsKey contextKey = "claims"

// Audience is the audience every accepted token must carry.
const Audience = "grafeo"

// Claims represents the JWT claims accepted by the API.
type Claims struct {
	jwt.RegisteredClaims
	Organizations []string `json:"orgs,omitempty"`  // Organization UUIDs available to the subject
	Roles         []string `json:"roles,omitempty"` // Informational, not used for Fact access
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
