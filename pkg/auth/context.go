package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/apperrors"
)

// RequireSubjectFromContext returns the token subject as a UUID.
func RequireSubjectFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: no claims in context", apperrors.ErrUnauthenticated)
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject %q is not a valid UUID", apperrors.ErrUnauthenticated, claims.Subject)
	}
	return subject, nil
}

// OrganizationIDsFromContext returns the organizations listed in the token.
// Entries that are not valid UUIDs are skipped.
func OrganizationIDsFromContext(ctx context.Context) []uuid.UUID {
	claims, ok := GetClaims(ctx)
	if !ok {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(claims.Organizations))
	for _, org := range claims.Organizations {
		if id, err := uuid.Parse(org); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
