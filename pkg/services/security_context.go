package services

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/auth"
	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// SecurityContext decides Fact read access for one authenticated user.
type SecurityContext interface {
	graph.SecurityContext
	// AccessControlCriteria expresses the same identity as a store-side search filter.
	AccessControlCriteria() models.AccessControlCriteria
}

type securityContext struct {
	subject       uuid.UUID
	organizations []uuid.UUID
}

// NewSecurityContext creates a SecurityContext for subject, a member of organizations.
func NewSecurityContext(subject uuid.UUID, organizations []uuid.UUID) SecurityContext {
	return &securityContext{
		subject:       subject,
		organizations: slices.Clone(organizations),
	}
}

// SecurityContextFromContext builds a SecurityContext from the JWT claims in ctx.
func SecurityContextFromContext(ctx context.Context) (SecurityContext, error) {
	subject, err := auth.RequireSubjectFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return NewSecurityContext(subject, auth.OrganizationIDsFromContext(ctx)), nil
}

// HasReadPermission grants Public Facts to everyone, RoleBased Facts to members of the
// owning organization or ACL subjects, and Explicit Facts to ACL subjects only.
// Unknown access modes are denied.
func (s *securityContext) HasReadPermission(fact *models.FactRecord) bool {
	if fact == nil {
		return false
	}

	switch fact.AccessMode {
	case models.AccessModePublic:
		return true
	case models.AccessModeRoleBased:
		if fact.OrganizationID != nil && slices.Contains(s.organizations, *fact.OrganizationID) {
			return true
		}
		return fact.HasACLEntry(s.subject)
	case models.AccessModeExplicit:
		return fact.HasACLEntry(s.subject)
	default:
		return false
	}
}

func (s *securityContext) AccessControlCriteria() models.AccessControlCriteria {
	return models.AccessControlCriteria{
		CurrentUserIdentities:    []uuid.UUID{s.subject},
		AvailableOrganizationIDs: slices.Clone(s.organizations),
	}
}

var _ SecurityContext = (*securityContext)(nil)
