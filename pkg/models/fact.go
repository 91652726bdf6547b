package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// AccessMode controls who may read a Fact.
type AccessMode string

// Access modes, from least to most restrictive.
const (
	AccessModePublic    AccessMode = "Public"    // Readable by everyone
	AccessModeRoleBased AccessMode = "RoleBased" // Readable by members of the owning organization or ACL subjects
	AccessModeExplicit  AccessMode = "Explicit"  // Readable by ACL subjects only
)

// ParseAccessMode converts a string into an AccessMode.
func ParseAccessMode(s string) (AccessMode, error) {
	switch mode := AccessMode(s); mode {
	case AccessModePublic, AccessModeRoleBased, AccessModeExplicit:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown access mode %q", s)
	}
}

// FactRecord is a Fact as returned by the object/fact store.
//
// A Fact binds zero (meta Fact), one (one-legged) or two (two-legged) Objects.
// Optional fields are nil when absent.
type FactRecord struct {
	ID                   uuid.UUID     `json:"id"`
	TypeID               uuid.UUID     `json:"type_id"`
	Value                *string       `json:"value,omitempty"`
	InReferenceToID      *uuid.UUID    `json:"in_reference_to_id,omitempty"`
	OrganizationID       *uuid.UUID    `json:"organization_id,omitempty"`
	OriginID             *uuid.UUID    `json:"origin_id,omitempty"`
	Trust                float64       `json:"trust"`
	Confidence           float64       `json:"confidence"`
	AccessMode           AccessMode    `json:"access_mode,omitempty"`
	Timestamp            time.Time     `json:"timestamp"`
	LastSeenTimestamp    time.Time     `json:"last_seen_timestamp"`
	SourceObject         *ObjectRecord `json:"source_object,omitempty"`
	DestinationObject    *ObjectRecord `json:"destination_object,omitempty"`
	BidirectionalBinding bool          `json:"bidirectional_binding"`
	Retracted            bool          `json:"retracted"`
	ACL                  []uuid.UUID   `json:"acl,omitempty"` // Subjects explicitly granted read access
}

// IsTwoLegged returns true if the Fact binds both a source and a destination Object.
func (f *FactRecord) IsTwoLegged() bool {
	return f.SourceObject != nil && f.DestinationObject != nil
}

// IsOneLegged returns true if the Fact binds exactly one Object.
func (f *FactRecord) IsOneLegged() bool {
	return (f.SourceObject == nil) != (f.DestinationObject == nil)
}

// IsMeta returns true if the Fact binds no Objects.
func (f *FactRecord) IsMeta() bool {
	return f.SourceObject == nil && f.DestinationObject == nil
}

// IsLoop returns true if source and destination are the same Object.
func (f *FactRecord) IsLoop() bool {
	return f.IsTwoLegged() && f.SourceObject.ID == f.DestinationObject.ID
}

// Certainty is derived from trust and confidence and never stored.
func (f *FactRecord) Certainty() float64 {
	return f.Trust * f.Confidence
}

// HasACLEntry returns true if any of the given subjects is in the Fact's ACL.
func (f *FactRecord) HasACLEntry(subjects ...uuid.UUID) bool {
	for _, s := range subjects {
		if slices.Contains(f.ACL, s) {
			return true
		}
	}
	return false
}
