package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// FactBinding restricts a search to Facts binding a given number of Objects.
type FactBinding string

const (
	FactBindingAny       FactBinding = ""
	FactBindingMeta      FactBinding = "meta"       // No bound Objects
	FactBindingOneLegged FactBinding = "one_legged" // Exactly one bound Object
	FactBindingTwoLegged FactBinding = "two_legged" // Source and destination bound
)

// TimeFieldStrategy selects which timestamp fields a time window applies to.
type TimeFieldStrategy string

const (
	TimeFieldTimestamp         TimeFieldStrategy = "timestamp"
	TimeFieldLastSeenTimestamp TimeFieldStrategy = "lastSeenTimestamp"
	TimeFieldAll               TimeFieldStrategy = "all"
)

// ParseTimeFieldStrategy returns the strategy named s, or false if s is unknown.
func ParseTimeFieldStrategy(s string) (TimeFieldStrategy, bool) {
	switch strategy := TimeFieldStrategy(s); strategy {
	case TimeFieldTimestamp, TimeFieldLastSeenTimestamp, TimeFieldAll:
		return strategy, true
	default:
		return "", false
	}
}

// MatchStrategy decides whether any or all selected fields must match.
type MatchStrategy string

const (
	MatchAny MatchStrategy = "any"
	MatchAll MatchStrategy = "all"
)

// AccessControlCriteria describes the identity performing a search.
// Only Facts readable by this identity are returned.
type AccessControlCriteria struct {
	CurrentUserIdentities    []uuid.UUID `json:"current_user_identities"`
	AvailableOrganizationIDs []uuid.UUID `json:"available_organization_ids"`
}

// FactSearchCriteria filters a Fact search. Empty filters are not applied.
type FactSearchCriteria struct {
	FactID        []uuid.UUID `json:"fact_id,omitempty"`
	FactTypeID    []uuid.UUID `json:"fact_type_id,omitempty"`
	ObjectID      []uuid.UUID `json:"object_id,omitempty"`
	InReferenceTo []uuid.UUID `json:"in_reference_to,omitempty"`
	FactBinding   FactBinding `json:"fact_binding,omitempty"`

	StartTimestamp    *time.Time          `json:"start_timestamp,omitempty"`
	EndTimestamp      *time.Time          `json:"end_timestamp,omitempty"`
	TimeFieldStrategy []TimeFieldStrategy `json:"time_field_strategy,omitempty"`
	TimeMatchStrategy MatchStrategy       `json:"time_match_strategy,omitempty"`

	IncludeRetracted bool `json:"include_retracted"`
	Limit            int  `json:"limit"` // 0 means unlimited

	AccessControl AccessControlCriteria `json:"access_control"`
}

// Clone returns a deep copy of the criteria.
func (c *FactSearchCriteria) Clone() *FactSearchCriteria {
	if c == nil {
		return &FactSearchCriteria{}
	}

	clone := *c
	clone.FactID = slices.Clone(c.FactID)
	clone.FactTypeID = slices.Clone(c.FactTypeID)
	clone.ObjectID = slices.Clone(c.ObjectID)
	clone.InReferenceTo = slices.Clone(c.InReferenceTo)
	clone.TimeFieldStrategy = slices.Clone(c.TimeFieldStrategy)
	clone.AccessControl.CurrentUserIdentities = slices.Clone(c.AccessControl.CurrentUserIdentities)
	clone.AccessControl.AvailableOrganizationIDs = slices.Clone(c.AccessControl.AvailableOrganizationIDs)
	if c.StartTimestamp != nil {
		start := *c.StartTimestamp
		clone.StartTimestamp = &start
	}
	if c.EndTimestamp != nil {
		end := *c.EndTimestamp
		clone.EndTimestamp = &end
	}
	return &clone
}

// HasTimeWindow returns true if either end of the time window is set.
func (c *FactSearchCriteria) HasTimeWindow() bool {
	return c.StartTimestamp != nil || c.EndTimestamp != nil
}

// TimeFields expands TimeFieldStrategy into the concrete fields a time window applies to.
// Defaults to lastSeenTimestamp.
func (c *FactSearchCriteria) TimeFields() []TimeFieldStrategy {
	if len(c.TimeFieldStrategy) == 0 {
		return []TimeFieldStrategy{TimeFieldLastSeenTimestamp}
	}
	if slices.Contains(c.TimeFieldStrategy, TimeFieldAll) {
		return []TimeFieldStrategy{TimeFieldTimestamp, TimeFieldLastSeenTimestamp}
	}

	fields := make([]TimeFieldStrategy, 0, len(c.TimeFieldStrategy))
	for _, f := range c.TimeFieldStrategy {
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return fields
}
