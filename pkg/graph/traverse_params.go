package graph

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// DefaultLimit bounds every adjacency search when no limit is configured.
const DefaultLimit = 25

// TraverseParams holds the settings of one traversal. It is immutable once built.
type TraverseParams struct {
	baseSearchCriteria *models.FactSearchCriteria
	includeRetracted   bool
	after              *time.Time
	before             *time.Time
	timeFields         []models.TimeFieldStrategy
	timeMatch          models.MatchStrategy
	limit              int
}

// TraverseOption configures TraverseParams.
type TraverseOption func(*TraverseParams)

// WithBaseSearchCriteria sets the criteria every search starts from, typically carrying
// the access-control criteria of the current user. The criteria is copied.
func WithBaseSearchCriteria(criteria *models.FactSearchCriteria) TraverseOption {
	return func(p *TraverseParams) {
		p.baseSearchCriteria = criteria.Clone()
	}
}

// WithIncludeRetracted controls whether retracted Facts are traversed.
func WithIncludeRetracted(include bool) TraverseOption {
	return func(p *TraverseParams) {
		p.includeRetracted = include
	}
}

// WithTimeWindow restricts traversal to Facts inside [after, before]. Either bound may be nil.
func WithTimeWindow(after, before *time.Time) TraverseOption {
	return func(p *TraverseParams) {
		p.after = copyTime(after)
		p.before = copyTime(before)
	}
}

// WithTimeFieldStrategy selects the timestamp fields the time window applies to and
// whether any or all of them must match.
func WithTimeFieldStrategy(match models.MatchStrategy, fields ...models.TimeFieldStrategy) TraverseOption {
	return func(p *TraverseParams) {
		p.timeMatch = match
		p.timeFields = slices.Clone(fields)
	}
}

// WithLimit bounds the number of Facts returned by each adjacency search.
// Non-positive values fall back to DefaultLimit.
func WithLimit(limit int) TraverseOption {
	return func(p *TraverseParams) {
		p.limit = limit
	}
}

// NewTraverseParams builds TraverseParams from the given options.
func NewTraverseParams(opts ...TraverseOption) *TraverseParams {
	p := &TraverseParams{
		baseSearchCriteria: &models.FactSearchCriteria{},
		timeMatch:          models.MatchAny,
		limit:              DefaultLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.limit <= 0 {
		p.limit = DefaultLimit
	}
	return p
}

// BaseSearchCriteria returns a copy of the base criteria.
func (p *TraverseParams) BaseSearchCriteria() *models.FactSearchCriteria {
	return p.baseSearchCriteria.Clone()
}

func (p *TraverseParams) IncludeRetracted() bool { return p.includeRetracted }

func (p *TraverseParams) After() *time.Time { return copyTime(p.after) }

func (p *TraverseParams) Before() *time.Time { return copyTime(p.before) }

func (p *TraverseParams) Limit() int { return p.limit }

func (p *TraverseParams) String() string {
	return fmt.Sprintf("limit=%d includeRetracted=%t after=%v before=%v", p.limit, p.includeRetracted, p.after, p.before)
}

// NewSearchCriteria returns a copy of the base criteria with the time window, retraction
// policy and limit of this traversal applied. The base criteria is never modified.
func (p *TraverseParams) NewSearchCriteria() *models.FactSearchCriteria {
	criteria := p.baseSearchCriteria.Clone()
	criteria.StartTimestamp = copyTime(p.after)
	criteria.EndTimestamp = copyTime(p.before)
	if len(p.timeFields) > 0 {
		criteria.TimeFieldStrategy = slices.Clone(p.timeFields)
	}
	criteria.TimeMatchStrategy = p.timeMatch
	criteria.IncludeRetracted = p.includeRetracted
	criteria.Limit = p.limit
	return criteria
}

// adjacencySearchCriteria scopes a search to Facts of the given types bound to objectID.
func (p *TraverseParams) adjacencySearchCriteria(objectID uuid.UUID, factTypeIDs []uuid.UUID) *models.FactSearchCriteria {
	criteria := p.NewSearchCriteria()
	criteria.ObjectID = []uuid.UUID{objectID}
	criteria.FactTypeID = slices.Clone(factTypeIDs)
	return criteria
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
