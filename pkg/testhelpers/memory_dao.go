package testhelpers

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// MemoryObjectFactDao is an in-memory object/fact store for tests.
// It applies the same filters as the Postgres repository and records every search.
type MemoryObjectFactDao struct {
	mu       sync.Mutex
	objects  map[uuid.UUID]*models.ObjectRecord
	facts    []*models.FactRecord
	searches []*models.FactSearchCriteria
}

var _ graph.ObjectFactDao = (*MemoryObjectFactDao)(nil)

// NewMemoryObjectFactDao creates an empty store.
func NewMemoryObjectFactDao() *MemoryObjectFactDao {
	return &MemoryObjectFactDao{objects: make(map[uuid.UUID]*models.ObjectRecord)}
}

// AddObject stores an Object.
func (d *MemoryObjectFactDao) AddObject(o *models.ObjectRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects[o.ID] = o
}

// AddFact stores a Fact. Bound Objects are stored as well.
func (d *MemoryObjectFactDao) AddFact(f *models.FactRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, o := range []*models.ObjectRecord{f.SourceObject, f.DestinationObject} {
		if o != nil {
			if _, ok := d.objects[o.ID]; !ok {
				d.objects[o.ID] = o
			}
		}
	}
	d.facts = append(d.facts, f)
}

// SearchCount returns the number of SearchFacts calls so far.
func (d *MemoryObjectFactDao) SearchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.searches)
}

// Searches returns copies of the criteria of every search so far.
func (d *MemoryObjectFactDao) Searches() []*models.FactSearchCriteria {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*models.FactSearchCriteria, len(d.searches))
	for i, c := range d.searches {
		out[i] = c.Clone()
	}
	return out
}

func (d *MemoryObjectFactDao) GetObject(_ context.Context, id uuid.UUID) (*models.ObjectRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.objects[id], nil
}

func (d *MemoryObjectFactDao) GetFact(_ context.Context, id uuid.UUID) (*models.FactRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.facts {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

func (d *MemoryObjectFactDao) SearchFacts(_ context.Context, criteria *models.FactSearchCriteria) (*models.ResultContainer[*models.FactRecord], error) {
	if criteria == nil {
		criteria = &models.FactSearchCriteria{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.searches = append(d.searches, criteria.Clone())

	var matched []*models.FactRecord
	for _, f := range d.facts {
		if matchesCriteria(f, criteria) {
			matched = append(matched, f)
		}
	}

	slices.SortStableFunc(matched, func(a, b *models.FactRecord) int {
		if c := b.LastSeenTimestamp.Compare(a.LastSeenTimestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if criteria.Limit > 0 && len(matched) > criteria.Limit {
		matched = matched[:criteria.Limit]
	}

	return models.ResultContainerOf(matched...), nil
}

func matchesCriteria(f *models.FactRecord, c *models.FactSearchCriteria) bool {
	if len(c.FactID) > 0 && !slices.Contains(c.FactID, f.ID) {
		return false
	}
	if len(c.FactTypeID) > 0 && !slices.Contains(c.FactTypeID, f.TypeID) {
		return false
	}
	if len(c.ObjectID) > 0 && !bindsAny(f, c.ObjectID) {
		return false
	}
	if len(c.InReferenceTo) > 0 && (f.InReferenceToID == nil || !slices.Contains(c.InReferenceTo, *f.InReferenceToID)) {
		return false
	}

	switch c.FactBinding {
	case models.FactBindingMeta:
		if !f.IsMeta() {
			return false
		}
	case models.FactBindingOneLegged:
		if !f.IsOneLegged() {
			return false
		}
	case models.FactBindingTwoLegged:
		if !f.IsTwoLegged() {
			return false
		}
	}

	if f.Retracted && !c.IncludeRetracted {
		return false
	}
	if c.HasTimeWindow() && !inTimeWindow(f, c) {
		return false
	}
	return accessible(f, c.AccessControl)
}

func bindsAny(f *models.FactRecord, ids []uuid.UUID) bool {
	return (f.SourceObject != nil && slices.Contains(ids, f.SourceObject.ID)) ||
		(f.DestinationObject != nil && slices.Contains(ids, f.DestinationObject.ID))
}

func inTimeWindow(f *models.FactRecord, c *models.FactSearchCriteria) bool {
	within := func(t time.Time) bool {
		if c.StartTimestamp != nil && t.Before(*c.StartTimestamp) {
			return false
		}
		if c.EndTimestamp != nil && t.After(*c.EndTimestamp) {
			return false
		}
		return true
	}

	var results []bool
	for _, field := range c.TimeFields() {
		switch field {
		case models.TimeFieldTimestamp:
			results = append(results, within(f.Timestamp))
		case models.TimeFieldLastSeenTimestamp:
			results = append(results, within(f.LastSeenTimestamp))
		}
	}
	if len(results) == 0 {
		return true
	}
	if c.TimeMatchStrategy == models.MatchAll {
		return !slices.Contains(results, false)
	}
	return slices.Contains(results, true)
}

func accessible(f *models.FactRecord, ac models.AccessControlCriteria) bool {
	if f.AccessMode == models.AccessModePublic {
		return true
	}
	if f.AccessMode == models.AccessModeRoleBased && f.OrganizationID != nil &&
		slices.Contains(ac.AvailableOrganizationIDs, *f.OrganizationID) {
		return true
	}
	return f.HasACLEntry(ac.CurrentUserIdentities...)
}
