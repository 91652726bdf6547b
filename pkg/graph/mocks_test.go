package graph

import (
	"context"
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// ============================================================================
// Mock Implementations for Graph Tests
// ============================================================================

type mockObjectFactDao struct {
	objects    map[uuid.UUID]*models.ObjectRecord
	facts      []*models.FactRecord
	searches   []*models.FactSearchCriteria
	searchErr  error
	getFactErr error
}

func newMockObjectFactDao() *mockObjectFactDao {
	return &mockObjectFactDao{objects: make(map[uuid.UUID]*models.ObjectRecord)}
}

func (m *mockObjectFactDao) GetObject(ctx context.Context, id uuid.UUID) (*models.ObjectRecord, error) {
	return m.objects[id], nil
}

func (m *mockObjectFactDao) GetFact(ctx context.Context, id uuid.UUID) (*models.FactRecord, error) {
	if m.getFactErr != nil {
		return nil, m.getFactErr
	}
	for _, f := range m.facts {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

// SearchFacts filters by object and fact type only, so the graph's own filtering is observable.
func (m *mockObjectFactDao) SearchFacts(ctx context.Context, criteria *models.FactSearchCriteria) (*models.ResultContainer[*models.FactRecord], error) {
	m.searches = append(m.searches, criteria)
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	var matches []*models.FactRecord
	for _, f := range m.facts {
		if len(criteria.FactTypeID) > 0 && !slices.Contains(criteria.FactTypeID, f.TypeID) {
			continue
		}
		if len(criteria.ObjectID) > 0 && !bindsAny(f, criteria.ObjectID) {
			continue
		}
		matches = append(matches, f)
	}
	return models.ResultContainerOf(matches...), nil
}

func bindsAny(f *models.FactRecord, objectIDs []uuid.UUID) bool {
	if f.SourceObject != nil && slices.Contains(objectIDs, f.SourceObject.ID) {
		return true
	}
	return f.DestinationObject != nil && slices.Contains(objectIDs, f.DestinationObject.ID)
}

type mockTypeResolver struct {
	objectTypes map[uuid.UUID]*models.ObjectTypeStruct
	factTypes   map[uuid.UUID]*models.FactTypeStruct
	namesErr    error
}

func newMockTypeResolver() *mockTypeResolver {
	return &mockTypeResolver{
		objectTypes: make(map[uuid.UUID]*models.ObjectTypeStruct),
		factTypes:   make(map[uuid.UUID]*models.FactTypeStruct),
	}
}

func (m *mockTypeResolver) ToObjectTypeStruct(ctx context.Context, id uuid.UUID) (*models.ObjectTypeStruct, error) {
	return m.objectTypes[id], nil
}

func (m *mockTypeResolver) ToFactTypeStruct(ctx context.Context, id uuid.UUID) (*models.FactTypeStruct, error) {
	return m.factTypes[id], nil
}

func (m *mockTypeResolver) FactTypeNamesToIDs(ctx context.Context, names []string) ([]uuid.UUID, error) {
	if m.namesErr != nil {
		return nil, m.namesErr
	}
	var ids []uuid.UUID
	for _, ft := range m.factTypes {
		if slices.Contains(names, ft.Name) {
			ids = append(ids, ft.ID)
		}
	}
	return ids, nil
}

type mockSecurityContext struct {
	denied map[uuid.UUID]bool
}

func (m *mockSecurityContext) HasReadPermission(fact *models.FactRecord) bool {
	return !m.denied[fact.ID]
}

type recordingObserver struct {
	searches map[string]int
	filtered map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{searches: make(map[string]int), filtered: make(map[string]int)}
}

func (o *recordingObserver) SearchIssued(kind string)   { o.searches[kind]++ }
func (o *recordingObserver) FactFiltered(reason string) { o.filtered[reason]++ }

type mockPropertyHelper struct {
	objectEntries []PropertyEntry
	factEntries   []PropertyEntry
	objectCalls   int
	factCalls     int
	err           error
}

func (m *mockPropertyHelper) ObjectProperties(ctx context.Context, object *models.ObjectRecord, params *TraverseParams) ([]PropertyEntry, error) {
	m.objectCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.objectEntries, nil
}

func (m *mockPropertyHelper) FactProperties(ctx context.Context, fact *models.FactRecord, params *TraverseParams) ([]PropertyEntry, error) {
	m.factCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.factEntries, nil
}

// ============================================================================
// Fixture
// ============================================================================

type graphFixture struct {
	dao      *mockObjectFactDao
	types    *mockTypeResolver
	security *mockSecurityContext
	observer *recordingObserver

	ipType      *models.ObjectTypeStruct
	domainType  *models.ObjectTypeStruct
	resolveType *models.FactTypeStruct
	aliasType   *models.FactTypeStruct
}

func newGraphFixture() *graphFixture {
	f := &graphFixture{
		dao:         newMockObjectFactDao(),
		types:       newMockTypeResolver(),
		security:    &mockSecurityContext{denied: make(map[uuid.UUID]bool)},
		observer:    newRecordingObserver(),
		ipType:      &models.ObjectTypeStruct{ID: uuid.New(), Name: "ip"},
		domainType:  &models.ObjectTypeStruct{ID: uuid.New(), Name: "domain"},
		resolveType: &models.FactTypeStruct{ID: uuid.New(), Name: "resolve"},
		aliasType:   &models.FactTypeStruct{ID: uuid.New(), Name: "alias"},
	}
	for _, ot := range []*models.ObjectTypeStruct{f.ipType, f.domainType} {
		f.types.objectTypes[ot.ID] = ot
	}
	for _, ft := range []*models.FactTypeStruct{f.resolveType, f.aliasType} {
		f.types.factTypes[ft.ID] = ft
	}
	return f
}

func (f *graphFixture) object(objectType *models.ObjectTypeStruct, value string) *models.ObjectRecord {
	o := &models.ObjectRecord{ID: uuid.New(), TypeID: objectType.ID, Value: value}
	f.dao.objects[o.ID] = o
	return o
}

func (f *graphFixture) fact(factType *models.FactTypeStruct, source, destination *models.ObjectRecord, mutate ...func(*models.FactRecord)) *models.FactRecord {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fact := &models.FactRecord{
		ID:                uuid.New(),
		TypeID:            factType.ID,
		Trust:             0.8,
		Confidence:        0.5,
		AccessMode:        models.AccessModePublic,
		Timestamp:         now,
		LastSeenTimestamp: now,
		SourceObject:      source,
		DestinationObject: destination,
	}
	for _, m := range mutate {
		m(fact)
	}
	f.dao.facts = append(f.dao.facts, fact)
	return fact
}

func (f *graphFixture) graph(t *testing.T, params *TraverseParams, opts ...Option) *ActGraph {
	t.Helper()
	if params == nil {
		params = NewTraverseParams()
	}
	opts = append([]Option{WithObserver(f.observer)}, opts...)
	g, err := NewActGraph(f.dao, f.types, f.security, params, opts...)
	require.NoError(t, err)
	return g
}

func (f *graphFixture) vertex(t *testing.T, g *ActGraph, object *models.ObjectRecord) *ObjectVertex {
	t.Helper()
	v, err := g.elementFactory().GetVertex(context.Background(), object.ID)
	require.NoError(t, err)
	return v
}

func bidirectional(f *models.FactRecord) { f.BidirectionalBinding = true }

func retracted(f *models.FactRecord) { f.Retracted = true }

// collect drains seq, failing the test on the first error.
func collect[T any](t *testing.T, seq iter.Seq2[T, error]) []T {
	t.Helper()
	var out []T
	for v, err := range seq {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func elementIDs[T Identifiable](elements []T) []uuid.UUID {
	ids := make([]uuid.UUID, len(elements))
	for i, e := range elements {
		ids[i] = e.ID()
	}
	return ids
}
