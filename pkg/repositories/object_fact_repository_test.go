//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mnemonic-no/grafeo-sub002/pkg/database"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
	"github.com/mnemonic-no/grafeo-sub002/pkg/testhelpers"
)

// objectFactTestContext holds test dependencies for object/fact repository tests.
type objectFactTestContext struct {
	t       *testing.T
	testDB  *testhelpers.TestDB
	fixture *testhelpers.Fixture
	repo    ObjectFactRepository
	types   TypeRepository
}

// setupObjectFactTest seeds the threat graph fixture into the shared testcontainer.
func setupObjectFactTest(t *testing.T) *objectFactTestContext {
	testDB := testhelpers.GetTestDB(t)
	fx := testhelpers.LoadFixture(t, "threat_graph")
	testhelpers.SeedFixture(t, testDB.DB, fx)

	return &objectFactTestContext{
		t:       t,
		testDB:  testDB,
		fixture: fx,
		repo:    NewObjectFactRepository(zap.NewNop()),
		types:   NewTypeRepository(),
	}
}

// createTestContext returns a context with a read-only scope.
func (tc *objectFactTestContext) createTestContext() (context.Context, func()) {
	tc.t.Helper()
	ctx := context.Background()
	scope, err := tc.testDB.DB.ReadOnlyScope(ctx)
	if err != nil {
		tc.t.Fatalf("failed to create scope: %v", err)
	}
	ctx = database.SetScope(ctx, scope)
	return ctx, func() { scope.Close() }
}

func (tc *objectFactTestContext) search(ctx context.Context, criteria *models.FactSearchCriteria) []uuid.UUID {
	tc.t.Helper()
	result, err := tc.repo.SearchFacts(ctx, criteria)
	require.NoError(tc.t, err)
	facts, err := result.Collect()
	require.NoError(tc.t, err)

	ids := make([]uuid.UUID, 0, len(facts))
	for _, f := range facts {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestObjectFactRepository_GetObject(t *testing.T) {
	tc := setupObjectFactTest(t)
	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	o, err := tc.repo.GetObject(ctx, testhelpers.ObjectID("domain"))
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "evil.example", o.Value)
	assert.Equal(t, tc.fixture.Object("domain").TypeID, o.TypeID)

	missing, err := tc.repo.GetObject(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestObjectFactRepository_GetFact(t *testing.T) {
	tc := setupObjectFactTest(t)
	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	f, err := tc.repo.GetFact(ctx, testhelpers.FactID("attributed"))
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, models.AccessModeRoleBased, f.AccessMode)
	assert.True(t, f.BidirectionalBinding)
	require.NotNil(t, f.SourceObject)
	require.NotNil(t, f.DestinationObject)
	assert.Equal(t, testhelpers.ObjectID("domain"), f.SourceObject.ID)
	assert.Equal(t, "sofacy", f.DestinationObject.Value)
	require.NotNil(t, f.OrganizationID)
	assert.Equal(t, testhelpers.OrganizationID("acme"), *f.OrganizationID)
	assert.InDelta(t, 0.9, f.Trust, 1e-9)
	assert.Nil(t, f.Value)

	mentions, err := tc.repo.GetFact(ctx, testhelpers.FactID("mentions"))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{testhelpers.SubjectID("alice")}, mentions.ACL)

	name, err := tc.repo.GetFact(ctx, testhelpers.FactID("actorName"))
	require.NoError(t, err)
	assert.True(t, name.IsOneLegged())
	require.NotNil(t, name.Value)
	assert.Equal(t, "APT28", *name.Value)

	missing, err := tc.repo.GetFact(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestObjectFactRepository_SearchFacts(t *testing.T) {
	tc := setupObjectFactTest(t)
	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	domain := []uuid.UUID{testhelpers.ObjectID("domain")}

	t.Run("public and not retracted by default", func(t *testing.T) {
		assert.Equal(t,
			[]uuid.UUID{testhelpers.FactID("resolve1"), testhelpers.FactID("resolve3")},
			tc.search(ctx, &models.FactSearchCriteria{ObjectID: domain}))
	})

	t.Run("organization and retracted", func(t *testing.T) {
		assert.ElementsMatch(t,
			[]uuid.UUID{
				testhelpers.FactID("resolve1"), testhelpers.FactID("resolve2"),
				testhelpers.FactID("resolve3"), testhelpers.FactID("attributed"),
			},
			tc.search(ctx, &models.FactSearchCriteria{
				ObjectID:         domain,
				IncludeRetracted: true,
				AccessControl: models.AccessControlCriteria{
					AvailableOrganizationIDs: []uuid.UUID{testhelpers.OrganizationID("acme")},
				},
			}))
	})

	t.Run("explicit acl", func(t *testing.T) {
		report := []uuid.UUID{testhelpers.ObjectID("report")}
		assert.Empty(t, tc.search(ctx, &models.FactSearchCriteria{ObjectID: report}))
		assert.Equal(t,
			[]uuid.UUID{testhelpers.FactID("mentions")},
			tc.search(ctx, &models.FactSearchCriteria{
				ObjectID: report,
				AccessControl: models.AccessControlCriteria{
					CurrentUserIdentities: []uuid.UUID{testhelpers.SubjectID("alice")},
				},
			}))
	})

	t.Run("time window and limit", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t,
			[]uuid.UUID{testhelpers.FactID("resolve1")},
			tc.search(ctx, &models.FactSearchCriteria{ObjectID: domain, StartTimestamp: &start}))
		assert.Len(t, tc.search(ctx, &models.FactSearchCriteria{ObjectID: domain, Limit: 1}), 1)
	})

	t.Run("meta facts by reference", func(t *testing.T) {
		assert.Equal(t,
			[]uuid.UUID{testhelpers.FactID("comment")},
			tc.search(ctx, &models.FactSearchCriteria{
				InReferenceTo: []uuid.UUID{testhelpers.FactID("resolve1")},
				FactBinding:   models.FactBindingMeta,
			}))
	})

	t.Run("type filter", func(t *testing.T) {
		ids := tc.search(ctx, &models.FactSearchCriteria{
			ObjectID:    []uuid.UUID{testhelpers.ObjectID("actor")},
			FactTypeID:  []uuid.UUID{tc.fixture.Fact("actorName").TypeID},
			FactBinding: models.FactBindingOneLegged,
		})
		assert.ElementsMatch(t, []uuid.UUID{testhelpers.FactID("actorName"), testhelpers.FactID("actorNameOld")}, ids)
	})
}

func TestObjectFactRepository_NoScope(t *testing.T) {
	tc := setupObjectFactTest(t)

	_, err := tc.repo.SearchFacts(context.Background(), &models.FactSearchCriteria{})
	assert.ErrorIs(t, err, errNoScope)
}

func TestTypeRepository(t *testing.T) {
	tc := setupObjectFactTest(t)
	ctx, cleanup := tc.createTestContext()
	defer cleanup()

	ot, err := tc.types.GetObjectType(ctx, tc.fixture.Object("ip1").TypeID)
	require.NoError(t, err)
	assert.Equal(t, "ipv4", ot.Name)

	ft, err := tc.types.GetFactType(ctx, tc.fixture.Fact("resolve1").TypeID)
	require.NoError(t, err)
	assert.Equal(t, "resolvesTo", ft.Name)

	missing, err := tc.types.GetObjectType(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)

	byName, err := tc.types.GetFactTypesByNames(ctx, []string{"resolvesTo", "mentions", "nope"})
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "mentions", byName[0].Name)
	assert.Equal(t, "resolvesTo", byName[1].Name)
}
