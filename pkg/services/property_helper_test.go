package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
	"github.com/mnemonic-no/grafeo-sub002/pkg/testhelpers"
)

func entriesByKey(entries []graph.PropertyEntry) map[string][]any {
	out := make(map[string][]any)
	for _, e := range entries {
		out[e.Key] = append(out[e.Key], e.Value)
	}
	return out
}

func TestPropertyHelper_ObjectProperties(t *testing.T) {
	fx := testhelpers.LoadFixture(t, "threat_graph")
	sc := NewSecurityContext(testhelpers.SubjectID("alice"), nil)
	helper := NewPropertyHelper(fx.Dao, fx.Types, sc)
	params := graph.NewTraverseParams(graph.WithLimit(1))

	entries, err := helper.ObjectProperties(context.Background(), fx.Object("actor"), params)
	require.NoError(t, err)

	// Both names are returned; picking the newest is up to the element.
	assert.ElementsMatch(t, []any{"APT28", "Fancy Bear"}, entriesByKey(entries)["name"])
	for _, e := range entries {
		if e.Value == "APT28" {
			assert.Equal(t, fx.Fact("actorName").LastSeenTimestamp.UnixMilli(), e.Timestamp)
		}
	}

	searches := fx.Dao.Searches()
	require.Len(t, searches, 1)
	assert.Equal(t, models.FactBindingOneLegged, searches[0].FactBinding)
	assert.Equal(t, propertySearchLimit, searches[0].Limit)
	assert.Equal(t, []uuid.UUID{testhelpers.ObjectID("actor")}, searches[0].ObjectID)
}

func TestPropertyHelper_ObjectPropertiesTimeWindow(t *testing.T) {
	fx := testhelpers.LoadFixture(t, "threat_graph")
	helper := NewPropertyHelper(fx.Dao, fx.Types, NewSecurityContext(uuid.New(), nil))

	after := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	entries, err := helper.ObjectProperties(context.Background(), fx.Object("actor"), graph.NewTraverseParams(graph.WithTimeWindow(&after, nil)))
	require.NoError(t, err)
	assert.Equal(t, map[string][]any{"name": {"APT28"}}, entriesByKey(entries))
}

func TestPropertyHelper_FactProperties(t *testing.T) {
	fx := testhelpers.LoadFixture(t, "threat_graph")
	helper := NewPropertyHelper(fx.Dao, fx.Types, NewSecurityContext(uuid.New(), nil))
	params := graph.NewTraverseParams()

	entries, err := helper.FactProperties(context.Background(), fx.Fact("resolve1"), params)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "meta/comment", entries[0].Key)
	assert.Equal(t, "seen in phishing campaign", entries[0].Value)

	none, err := helper.FactProperties(context.Background(), fx.Fact("resolve3"), params)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPropertyHelper_SkipsUnreadableAndRetracted(t *testing.T) {
	fx := testhelpers.LoadFixture(t, "threat_graph")
	bob := testhelpers.SubjectID("bob")
	actor := fx.Object("actor")
	nameType := fx.Fact("actorName").TypeID
	hidden := "Strontium"
	retractedValue := "Sednit"

	fx.Dao.AddFact(&models.FactRecord{
		ID: uuid.New(), TypeID: nameType, Value: &hidden, SourceObject: actor,
		AccessMode: models.AccessModeExplicit, ACL: []uuid.UUID{bob},
		Timestamp: time.Now(), LastSeenTimestamp: time.Now(),
	})
	fx.Dao.AddFact(&models.FactRecord{
		ID: uuid.New(), TypeID: nameType, Value: &retractedValue, SourceObject: actor,
		AccessMode: models.AccessModePublic, Retracted: true,
		Timestamp: time.Now(), LastSeenTimestamp: time.Now(),
	})

	// The store would return bob's fact for these criteria; the security context must still drop it.
	base := &models.FactSearchCriteria{AccessControl: models.AccessControlCriteria{CurrentUserIdentities: []uuid.UUID{bob}}}
	sc := NewSecurityContext(testhelpers.SubjectID("alice"), nil)
	helper := NewPropertyHelper(fx.Dao, fx.Types, sc)

	entries, err := helper.ObjectProperties(context.Background(), actor,
		graph.NewTraverseParams(graph.WithBaseSearchCriteria(base)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"APT28", "Fancy Bear"}, entriesByKey(entries)["name"])

	withRetracted, err := helper.ObjectProperties(context.Background(), actor,
		graph.NewTraverseParams(graph.WithBaseSearchCriteria(base), graph.WithIncludeRetracted(true)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"APT28", "Fancy Bear", "Sednit"}, entriesByKey(withRetracted)["name"])
}

type failingDao struct {
	graph.ObjectFactDao
	err error
}

func (d failingDao) SearchFacts(context.Context, *models.FactSearchCriteria) (*models.ResultContainer[*models.FactRecord], error) {
	return nil, d.err
}

func TestPropertyHelper_SearchError(t *testing.T) {
	fx := testhelpers.LoadFixture(t, "threat_graph")
	dao := failingDao{err: errors.New("connection reset")}
	helper := NewPropertyHelper(dao, fx.Types, NewSecurityContext(uuid.New(), nil))

	_, err := helper.ObjectProperties(context.Background(), fx.Object("actor"), graph.NewTraverseParams())
	assert.ErrorIs(t, err, dao.err)
}
