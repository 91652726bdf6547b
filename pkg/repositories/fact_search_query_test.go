package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

func TestBuildFactSearchQuery_Empty(t *testing.T) {
	query, args := buildFactSearchQuery(&models.FactSearchCriteria{})

	assert.Contains(t, query, "NOT f.retracted")
	assert.Contains(t, query, "(f.access_mode = 'Public')")
	assert.Contains(t, query, "ORDER BY f.last_seen_timestamp DESC, f.id")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestBuildFactSearchQuery_ObjectAndTypeFilters(t *testing.T) {
	objectID := uuid.New()
	typeIDs := []uuid.UUID{uuid.New(), uuid.New()}

	query, args := buildFactSearchQuery(&models.FactSearchCriteria{
		ObjectID:   []uuid.UUID{objectID},
		FactTypeID: typeIDs,
		Limit:      25,
	})

	assert.Contains(t, query, "f.type_id = ANY($1)")
	assert.Contains(t, query, "(f.source_object_id = ANY($2) OR f.destination_object_id = ANY($2))")
	assert.Contains(t, query, "LIMIT $3")
	require.Len(t, args, 3)
	assert.Equal(t, typeIDs, args[0])
	assert.Equal(t, []uuid.UUID{objectID}, args[1])
	assert.Equal(t, 25, args[2])
}

func TestBuildFactSearchQuery_IncludeRetracted(t *testing.T) {
	query, _ := buildFactSearchQuery(&models.FactSearchCriteria{IncludeRetracted: true})
	assert.NotContains(t, query, "NOT f.retracted")

	query, _ = buildFactSearchQuery(&models.FactSearchCriteria{IncludeRetracted: false})
	assert.Contains(t, query, "NOT f.retracted")
}

func TestBuildFactSearchQuery_FactBinding(t *testing.T) {
	tests := map[models.FactBinding]string{
		models.FactBindingMeta:      "f.source_object_id IS NULL AND f.destination_object_id IS NULL",
		models.FactBindingOneLegged: "(f.source_object_id IS NULL) <> (f.destination_object_id IS NULL)",
		models.FactBindingTwoLegged: "f.source_object_id IS NOT NULL AND f.destination_object_id IS NOT NULL",
	}
	for binding, want := range tests {
		query, _ := buildFactSearchQuery(&models.FactSearchCriteria{FactBinding: binding})
		assert.Contains(t, query, want, binding)
	}
}

func TestBuildFactSearchQuery_TimeWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("default field", func(t *testing.T) {
		query, args := buildFactSearchQuery(&models.FactSearchCriteria{StartTimestamp: &start})
		assert.Contains(t, query, "((f.last_seen_timestamp >= $1))")
		assert.Equal(t, start, args[0])
	})

	t.Run("all fields match any", func(t *testing.T) {
		query, args := buildFactSearchQuery(&models.FactSearchCriteria{
			StartTimestamp:    &start,
			EndTimestamp:      &end,
			TimeFieldStrategy: []models.TimeFieldStrategy{models.TimeFieldAll},
		})
		assert.Contains(t, query,
			"((f.timestamp >= $1 AND f.timestamp <= $2) OR (f.last_seen_timestamp >= $1 AND f.last_seen_timestamp <= $2))")
		assert.Equal(t, []any{start, end}, args)
	})

	t.Run("all fields match all", func(t *testing.T) {
		query, _ := buildFactSearchQuery(&models.FactSearchCriteria{
			EndTimestamp:      &end,
			TimeFieldStrategy: []models.TimeFieldStrategy{models.TimeFieldTimestamp, models.TimeFieldLastSeenTimestamp},
			TimeMatchStrategy: models.MatchAll,
		})
		assert.Contains(t, query, "((f.timestamp <= $1) AND (f.last_seen_timestamp <= $1))")
	})

	t.Run("unknown fields", func(t *testing.T) {
		query, _ := buildFactSearchQuery(&models.FactSearchCriteria{
			StartTimestamp:    &start,
			TimeFieldStrategy: []models.TimeFieldStrategy{"created"},
		})
		assert.NotContains(t, query, "created")
	})
}

func TestBuildFactSearchQuery_AccessControl(t *testing.T) {
	org := uuid.New()
	user := uuid.New()

	query, args := buildFactSearchQuery(&models.FactSearchCriteria{
		AccessControl: models.AccessControlCriteria{
			CurrentUserIdentities:    []uuid.UUID{user},
			AvailableOrganizationIDs: []uuid.UUID{org},
		},
	})

	assert.Contains(t, query, "f.access_mode = 'Public'")
	assert.Contains(t, query, "(f.access_mode = 'RoleBased' AND f.organization_id = ANY($1))")
	assert.Contains(t, query, "a.subject_id = ANY($2)")
	assert.Equal(t, []any{[]uuid.UUID{org}, []uuid.UUID{user}}, args)
}

func TestBuildFactSearchQuery_PlaceholdersMatchArgs(t *testing.T) {
	start := time.Now()
	query, args := buildFactSearchQuery(&models.FactSearchCriteria{
		FactID:         []uuid.UUID{uuid.New()},
		FactTypeID:     []uuid.UUID{uuid.New()},
		ObjectID:       []uuid.UUID{uuid.New()},
		InReferenceTo:  []uuid.UUID{uuid.New()},
		StartTimestamp: &start,
		Limit:          10,
		AccessControl: models.AccessControlCriteria{
			CurrentUserIdentities:    []uuid.UUID{uuid.New()},
			AvailableOrganizationIDs: []uuid.UUID{uuid.New()},
		},
	})

	require.Len(t, args, 8)
	for i := 1; i <= len(args); i++ {
		assert.Contains(t, query, fmt.Sprintf("$%d", i))
	}
	assert.NotContains(t, query, "$9")
}
