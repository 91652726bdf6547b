//go:build integration

package testhelpers

import (
	"context"
	"testing"
)

func TestTestDB_Migrated(t *testing.T) {
	testDB := GetTestDB(t)

	ctx := context.Background()

	tests := []string{"object_types", "fact_types", "objects", "facts", "fact_acl"}

	for _, table := range tests {
		var exists bool
		err := testDB.DB.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
			table).Scan(&exists)
		if err != nil {
			t.Errorf("failed to check %s: %v", table, err)
			continue
		}
		if !exists {
			t.Errorf("expected table %s to exist after migrations", table)
		}
	}
}
