package testhelpers

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/mnemonic-no/grafeo-sub002/pkg/database"
)

// SeedFixture writes a fixture into the test database. Ids are stable, so seeding the
// same fixture twice is a no-op.
func SeedFixture(t *testing.T, db *database.DB, fx *Fixture) {
	t.Helper()

	ctx := context.Background()
	scope, err := db.WriteScope(ctx)
	if err != nil {
		t.Fatalf("failed to acquire write scope: %v", err)
	}
	defer scope.Close()

	batch := &pgx.Batch{}
	for _, ot := range fx.Types.ObjectTypes {
		batch.Queue(`INSERT INTO object_types (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, ot.ID, ot.Name)
	}
	for _, ft := range fx.Types.FactTypes {
		batch.Queue(`INSERT INTO fact_types (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, ft.ID, ft.Name)
	}
	for _, o := range fx.objects {
		batch.Queue(`INSERT INTO objects (id, type_id, value) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, o.ID, o.TypeID, o.Value)
	}

	// Referenced facts go first to satisfy in_reference_to_id.
	for _, pass := range []bool{false, true} {
		for _, f := range fx.facts {
			if (f.InReferenceToID != nil) != pass {
				continue
			}
			var sourceID, destinationID any
			if f.SourceObject != nil {
				sourceID = f.SourceObject.ID
			}
			if f.DestinationObject != nil {
				destinationID = f.DestinationObject.ID
			}
			batch.Queue(`
				INSERT INTO facts (id, type_id, value, in_reference_to_id, organization_id, origin_id,
				                   trust, confidence, access_mode, timestamp, last_seen_timestamp,
				                   source_object_id, destination_object_id, bidirectional_binding, retracted)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
				ON CONFLICT DO NOTHING`,
				f.ID, f.TypeID, f.Value, f.InReferenceToID, f.OrganizationID, f.OriginID,
				f.Trust, f.Confidence, string(f.AccessMode), f.Timestamp, f.LastSeenTimestamp,
				sourceID, destinationID, f.BidirectionalBinding, f.Retracted)
			for _, subject := range f.ACL {
				batch.Queue(`INSERT INTO fact_acl (fact_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, f.ID, subject)
			}
		}
	}

	if err := scope.Conn.SendBatch(ctx, batch).Close(); err != nil {
		t.Fatalf("failed to seed fixture: %v", err)
	}
}
