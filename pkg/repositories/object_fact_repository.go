package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mnemonic-no/grafeo-sub002/pkg/database"
	"github.com/mnemonic-no/grafeo-sub002/pkg/logging"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// ObjectFactRepository provides read access to Objects and Facts.
type ObjectFactRepository interface {
	GetObject(ctx context.Context, id uuid.UUID) (*models.ObjectRecord, error)
	GetFact(ctx context.Context, id uuid.UUID) (*models.FactRecord, error)
	SearchFacts(ctx context.Context, criteria *models.FactSearchCriteria) (*models.ResultContainer[*models.FactRecord], error)
}

type objectFactRepository struct {
	logger *zap.Logger
}

// NewObjectFactRepository creates a new ObjectFactRepository.
func NewObjectFactRepository(logger *zap.Logger) ObjectFactRepository {
	return &objectFactRepository{logger: logger}
}

var _ ObjectFactRepository = (*objectFactRepository)(nil)

var errNoScope = errors.New("no database scope in context")

func (r *objectFactRepository) GetObject(ctx context.Context, id uuid.UUID) (*models.ObjectRecord, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	query := `SELECT id, type_id, value FROM objects WHERE id = $1`

	var o models.ObjectRecord
	err := scope.Conn.QueryRow(ctx, query, id).Scan(&o.ID, &o.TypeID, &o.Value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Object not found
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return &o, nil
}

func (r *objectFactRepository) GetFact(ctx context.Context, id uuid.UUID) (*models.FactRecord, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	query := factColumns + `
		WHERE f.id = $1`

	fact, err := scanFact(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Fact not found
		}
		return nil, err
	}

	return fact, nil
}

// SearchFacts runs the search and buffers the page bounded by criteria.Limit, so the
// connection is free again before the caller starts consuming results.
func (r *objectFactRepository) SearchFacts(ctx context.Context, criteria *models.FactSearchCriteria) (*models.ResultContainer[*models.FactRecord], error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}
	if criteria == nil {
		criteria = &models.FactSearchCriteria{}
	}

	query, args := buildFactSearchQuery(criteria)
	start := time.Now()

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Fact search failed",
			zap.String("query", logging.SanitizeQuery(query)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("failed to search facts: %w", err)
	}
	defer rows.Close()

	var facts []*models.FactRecord
	for rows.Next() {
		fact, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facts: %w", err)
	}

	r.logger.Debug("Fact search",
		zap.Int("results", len(facts)),
		zap.Int("limit", criteria.Limit),
		zap.Duration("duration", time.Since(start)))

	return models.ResultContainerOf(facts...), nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func scanFact(row pgx.Row) (*models.FactRecord, error) {
	var f models.FactRecord
	var accessMode string
	var sourceID, sourceTypeID, destinationID, destinationTypeID *uuid.UUID
	var sourceValue, destinationValue *string

	err := row.Scan(
		&f.ID,
		&f.TypeID,
		&f.Value,
		&f.InReferenceToID,
		&f.OrganizationID,
		&f.OriginID,
		&f.Trust,
		&f.Confidence,
		&accessMode,
		&f.Timestamp,
		&f.LastSeenTimestamp,
		&f.BidirectionalBinding,
		&f.Retracted,
		&sourceID,
		&sourceTypeID,
		&sourceValue,
		&destinationID,
		&destinationTypeID,
		&destinationValue,
		&f.ACL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan fact: %w", err)
	}

	f.AccessMode = models.AccessMode(accessMode)
	f.SourceObject = objectFromColumns(sourceID, sourceTypeID, sourceValue)
	f.DestinationObject = objectFromColumns(destinationID, destinationTypeID, destinationValue)

	return &f, nil
}

func objectFromColumns(id, typeID *uuid.UUID, value *string) *models.ObjectRecord {
	if id == nil {
		return nil
	}
	o := &models.ObjectRecord{ID: *id}
	if typeID != nil {
		o.TypeID = *typeID
	}
	if value != nil {
		o.Value = *value
	}
	return o
}
