package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mnemonic-no/grafeo-sub002/pkg/database"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// TypeRepository provides read access to ObjectTypes and FactTypes.
type TypeRepository interface {
	GetObjectType(ctx context.Context, id uuid.UUID) (*models.ObjectTypeStruct, error)
	GetFactType(ctx context.Context, id uuid.UUID) (*models.FactTypeStruct, error)
	GetFactTypesByNames(ctx context.Context, names []string) ([]*models.FactTypeStruct, error)
}

type typeRepository struct{}

// NewTypeRepository creates a new TypeRepository.
func NewTypeRepository() TypeRepository {
	return &typeRepository{}
}

var _ TypeRepository = (*typeRepository)(nil)

func (r *typeRepository) GetObjectType(ctx context.Context, id uuid.UUID) (*models.ObjectTypeStruct, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	var t models.ObjectTypeStruct
	err := scope.Conn.QueryRow(ctx, `SELECT id, name FROM object_types WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get object type: %w", err)
	}
	return &t, nil
}

func (r *typeRepository) GetFactType(ctx context.Context, id uuid.UUID) (*models.FactTypeStruct, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	var t models.FactTypeStruct
	err := scope.Conn.QueryRow(ctx, `SELECT id, name FROM fact_types WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fact type: %w", err)
	}
	return &t, nil
}

// GetFactTypesByNames returns the FactTypes with the given names. Unknown names are skipped.
func (r *typeRepository) GetFactTypesByNames(ctx context.Context, names []string) ([]*models.FactTypeStruct, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	if len(names) == 0 {
		return []*models.FactTypeStruct{}, nil
	}

	rows, err := scope.Conn.Query(ctx, `SELECT id, name FROM fact_types WHERE name = ANY($1) ORDER BY name`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to query fact types: %w", err)
	}
	defer rows.Close()

	types := make([]*models.FactTypeStruct, 0, len(names))
	for rows.Next() {
		var t models.FactTypeStruct
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan fact type: %w", err)
		}
		types = append(types, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fact types: %w", err)
	}

	return types, nil
}
