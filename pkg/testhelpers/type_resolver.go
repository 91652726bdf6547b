package testhelpers

import (
	"context"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// FixedTypeResolver resolves types from a fixed in-memory set.
type FixedTypeResolver struct {
	ObjectTypes map[uuid.UUID]*models.ObjectTypeStruct
	FactTypes   map[uuid.UUID]*models.FactTypeStruct
}

var _ graph.TypeResolver = (*FixedTypeResolver)(nil)

// NewFixedTypeResolver creates a resolver over the given types.
func NewFixedTypeResolver(objectTypes []*models.ObjectTypeStruct, factTypes []*models.FactTypeStruct) *FixedTypeResolver {
	r := &FixedTypeResolver{
		ObjectTypes: make(map[uuid.UUID]*models.ObjectTypeStruct, len(objectTypes)),
		FactTypes:   make(map[uuid.UUID]*models.FactTypeStruct, len(factTypes)),
	}
	for _, t := range objectTypes {
		r.ObjectTypes[t.ID] = t
	}
	for _, t := range factTypes {
		r.FactTypes[t.ID] = t
	}
	return r
}

func (r *FixedTypeResolver) ToObjectTypeStruct(_ context.Context, id uuid.UUID) (*models.ObjectTypeStruct, error) {
	return r.ObjectTypes[id], nil
}

func (r *FixedTypeResolver) ToFactTypeStruct(_ context.Context, id uuid.UUID) (*models.FactTypeStruct, error) {
	return r.FactTypes[id], nil
}

// FactTypeNamesToIDs drops unknown names.
func (r *FixedTypeResolver) FactTypeNamesToIDs(_ context.Context, names []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		for id, t := range r.FactTypes {
			if t.Name == name {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}
