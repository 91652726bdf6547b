package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnemonic-no/grafeo-sub002/pkg/apperrors"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// ElementFactory resolves ids to vertices and edges and caches every element it builds,
// so that one id always maps to the same instance within a traversal.
// The cache lives and dies with its owning ActGraph and is not safe for concurrent use.
type ElementFactory struct {
	owner    *ActGraph
	vertices map[uuid.UUID]*ObjectVertex
	edges    map[uuid.UUID]*FactEdge
}

func newElementFactory(owner *ActGraph) *ElementFactory {
	return &ElementFactory{
		owner:    owner,
		vertices: make(map[uuid.UUID]*ObjectVertex),
		edges:    make(map[uuid.UUID]*FactEdge),
	}
}

// GetVertex returns the vertex of the Object identified by id.
// id may be any shape accepted by ActGraph. Missing Objects yield ErrNotFound.
func (f *ElementFactory) GetVertex(ctx context.Context, id any) (*ObjectVertex, error) {
	objectID, err := resolveID(id)
	if err != nil {
		return nil, err
	}

	if v, ok := f.vertices[objectID]; ok {
		return v, nil
	}

	record, err := f.owner.dao.GetObject(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectID, err)
	}
	if record == nil {
		return nil, fmt.Errorf("vertex with id = %s does not exist: %w", objectID, apperrors.ErrNotFound)
	}

	return f.vertexFromRecord(ctx, record)
}

// GetEdge returns the edge of the Fact identified by id.
// Facts that do not exist, are not readable, are hidden retractions or cannot form an edge
// all yield the same ErrNotFound.
func (f *ElementFactory) GetEdge(ctx context.Context, id any) (*FactEdge, error) {
	factID, err := resolveID(id)
	if err != nil {
		return nil, err
	}

	if e, ok := f.edges[factID]; ok {
		return e, nil
	}

	fact, err := f.owner.dao.GetFact(ctx, factID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fact %s: %w", factID, err)
	}

	notFound := fmt.Errorf("edge with id = %s does not exist: %w", factID, apperrors.ErrNotFound)
	if fact == nil || !fact.IsTwoLegged() || fact.IsLoop() {
		return nil, notFound
	}
	if !f.owner.readable(fact) {
		return nil, notFound
	}

	return f.CreateEdge(ctx, fact, fact.SourceObject.ID)
}

// CreateEdge builds the edge for an already fetched Fact as seen from the pivot Object.
// The endpoint opposite the pivot is resolved through the vertex cache.
func (f *ElementFactory) CreateEdge(ctx context.Context, fact *models.FactRecord, pivotObjectID uuid.UUID) (*FactEdge, error) {
	if fact == nil {
		return nil, fmt.Errorf("%w: fact is nil", apperrors.ErrInvalidArgument)
	}

	if e, ok := f.edges[fact.ID]; ok {
		return e, nil
	}

	if !fact.IsTwoLegged() || fact.IsLoop() {
		return nil, fmt.Errorf("%w: fact %s does not bind two distinct objects", apperrors.ErrInvalidArgument, fact.ID)
	}
	if pivotObjectID != fact.SourceObject.ID && pivotObjectID != fact.DestinationObject.ID {
		return nil, fmt.Errorf("%w: object %s is not bound to fact %s", apperrors.ErrInvalidArgument, pivotObjectID, fact.ID)
	}

	factType, err := f.owner.typeResolver.ToFactTypeStruct(ctx, fact.TypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fact type %s: %w", fact.TypeID, err)
	}
	if factType == nil {
		return nil, fmt.Errorf("fact type with id = %s does not exist: %w", fact.TypeID, apperrors.ErrNotFound)
	}

	source, err := f.endpoint(ctx, fact.SourceObject)
	if err != nil {
		return nil, err
	}
	destination, err := f.endpoint(ctx, fact.DestinationObject)
	if err != nil {
		return nil, err
	}

	e := NewFactEdge(f.owner, fact, factType, source, destination)
	f.edges[fact.ID] = e

	return e, nil
}

// endpoint returns the cached vertex for an Object bound to a Fact. The record embedded in
// the Fact is used when complete, otherwise the Object is fetched from the store.
func (f *ElementFactory) endpoint(ctx context.Context, object *models.ObjectRecord) (*ObjectVertex, error) {
	if v, ok := f.vertices[object.ID]; ok {
		return v, nil
	}
	if object.TypeID == uuid.Nil {
		return f.GetVertex(ctx, object.ID)
	}
	return f.vertexFromRecord(ctx, object)
}

func (f *ElementFactory) vertexFromRecord(ctx context.Context, record *models.ObjectRecord) (*ObjectVertex, error) {
	if v, ok := f.vertices[record.ID]; ok {
		return v, nil
	}

	objectType, err := f.owner.typeResolver.ToObjectTypeStruct(ctx, record.TypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve object type %s: %w", record.TypeID, err)
	}
	if objectType == nil {
		return nil, fmt.Errorf("object type with id = %s does not exist: %w", record.TypeID, apperrors.ErrNotFound)
	}

	v := NewObjectVertex(f.owner, record, objectType)
	f.vertices[record.ID] = v

	if n := len(f.vertices); n%10_000 == 0 {
		f.owner.logger.Warn("Element cache is growing large", zap.Int("vertices", n), zap.Int("edges", len(f.edges)))
	}

	return v, nil
}
