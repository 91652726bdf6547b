package graph

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/apperrors"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

const vertexValueKey = "value"

// ObjectVertex is the vertex view of an Object.
type ObjectVertex struct {
	graph      *ActGraph
	object     *models.ObjectRecord
	objectType *models.ObjectTypeStruct
	enrichment enrichment
}

var _ Vertex = (*ObjectVertex)(nil)

// NewObjectVertex creates a vertex. It panics if any argument is missing.
// Use ElementFactory to obtain cached vertices instead of calling this directly.
func NewObjectVertex(graph *ActGraph, object *models.ObjectRecord, objectType *models.ObjectTypeStruct) *ObjectVertex {
	if graph == nil {
		panic("graph: ObjectVertex requires a graph")
	}
	if object == nil {
		panic("graph: ObjectVertex requires an object record")
	}
	if objectType == nil {
		panic("graph: ObjectVertex requires an object type")
	}
	return &ObjectVertex{graph: graph, object: object, objectType: objectType}
}

func (v *ObjectVertex) ID() uuid.UUID { return v.object.ID }

// Label is the name of the Object's type.
func (v *ObjectVertex) Label() string { return v.objectType.Name }

func (v *ObjectVertex) Graph() *ActGraph { return v.graph }

// Record returns the Object backing this vertex.
func (v *ObjectVertex) Record() *models.ObjectRecord { return v.object }

func (v *ObjectVertex) Equal(other Element) bool {
	o, ok := other.(Vertex)
	return ok && !isNilElement(o) && o.ID() == v.ID()
}

func (v *ObjectVertex) String() string {
	return fmt.Sprintf("v[%s]", v.ID())
}

// Edges lazily yields the edges of this vertex in the given direction, restricted to Facts
// whose type name is one of labels. Each range issues one search; stop ranging to cancel.
func (v *ObjectVertex) Edges(ctx context.Context, direction Direction, labels ...string) iter.Seq2[Edge, error] {
	return func(yield func(Edge, error) bool) {
		for e, err := range v.factEdges(ctx, direction, labels) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Vertices lazily yields the vertex opposite this one for every edge Edges would yield.
func (v *ObjectVertex) Vertices(ctx context.Context, direction Direction, labels ...string) iter.Seq2[Vertex, error] {
	return func(yield func(Vertex, error) bool) {
		for e, err := range v.factEdges(ctx, direction, labels) {
			if err != nil {
				yield(nil, err)
				return
			}
			other := e.out
			if other.ID() == v.ID() {
				other = e.in
			}
			if !yield(other, nil) {
				return
			}
		}
	}
}

func (v *ObjectVertex) factEdges(ctx context.Context, direction Direction, labels []string) iter.Seq2[*FactEdge, error] {
	return func(yield func(*FactEdge, error) bool) {
		g := v.graph

		var factTypeIDs []uuid.UUID
		if len(labels) > 0 {
			ids, err := g.typeResolver.FactTypeNamesToIDs(ctx, labels)
			if err != nil {
				yield(nil, fmt.Errorf("failed to resolve fact types %v: %w", labels, err))
				return
			}
			// None of the labels exist, so nothing can match.
			if len(ids) == 0 {
				return
			}
			factTypeIDs = ids
		}

		criteria := g.params.adjacencySearchCriteria(v.ID(), factTypeIDs)
		g.observer.SearchIssued(SearchKindAdjacency)
		result, err := g.dao.SearchFacts(ctx, criteria)
		if err != nil {
			yield(nil, fmt.Errorf("failed to search facts bound to object %s: %w", v.ID(), err))
			return
		}

		for fact, err := range result.Values() {
			if err != nil {
				yield(nil, fmt.Errorf("failed to read facts bound to object %s: %w", v.ID(), err))
				return
			}
			if fact == nil || !g.readable(fact) {
				continue
			}
			if !MatchesDirection(fact, v.ID(), direction) {
				g.observer.FactFiltered(FilterReasonDirection)
				continue
			}

			e, err := g.elementFactory().CreateEdge(ctx, fact, v.ID())
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Properties returns "value" followed by enrichment properties, if a PropertyHelper is configured.
func (v *ObjectVertex) Properties(ctx context.Context, keys ...string) ([]Property, error) {
	props := []Property{{Key: vertexValueKey, Value: v.object.Value}}

	if v.graph.propertyHelper != nil && wantsEnrichment(keys, isVertexEnrichmentKey) {
		extra, err := v.enrichment.get(ctx, v.loadEnrichment, isVertexStaticKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load properties of vertex %s: %w", v.ID(), err)
		}
		props = append(props, extra...)
	}

	return selectProperties(props, keys), nil
}

func (v *ObjectVertex) Value(ctx context.Context, key string) (any, error) {
	props, err := v.Properties(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: vertex %s has no property %q", apperrors.ErrInvalidState, v.ID(), key)
	}
	return props[0].Value, nil
}

func (v *ObjectVertex) Keys(ctx context.Context) ([]string, error) {
	props, err := v.Properties(ctx)
	if err != nil {
		return nil, err
	}
	return propertyKeys(props), nil
}

func (v *ObjectVertex) loadEnrichment(ctx context.Context) ([]PropertyEntry, error) {
	return v.graph.propertyHelper.ObjectProperties(ctx, v.object, v.graph.params)
}

func isVertexStaticKey(key string) bool { return key == vertexValueKey }

func isVertexEnrichmentKey(key string) bool { return key != vertexValueKey }
