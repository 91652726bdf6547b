// Package graph exposes the Object/Fact model as a read-only property graph.
//
// Objects become vertices and two-legged Facts become edges. Adjacency is never materialised:
// every expansion of a vertex issues one search against the object/fact store and filters the
// result by read permission, retraction status and direction before any element is built.
// One ActGraph serves exactly one traversal and must not be shared between goroutines.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnemonic-no/grafeo-sub002/pkg/apperrors"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// ObjectFactDao is the read side of the object/fact store.
// GetObject and GetFact return (nil, nil) when the record does not exist.
type ObjectFactDao interface {
	GetObject(ctx context.Context, id uuid.UUID) (*models.ObjectRecord, error)
	GetFact(ctx context.Context, id uuid.UUID) (*models.FactRecord, error)
	SearchFacts(ctx context.Context, criteria *models.FactSearchCriteria) (*models.ResultContainer[*models.FactRecord], error)
}

// TypeResolver translates between type ids and type names.
// FactTypeNamesToIDs silently drops names it does not know.
type TypeResolver interface {
	ToObjectTypeStruct(ctx context.Context, id uuid.UUID) (*models.ObjectTypeStruct, error)
	ToFactTypeStruct(ctx context.Context, id uuid.UUID) (*models.FactTypeStruct, error)
	FactTypeNamesToIDs(ctx context.Context, names []string) ([]uuid.UUID, error)
}

// SecurityContext decides whether the current user may read a Fact.
type SecurityContext interface {
	HasReadPermission(fact *models.FactRecord) bool
}

// PropertyEntry is an enrichment property with the timestamp used to pick
// the newest entry when several share a key.
type PropertyEntry struct {
	Key       string
	Value     any
	Timestamp int64
}

// PropertyHelper supplies enrichment properties beyond those stored on the records.
type PropertyHelper interface {
	ObjectProperties(ctx context.Context, object *models.ObjectRecord, params *TraverseParams) ([]PropertyEntry, error)
	FactProperties(ctx context.Context, fact *models.FactRecord, params *TraverseParams) ([]PropertyEntry, error)
}

// Observer receives traversal events. Implementations must be cheap and non-blocking.
type Observer interface {
	SearchIssued(kind string)
	FactFiltered(reason string)
}

// Search kinds and filter reasons reported to the Observer.
const (
	SearchKindAdjacency = "adjacency"

	FilterReasonAccessDenied = "access_denied"
	FilterReasonRetracted    = "retracted"
	FilterReasonDirection    = "direction"
)

type nopObserver struct{}

func (nopObserver) SearchIssued(string) {}
func (nopObserver) FactFiltered(string) {}

// ActGraph binds one store, type resolver, security context and set of traverse
// parameters for the lifetime of a single traversal.
type ActGraph struct {
	dao             ObjectFactDao
	typeResolver    TypeResolver
	securityContext SecurityContext
	params          *TraverseParams
	propertyHelper  PropertyHelper
	observer        Observer
	logger          *zap.Logger
	factory         *ElementFactory
}

// Option configures optional ActGraph collaborators.
type Option func(*ActGraph)

// WithPropertyHelper enables enrichment properties on vertices and edges.
func WithPropertyHelper(helper PropertyHelper) Option {
	return func(g *ActGraph) {
		g.propertyHelper = helper
	}
}

// WithObserver reports searches and filtered Facts to o.
func WithObserver(o Observer) Option {
	return func(g *ActGraph) {
		if o != nil {
			g.observer = o
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *ActGraph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewActGraph creates a graph for one traversal.
func NewActGraph(
	dao ObjectFactDao,
	typeResolver TypeResolver,
	securityContext SecurityContext,
	params *TraverseParams,
	opts ...Option,
) (*ActGraph, error) {
	if dao == nil {
		return nil, fmt.Errorf("%w: object fact dao is nil", apperrors.ErrInvalidArgument)
	}
	if typeResolver == nil {
		return nil, fmt.Errorf("%w: type resolver is nil", apperrors.ErrInvalidArgument)
	}
	if securityContext == nil {
		return nil, fmt.Errorf("%w: security context is nil", apperrors.ErrInvalidArgument)
	}
	if params == nil {
		return nil, fmt.Errorf("%w: traverse params is nil", apperrors.ErrInvalidArgument)
	}

	g := &ActGraph{
		dao:             dao,
		typeResolver:    typeResolver,
		securityContext: securityContext,
		params:          params,
		observer:        nopObserver{},
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.factory = newElementFactory(g)

	return g, nil
}

// Vertices resolves the given ids to vertices, de-duplicated in first-seen order.
// Calling it without ids is refused: the graph never scans all Objects.
func (g *ActGraph) Vertices(ctx context.Context, ids ...any) ([]Vertex, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: V() without ids", apperrors.ErrGraphOperation)
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	vertices := make([]Vertex, 0, len(ids))
	for _, id := range ids {
		v, err := g.elementFactory().GetVertex(ctx, id)
		if err != nil {
			return nil, err
		}
		if seen[v.ID()] {
			continue
		}
		seen[v.ID()] = true
		vertices = append(vertices, v)
	}
	return vertices, nil
}

// Edges resolves the given ids to edges, de-duplicated in first-seen order.
// Calling it without ids is refused: the graph never scans all Facts.
func (g *ActGraph) Edges(ctx context.Context, ids ...any) ([]Edge, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: E() without ids", apperrors.ErrGraphOperation)
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	edges := make([]Edge, 0, len(ids))
	for _, id := range ids {
		e, err := g.elementFactory().GetEdge(ctx, id)
		if err != nil {
			return nil, err
		}
		if seen[e.ID()] {
			continue
		}
		seen[e.ID()] = true
		edges = append(edges, e)
	}
	return edges, nil
}

// TraverseParams returns the parameters this graph was created with.
func (g *ActGraph) TraverseParams() *TraverseParams {
	return g.params
}

func (g *ActGraph) String() string {
	return "actgraph[" + g.params.String() + "]"
}

// elementFactory returns the per-graph cache that vertices and edges are created through.
func (g *ActGraph) elementFactory() *ElementFactory {
	return g.factory
}

// readable applies the read-permission and retraction policy to a Fact.
// Rejections are reported to the observer, never returned as errors.
func (g *ActGraph) readable(fact *models.FactRecord) bool {
	if !g.securityContext.HasReadPermission(fact) {
		g.observer.FactFiltered(FilterReasonAccessDenied)
		return false
	}
	if fact.Retracted && !g.params.IncludeRetracted() {
		g.observer.FactFiltered(FilterReasonRetracted)
		return false
	}
	return true
}

// IsNotFound reports whether err means an element does not exist or is not visible.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
