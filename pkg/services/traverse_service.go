package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnemonic-no/grafeo-sub002/pkg/apperrors"
	"github.com/mnemonic-no/grafeo-sub002/pkg/config"
	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// TraverseStep expands the current frontier one hop.
type TraverseStep struct {
	Direction graph.Direction
	Labels    []string // Fact type names; empty means all
}

// TraverseRequest starts at Objects and applies Steps in order.
type TraverseRequest struct {
	Objects           []string
	Steps             []TraverseStep
	After             *time.Time
	Before            *time.Time
	TimeFieldStrategy []models.TimeFieldStrategy
	TimeMatchStrategy models.MatchStrategy
	IncludeRetracted  bool
	Limit             int
}

// VertexView is a vertex with its properties resolved.
type VertexView struct {
	ID         uuid.UUID        `json:"id"`
	Label      string           `json:"label"`
	Properties []graph.Property `json:"properties"`
}

// EdgeView is an edge with its endpoints and properties resolved.
type EdgeView struct {
	ID         uuid.UUID        `json:"id"`
	Label      string           `json:"label"`
	OutV       uuid.UUID        `json:"outV"`
	InV        uuid.UUID        `json:"inV"`
	Properties []graph.Property `json:"properties"`
}

// TraverseResult is the subgraph visited by a traversal.
// Truncated is set when the result hit the configured maximum size.
type TraverseResult struct {
	Vertices  []VertexView `json:"vertices"`
	Edges     []EdgeView   `json:"edges"`
	Truncated bool         `json:"truncated"`
}

// TraverseService runs bounded fixed-hop traversals over the Object/Fact graph.
type TraverseService interface {
	TraverseByObjects(ctx context.Context, req *TraverseRequest) (*TraverseResult, error)
}

type traverseService struct {
	dao      graph.ObjectFactDao
	types    graph.TypeResolver
	cfg      config.TraverseConfig
	observer graph.Observer
	logger   *zap.Logger
}

// NewTraverseService creates a TraverseService. observer may be nil.
func NewTraverseService(dao graph.ObjectFactDao, types graph.TypeResolver, cfg config.TraverseConfig, observer graph.Observer, logger *zap.Logger) TraverseService {
	return &traverseService{
		dao:      dao,
		types:    types,
		cfg:      cfg,
		observer: observer,
		logger:   logger.Named("traverse"),
	}
}

var _ TraverseService = (*traverseService)(nil)

// subgraph collects visited elements in first-seen order, bounded by max elements.
type subgraph struct {
	vertices  []graph.Vertex
	edges     []graph.Edge
	seen      map[uuid.UUID]bool
	max       int
	truncated bool
}

// room reports whether n more elements fit, flagging truncation when they do not.
func (s *subgraph) room(n int) bool {
	if len(s.vertices)+len(s.edges)+n > s.max {
		s.truncated = true
		return false
	}
	return true
}

func (s *subgraph) addVertex(v graph.Vertex) {
	s.seen[v.ID()] = true
	s.vertices = append(s.vertices, v)
}

func (s *subgraph) addEdge(e graph.Edge) {
	s.seen[e.ID()] = true
	s.edges = append(s.edges, e)
}

func (s *traverseService) TraverseByObjects(ctx context.Context, req *TraverseRequest) (*TraverseResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	sc, err := SecurityContextFromContext(ctx)
	if err != nil {
		return nil, err
	}

	g, err := s.newGraph(req, sc)
	if err != nil {
		return nil, err
	}

	ids := make([]any, len(req.Objects))
	for i, id := range req.Objects {
		ids[i] = id
	}
	start, err := g.Vertices(ctx, ids...)
	if err != nil {
		return nil, err
	}

	visited := &subgraph{seen: make(map[uuid.UUID]bool), max: s.cfg.MaxResults}
	frontier := make([]graph.Vertex, 0, len(start))
	for _, v := range start {
		if !visited.room(1) {
			break
		}
		visited.addVertex(v)
		frontier = append(frontier, v)
	}

	for i, step := range req.Steps {
		if visited.truncated || len(frontier) == 0 {
			break
		}
		frontier, err = s.expand(ctx, frontier, step, visited)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	result, err := render(ctx, visited)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Traversal finished",
		zap.Int("steps", len(req.Steps)),
		zap.Int("vertices", len(result.Vertices)),
		zap.Int("edges", len(result.Edges)),
		zap.Bool("truncated", result.Truncated))

	return result, nil
}

func (s *traverseService) validate(req *TraverseRequest) error {
	if req == nil || len(req.Objects) == 0 {
		return fmt.Errorf("%w: at least one object is required", apperrors.ErrInvalidArgument)
	}
	if len(req.Steps) > s.cfg.MaxSteps {
		return fmt.Errorf("%w: %d steps requested, at most %d allowed", apperrors.ErrInvalidArgument, len(req.Steps), s.cfg.MaxSteps)
	}
	if req.Limit < 0 || req.Limit > s.cfg.MaxLimit {
		return fmt.Errorf("%w: limit must be between 0 and %d", apperrors.ErrInvalidArgument, s.cfg.MaxLimit)
	}
	if req.After != nil && req.Before != nil && req.After.After(*req.Before) {
		return fmt.Errorf("%w: after must not be later than before", apperrors.ErrInvalidArgument)
	}
	return nil
}

// newGraph builds the ActGraph for this request only; graphs are never shared.
func (s *traverseService) newGraph(req *TraverseRequest, sc SecurityContext) (*graph.ActGraph, error) {
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	match := req.TimeMatchStrategy
	if match == "" {
		match = models.MatchAny
	}

	params := graph.NewTraverseParams(
		graph.WithBaseSearchCriteria(&models.FactSearchCriteria{AccessControl: sc.AccessControlCriteria()}),
		graph.WithIncludeRetracted(req.IncludeRetracted),
		graph.WithTimeWindow(req.After, req.Before),
		graph.WithTimeFieldStrategy(match, req.TimeFieldStrategy...),
		graph.WithLimit(limit),
	)

	return graph.NewActGraph(s.dao, s.types, sc, params,
		graph.WithPropertyHelper(NewPropertyHelper(s.dao, s.types, sc)),
		graph.WithObserver(s.observer),
		graph.WithLogger(s.logger),
	)
}

// expand follows step from every frontier vertex and returns the newly reached vertices.
func (s *traverseService) expand(ctx context.Context, frontier []graph.Vertex, step TraverseStep, visited *subgraph) ([]graph.Vertex, error) {
	var next []graph.Vertex
	for _, v := range frontier {
		for e, err := range v.Edges(ctx, step.Direction, step.Labels...) {
			if err != nil {
				return nil, err
			}
			if visited.seen[e.ID()] {
				continue
			}

			other := e.OutVertex()
			if other.Equal(v) {
				other = e.InVertex()
			}
			reached := !visited.seen[other.ID()]

			need := 1
			if reached {
				need = 2
			}
			if !visited.room(need) {
				return next, nil
			}

			visited.addEdge(e)
			if reached {
				visited.addVertex(other)
				next = append(next, other)
			}
		}
	}
	return next, nil
}

func render(ctx context.Context, visited *subgraph) (*TraverseResult, error) {
	result := &TraverseResult{
		Vertices:  make([]VertexView, 0, len(visited.vertices)),
		Edges:     make([]EdgeView, 0, len(visited.edges)),
		Truncated: visited.truncated,
	}

	for _, v := range visited.vertices {
		props, err := v.Properties(ctx)
		if err != nil {
			return nil, err
		}
		result.Vertices = append(result.Vertices, VertexView{ID: v.ID(), Label: v.Label(), Properties: props})
	}

	for _, e := range visited.edges {
		props, err := e.Properties(ctx)
		if err != nil {
			return nil, err
		}
		result.Edges = append(result.Edges, EdgeView{
			ID:         e.ID(),
			Label:      e.Label(),
			OutV:       e.OutVertex().ID(),
			InV:        e.InVertex().ID(),
			Properties: props,
		})
	}

	return result, nil
}
