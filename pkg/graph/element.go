package graph

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/apperrors"
)

// Identifiable is anything that carries an element id: vertices, edges and
// reference or detached copies of them.
type Identifiable interface {
	ID() uuid.UUID
}

// Element is the capability set shared by vertices and edges.
type Element interface {
	Identifiable
	Label() string
	Graph() *ActGraph
	// Properties returns the element's properties, restricted to keys if any are given.
	// Unmatched keys yield nothing.
	Properties(ctx context.Context, keys ...string) ([]Property, error)
	// Value returns the value of one property, or ErrInvalidState if it is absent.
	Value(ctx context.Context, key string) (any, error)
	Keys(ctx context.Context) ([]string, error)
	// Equal compares elements by kind and id only.
	Equal(other Element) bool
}

// Vertex is an Element with adjacency.
type Vertex interface {
	Element
	Edges(ctx context.Context, direction Direction, labels ...string) iter.Seq2[Edge, error]
	Vertices(ctx context.Context, direction Direction, labels ...string) iter.Seq2[Vertex, error]
}

// Edge is an Element connecting a source (out) vertex to a destination (in) vertex.
type Edge interface {
	Element
	OutVertex() Vertex
	InVertex() Vertex
	Vertices(direction Direction) iter.Seq[Vertex]
}

// Property is a single-valued key/value pair of an element.
type Property struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// ElementKind distinguishes vertex references from edge references.
type ElementKind string

const (
	KindVertex ElementKind = "vertex"
	KindEdge   ElementKind = "edge"
)

// ReferenceElement is a detached pointer to an element: its id and label only.
// It can be handed back to ActGraph to resolve the live element again.
type ReferenceElement struct {
	id    uuid.UUID
	label string
	kind  ElementKind
}

// ReferenceOf returns a reference to e.
func ReferenceOf(e Element) *ReferenceElement {
	kind := KindEdge
	if _, ok := e.(Vertex); ok {
		kind = KindVertex
	}
	return &ReferenceElement{id: e.ID(), label: e.Label(), kind: kind}
}

func (r ReferenceElement) ID() uuid.UUID     { return r.id }
func (r ReferenceElement) Label() string     { return r.label }
func (r ReferenceElement) Kind() ElementKind { return r.kind }

// DetachedElement is a self-contained snapshot of an element including its properties.
type DetachedElement struct {
	ReferenceElement
	Properties []Property
}

// Detach snapshots e with all of its properties.
func Detach(ctx context.Context, e Element) (*DetachedElement, error) {
	props, err := e.Properties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to detach element %s: %w", e.ID(), err)
	}
	return &DetachedElement{ReferenceElement: *ReferenceOf(e), Properties: props}, nil
}

// isNilElement reports whether e is nil or wraps a nil vertex or edge pointer.
func isNilElement(e Element) bool {
	switch v := e.(type) {
	case nil:
		return true
	case *ObjectVertex:
		return v == nil
	case *FactEdge:
		return v == nil
	}
	return false
}

type stringIdentifiable interface {
	ID() string
}

type anyIdentifiable interface {
	ID() any
}

// resolveID normalises every accepted id shape into the element UUID.
func resolveID(id any) (uuid.UUID, error) {
	switch v := id.(type) {
	case uuid.UUID:
		return v, nil
	case *uuid.UUID:
		if v != nil {
			return *v, nil
		}
	case *ReferenceElement:
		if v != nil {
			return v.ID(), nil
		}
	case *DetachedElement:
		if v != nil {
			return v.ID(), nil
		}
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: %q is not a UUID", apperrors.ErrInvalidID, v)
		}
		return parsed, nil
	case Identifiable:
		return v.ID(), nil
	case stringIdentifiable:
		return resolveID(v.ID())
	case anyIdentifiable:
		return resolveID(v.ID())
	}
	return uuid.Nil, fmt.Errorf("%w: id of type %T is not supported", apperrors.ErrInvalidID, id)
}
