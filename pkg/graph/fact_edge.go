package graph

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/apperrors"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// Static edge property keys, in the order they are exposed.
const (
	EdgeKeyValue             = "value"
	EdgeKeyInReferenceToID   = "inReferenceToID"
	EdgeKeyOrganizationID    = "organizationID"
	EdgeKeyOriginID          = "originID"
	EdgeKeyTrust             = "trust"
	EdgeKeyConfidence        = "confidence"
	EdgeKeyCertainty         = "certainty"
	EdgeKeyAccessMode        = "accessMode"
	EdgeKeyTimestamp         = "timestamp"
	EdgeKeyLastSeenTimestamp = "lastSeenTimestamp"
)

var edgeStaticKeys = []string{
	EdgeKeyValue,
	EdgeKeyInReferenceToID,
	EdgeKeyOrganizationID,
	EdgeKeyOriginID,
	EdgeKeyTrust,
	EdgeKeyConfidence,
	EdgeKeyCertainty,
	EdgeKeyAccessMode,
	EdgeKeyTimestamp,
	EdgeKeyLastSeenTimestamp,
}

// FactEdge is the edge view of a two-legged Fact. The out vertex is the Fact's source
// and the in vertex its destination.
type FactEdge struct {
	graph      *ActGraph
	fact       *models.FactRecord
	factType   *models.FactTypeStruct
	out        Vertex
	in         Vertex
	enrichment enrichment
}

var _ Edge = (*FactEdge)(nil)

// NewFactEdge creates an edge between out and in. It panics if any argument is missing.
func NewFactEdge(graph *ActGraph, fact *models.FactRecord, factType *models.FactTypeStruct, out, in Vertex) *FactEdge {
	if graph == nil {
		panic("graph: FactEdge requires a graph")
	}
	if fact == nil {
		panic("graph: FactEdge requires a fact record")
	}
	if factType == nil {
		panic("graph: FactEdge requires a fact type")
	}
	if out == nil || in == nil {
		panic("graph: FactEdge requires both endpoints")
	}
	return &FactEdge{graph: graph, fact: fact, factType: factType, out: out, in: in}
}

func (e *FactEdge) ID() uuid.UUID { return e.fact.ID }

// Label is the name of the Fact's type.
func (e *FactEdge) Label() string { return e.factType.Name }

func (e *FactEdge) Graph() *ActGraph { return e.graph }

// Record returns the Fact backing this edge.
func (e *FactEdge) Record() *models.FactRecord { return e.fact }

func (e *FactEdge) OutVertex() Vertex { return e.out }

func (e *FactEdge) InVertex() Vertex { return e.in }

// Vertices yields the source for OUT, the destination for IN and both, source first, for BOTH.
func (e *FactEdge) Vertices(direction Direction) iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		switch direction {
		case DirectionOut:
			yield(e.out)
		case DirectionIn:
			yield(e.in)
		case DirectionBoth:
			if !yield(e.out) {
				return
			}
			yield(e.in)
		}
	}
}

func (e *FactEdge) Equal(other Element) bool {
	o, ok := other.(Edge)
	return ok && !isNilElement(o) && o.ID() == e.ID()
}

func (e *FactEdge) String() string {
	return fmt.Sprintf("e[%s][%s-%s->%s]", e.ID(), e.out.ID(), e.Label(), e.in.ID())
}

// Certainty is trust multiplied by confidence, computed on every call.
func (e *FactEdge) Certainty() float64 {
	return e.fact.Certainty()
}

// Properties returns the static Fact properties followed by meta Fact enrichment,
// if a PropertyHelper is configured. Absent Fact fields are omitted.
func (e *FactEdge) Properties(ctx context.Context, keys ...string) ([]Property, error) {
	props := e.staticProperties()

	if e.graph.propertyHelper != nil && wantsEnrichment(keys, isEdgeEnrichmentKey) {
		extra, err := e.enrichment.get(ctx, e.loadEnrichment, isEdgeStaticKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load properties of edge %s: %w", e.ID(), err)
		}
		props = append(props, extra...)
	}

	return selectProperties(props, keys), nil
}

func (e *FactEdge) Value(ctx context.Context, key string) (any, error) {
	props, err := e.Properties(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: edge %s has no property %q", apperrors.ErrInvalidState, e.ID(), key)
	}
	return props[0].Value, nil
}

func (e *FactEdge) Keys(ctx context.Context) ([]string, error) {
	props, err := e.Properties(ctx)
	if err != nil {
		return nil, err
	}
	return propertyKeys(props), nil
}

func (e *FactEdge) staticProperties() []Property {
	f := e.fact
	props := make([]Property, 0, len(edgeStaticKeys))

	if f.Value != nil {
		props = append(props, Property{Key: EdgeKeyValue, Value: *f.Value})
	}
	if f.InReferenceToID != nil {
		props = append(props, Property{Key: EdgeKeyInReferenceToID, Value: f.InReferenceToID.String()})
	}
	if f.OrganizationID != nil {
		props = append(props, Property{Key: EdgeKeyOrganizationID, Value: f.OrganizationID.String()})
	}
	if f.OriginID != nil {
		props = append(props, Property{Key: EdgeKeyOriginID, Value: f.OriginID.String()})
	}
	props = append(props,
		Property{Key: EdgeKeyTrust, Value: f.Trust},
		Property{Key: EdgeKeyConfidence, Value: f.Confidence},
		Property{Key: EdgeKeyCertainty, Value: f.Certainty()},
	)
	if f.AccessMode != "" {
		props = append(props, Property{Key: EdgeKeyAccessMode, Value: string(f.AccessMode)})
	}
	if !f.Timestamp.IsZero() {
		props = append(props, Property{Key: EdgeKeyTimestamp, Value: f.Timestamp.UnixMilli()})
	}
	if !f.LastSeenTimestamp.IsZero() {
		props = append(props, Property{Key: EdgeKeyLastSeenTimestamp, Value: f.LastSeenTimestamp.UnixMilli()})
	}

	return props
}

func (e *FactEdge) loadEnrichment(ctx context.Context) ([]PropertyEntry, error) {
	return e.graph.propertyHelper.FactProperties(ctx, e.fact, e.graph.params)
}

func isEdgeStaticKey(key string) bool {
	for _, k := range edgeStaticKeys {
		if k == key {
			return true
		}
	}
	return false
}

func isEdgeEnrichmentKey(key string) bool { return strings.HasPrefix(key, MetaPropertyPrefix) }
