package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// propertySearchLimit bounds the Facts read to enrich a single element.
const propertySearchLimit = 1000

// propertyHelper derives element properties from Facts that do not become edges:
// one-legged Facts describe their Object, meta Facts describe the Fact they reference.
type propertyHelper struct {
	dao             graph.ObjectFactDao
	types           graph.TypeResolver
	securityContext graph.SecurityContext
}

// NewPropertyHelper creates a PropertyHelper for one user.
func NewPropertyHelper(dao graph.ObjectFactDao, types graph.TypeResolver, sc graph.SecurityContext) graph.PropertyHelper {
	return &propertyHelper{dao: dao, types: types, securityContext: sc}
}

var _ graph.PropertyHelper = (*propertyHelper)(nil)

// ObjectProperties returns one entry per readable one-legged Fact bound to object, keyed by
// Fact type name.
func (h *propertyHelper) ObjectProperties(ctx context.Context, object *models.ObjectRecord, params *graph.TraverseParams) ([]graph.PropertyEntry, error) {
	criteria := params.NewSearchCriteria()
	criteria.ObjectID = []uuid.UUID{object.ID}
	criteria.FactBinding = models.FactBindingOneLegged
	criteria.Limit = propertySearchLimit

	return h.entries(ctx, criteria, params, "")
}

// FactProperties returns one entry per readable meta Fact referencing fact, keyed by
// "meta/" plus the Fact type name.
func (h *propertyHelper) FactProperties(ctx context.Context, fact *models.FactRecord, params *graph.TraverseParams) ([]graph.PropertyEntry, error) {
	criteria := params.NewSearchCriteria()
	criteria.InReferenceTo = []uuid.UUID{fact.ID}
	criteria.FactBinding = models.FactBindingMeta
	criteria.Limit = propertySearchLimit

	return h.entries(ctx, criteria, params, graph.MetaPropertyPrefix)
}

func (h *propertyHelper) entries(ctx context.Context, criteria *models.FactSearchCriteria, params *graph.TraverseParams, prefix string) ([]graph.PropertyEntry, error) {
	result, err := h.dao.SearchFacts(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search property facts: %w", err)
	}

	var entries []graph.PropertyEntry
	for fact, err := range result.Values() {
		if err != nil {
			return nil, fmt.Errorf("failed to read property facts: %w", err)
		}
		if fact == nil || !h.securityContext.HasReadPermission(fact) {
			continue
		}
		if fact.Retracted && !params.IncludeRetracted() {
			continue
		}

		factType, err := h.types.ToFactTypeStruct(ctx, fact.TypeID)
		if err != nil {
			return nil, err
		}
		if factType == nil {
			continue
		}

		var value any
		if fact.Value != nil {
			value = *fact.Value
		}
		entries = append(entries, graph.PropertyEntry{
			Key:       prefix + factType.Name,
			Value:     value,
			Timestamp: fact.LastSeenTimestamp.UnixMilli(),
		})
	}
	return entries, nil
}
