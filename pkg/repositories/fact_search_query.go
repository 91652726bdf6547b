package repositories

import (
	"fmt"
	"strings"

	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

const factColumns = `
		SELECT f.id, f.type_id, f.value, f.in_reference_to_id, f.organization_id, f.origin_id,
		       f.trust, f.confidence, f.access_mode, f.timestamp, f.last_seen_timestamp,
		       f.bidirectional_binding, f.retracted,
		       s.id, s.type_id, s.value,
		       d.id, d.type_id, d.value,
		       COALESCE((SELECT array_agg(a.subject_id) FROM fact_acl a WHERE a.fact_id = f.id), '{}')
		FROM facts f
		LEFT JOIN objects s ON s.id = f.source_object_id
		LEFT JOIN objects d ON d.id = f.destination_object_id`

var timeFieldColumns = map[models.TimeFieldStrategy]string{
	models.TimeFieldTimestamp:         "f.timestamp",
	models.TimeFieldLastSeenTimestamp: "f.last_seen_timestamp",
}

// queryBuilder accumulates WHERE conditions and their positional arguments.
type queryBuilder struct {
	conditions []string
	args       []any
}

// arg registers a positional argument and returns its placeholder.
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(condition string) {
	b.conditions = append(b.conditions, condition)
}

// buildFactSearchQuery compiles search criteria into SQL. Empty filters are not applied,
// access control is always applied. Results are ordered newest first.
func buildFactSearchQuery(criteria *models.FactSearchCriteria) (string, []any) {
	b := &queryBuilder{}

	if len(criteria.FactID) > 0 {
		b.where("f.id = ANY(" + b.arg(criteria.FactID) + ")")
	}
	if len(criteria.FactTypeID) > 0 {
		b.where("f.type_id = ANY(" + b.arg(criteria.FactTypeID) + ")")
	}
	if len(criteria.ObjectID) > 0 {
		p := b.arg(criteria.ObjectID)
		b.where("(f.source_object_id = ANY(" + p + ") OR f.destination_object_id = ANY(" + p + "))")
	}
	if len(criteria.InReferenceTo) > 0 {
		b.where("f.in_reference_to_id = ANY(" + b.arg(criteria.InReferenceTo) + ")")
	}

	switch criteria.FactBinding {
	case models.FactBindingMeta:
		b.where("f.source_object_id IS NULL AND f.destination_object_id IS NULL")
	case models.FactBindingOneLegged:
		b.where("(f.source_object_id IS NULL) <> (f.destination_object_id IS NULL)")
	case models.FactBindingTwoLegged:
		b.where("f.source_object_id IS NOT NULL AND f.destination_object_id IS NOT NULL")
	}

	if !criteria.IncludeRetracted {
		b.where("NOT f.retracted")
	}

	if criteria.HasTimeWindow() {
		b.where(timeWindowCondition(b, criteria))
	}

	b.where(accessControlCondition(b, criteria.AccessControl))

	var sb strings.Builder
	sb.WriteString(factColumns)
	sb.WriteString("\n\t\tWHERE ")
	sb.WriteString(strings.Join(b.conditions, "\n\t\t  AND "))
	sb.WriteString("\n\t\tORDER BY f.last_seen_timestamp DESC, f.id")
	if criteria.Limit > 0 {
		sb.WriteString("\n\t\tLIMIT " + b.arg(criteria.Limit))
	}

	return sb.String(), b.args
}

// timeWindowCondition applies the window to every selected field, joined by OR for
// MatchAny and AND for MatchAll.
func timeWindowCondition(b *queryBuilder, criteria *models.FactSearchCriteria) string {
	var start, end string
	if criteria.StartTimestamp != nil {
		start = b.arg(*criteria.StartTimestamp)
	}
	if criteria.EndTimestamp != nil {
		end = b.arg(*criteria.EndTimestamp)
	}

	var fields []string
	for _, field := range criteria.TimeFields() {
		column, ok := timeFieldColumns[field]
		if !ok {
			continue
		}
		var bounds []string
		if start != "" {
			bounds = append(bounds, column+" >= "+start)
		}
		if end != "" {
			bounds = append(bounds, column+" <= "+end)
		}
		fields = append(fields, "("+strings.Join(bounds, " AND ")+")")
	}

	if len(fields) == 0 {
		return "TRUE"
	}

	joiner := " OR "
	if criteria.TimeMatchStrategy == models.MatchAll {
		joiner = " AND "
	}
	return "(" + strings.Join(fields, joiner) + ")"
}

// accessControlCondition admits Public facts, RoleBased facts of an available organization,
// and any fact whose ACL names one of the current identities.
func accessControlCondition(b *queryBuilder, ac models.AccessControlCriteria) string {
	conditions := []string{"f.access_mode = 'Public'"}
	if len(ac.AvailableOrganizationIDs) > 0 {
		conditions = append(conditions,
			"(f.access_mode = 'RoleBased' AND f.organization_id = ANY("+b.arg(ac.AvailableOrganizationIDs)+"))")
	}
	if len(ac.CurrentUserIdentities) > 0 {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM fact_acl a WHERE a.fact_id = f.id AND a.subject_id = ANY("+b.arg(ac.CurrentUserIdentities)+"))")
	}
	return "(" + strings.Join(conditions, " OR ") + ")"
}
