package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.SearchIssued(graph.SearchKindAdjacency)
	r.SearchIssued(graph.SearchKindAdjacency)
	r.FactFiltered(graph.FilterReasonAccessDenied)
	r.FactFiltered(graph.FilterReasonDirection)
	r.FactFiltered(graph.FilterReasonDirection)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.searches.WithLabelValues(graph.SearchKindAdjacency)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.factsFiltered.WithLabelValues(graph.FilterReasonAccessDenied)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.factsFiltered.WithLabelValues(graph.FilterReasonDirection)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.factsFiltered.WithLabelValues(graph.FilterReasonRetracted)))
}

func TestRecorder_ObserveRequest(t *testing.T) {
	r := NewRecorder()
	r.ObserveRequest("ok", 20*time.Millisecond)
	r.ObserveRequest("ok", 30*time.Millisecond)
	r.ObserveRequest("invalid", time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(r.requestDuration))

	expected := `
# HELP grafeo_traverse_searches_total Total fact searches issued by traversals
# TYPE grafeo_traverse_searches_total counter
grafeo_traverse_searches_total{kind="adjacency"} 1
`
	r.SearchIssued(graph.SearchKindAdjacency)
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "grafeo_traverse_searches_total"))
}

func TestRecorder_Independent(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	a.SearchIssued(graph.SearchKindAdjacency)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.searches.WithLabelValues(graph.SearchKindAdjacency)))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.FactFiltered(graph.FilterReasonRetracted)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `grafeo_traverse_facts_filtered_total{reason="retracted"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
