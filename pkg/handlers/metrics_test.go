package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/metrics"
)

func TestMetricsHandler(t *testing.T) {
	recorder := metrics.NewRecorder()
	recorder.SearchIssued(graph.SearchKindAdjacency)

	mux := http.NewServeMux()
	NewMetricsHandler(recorder.Handler()).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `grafeo_traverse_searches_total{kind="adjacency"} 1`)
}
