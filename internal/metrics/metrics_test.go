package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/catalog"
	"tour-planner/internal/engine"
)

func TestObserveSearch_Outcomes(t *testing.T) {
	m := New()

	m.ObserveSearch(&engine.Result{
		Tours: []*catalog.Tour{{ID: 1}},
		Stats: engine.SearchStats{NodesVisited: 3, Elapsed: time.Millisecond},
	}, nil)
	m.ObserveSearch(&engine.Result{Tours: []*catalog.Tour{}}, nil)
	m.ObserveSearch(nil, fmt.Errorf("wrap: %w", engine.ErrInvalidInput))
	m.ObserveSearch(nil, fmt.Errorf("wrap: %w", engine.ErrSearchCancelled))
	m.ObserveSearch(nil, io.ErrUnexpectedEOF)

	for outcome, want := range map[string]float64{
		OutcomeOK:        1,
		OutcomeEmpty:     1,
		OutcomeInvalid:   1,
		OutcomeCancelled: 1,
		OutcomeError:     1,
	} {
		got := testutil.ToFloat64(m.searches.WithLabelValues(outcome))
		assert.Equal(t, want, got, outcome)
	}

	// Only completed searches feed the histograms.
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "tourplan_search_nodes_count 2")
}

func TestSetCatalog(t *testing.T) {
	m := New()
	cat, err := catalog.NewBuilder().
		AddTour(catalog.Tour{ID: 1, RegionID: "A"}).
		AddTour(catalog.Tour{ID: 2, RegionID: "A"}).
		Build()
	require.NoError(t, err)

	m.SetCatalog(cat)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tours))
}

func TestHandler_ServesText(t *testing.T) {
	m := New()
	m.ObserveBatch([]*engine.Result{{Tours: []*catalog.Tour{}}}, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `tourplan_searches_total{outcome="empty"} 1`)
	assert.Contains(t, rec.Body.String(), "tourplan_catalog_tours 0")
}
