package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/starford/almanac/internal/apperr"
)

func TestCollectorsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CacheLookup(true)
	m.CacheLookup(false)
	m.FetchFailure(fmt.Errorf("wrapped: %w", apperr.ErrNetwork))
	m.FetchFailure(fmt.Errorf("wrapped: %w", apperr.ErrParse))
	m.Mutation("create")
	m.ObserveAggregate(15 * time.Millisecond)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`almanac_holiday_cache_lookups_total{result="hit"} 1`,
		`almanac_holiday_cache_lookups_total{result="miss"} 1`,
		`almanac_holiday_fetch_failures_total{kind="network"} 1`,
		`almanac_holiday_fetch_failures_total{kind="parse"} 1`,
		`almanac_event_mutations_total{op="create"} 1`,
		`almanac_aggregate_duration_seconds_count 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.CacheLookup(true)
	m.FetchFailure(apperr.ErrNetwork)
	m.Mutation("delete")
	m.ObserveAggregate(time.Second)
}
