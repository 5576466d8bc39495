package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.QueriesRankedTotal.WithLabelValues("pl2", "hit").Inc()
	m.GridPointMAP.WithLabelValues("0.3").Set(0.25)
	m.BestMAP.Set(0.25)
	m.SweepsTotal.WithLabelValues("success").Inc()

	if n, err := testutil.GatherAndCount(reg); err != nil || n < 4 {
		t.Errorf("expected collectors to be gathered, got %d series", n)
	}
	if got := testutil.ToFloat64(m.GridPointMAP.WithLabelValues("0.3")); got != 0.25 {
		t.Errorf("grid point gauge = %v", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.JudgementsRecorded.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "judgements_recorded_total 1") {
		t.Errorf("scrape output missing counter:\n%s", body)
	}
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	New(reg)
}
