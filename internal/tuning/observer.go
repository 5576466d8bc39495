package tuning

import (
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
)

// Observer is notified as a sweep progresses. Calls happen on the sweep
// goroutine, in grid order, and must not block for long.
type Observer interface {
	GridPointEvaluated(runID string, p GridPoint)
	SweepFinished(r Result)
	SweepFailed(runID string, err error)
}

type observers []Observer

func (o observers) GridPointEvaluated(runID string, p GridPoint) {
	for _, obs := range o {
		obs.GridPointEvaluated(runID, p)
	}
}

func (o observers) SweepFinished(r Result) {
	for _, obs := range o {
		obs.SweepFinished(r)
	}
}

func (o observers) SweepFailed(runID string, err error) {
	for _, obs := range o {
		obs.SweepFailed(runID, err)
	}
}

// LogObserver writes one line per grid point at info level.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver() *LogObserver {
	return &LogObserver{logger: slog.Default().With("component", "tuning-progress")}
}

func (l *LogObserver) GridPointEvaluated(runID string, p GridPoint) {
	l.logger.Info("grid point",
		"run_id", runID,
		"index", p.Index,
		"c", p.Params.C,
		"lambda", p.Params.Lambda,
		"map", p.MAP,
		"queries", p.Recorded,
		"duration", p.Duration,
	)
}

func (l *LogObserver) SweepFinished(r Result) {
	l.logger.Info("best grid point",
		"run_id", r.RunID,
		"map", r.BestMAP,
		"c", r.Best.C,
		"lambda", r.Best.Lambda,
		"points", len(r.Points),
	)
}

func (l *LogObserver) SweepFailed(runID string, err error) {
	l.logger.Error("sweep failed", "run_id", runID, "error", err)
}

// MetricsObserver exports sweep progress to Prometheus.
type MetricsObserver struct {
	m *metrics.Metrics
}

func NewMetricsObserver(m *metrics.Metrics) *MetricsObserver {
	return &MetricsObserver{m: m}
}

func (o *MetricsObserver) GridPointEvaluated(_ string, p GridPoint) {
	o.m.GridPointsTotal.Inc()
	o.m.GridPointMAP.WithLabelValues(strconv.FormatFloat(p.Params.C, 'g', -1, 64)).Set(p.MAP)
}

func (o *MetricsObserver) SweepFinished(r Result) {
	o.m.BestMAP.Set(r.BestMAP)
	o.m.SweepsTotal.WithLabelValues("success").Inc()
}

func (o *MetricsObserver) SweepFailed(string, error) {
	o.m.SweepsTotal.WithLabelValues("failure").Inc()
}
