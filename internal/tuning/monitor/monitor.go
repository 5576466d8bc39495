// Package monitor follows parameter sweeps from their published events and
// keeps a per-run progress summary.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/tuning"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
)

type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
	StatusStalled  Status = "stalled"
)

// Run is the progress of one sweep as seen through its events.
type Run struct {
	RunID      string    `json:"run_id"`
	Status     Status    `json:"status"`
	Points     int       `json:"points"`
	BestMAP    float64   `json:"best_map"`
	BestC      float64   `json:"best_c"`
	BestLambda float64   `json:"best_lambda"`
	Error      string    `json:"error,omitempty"`
	FirstSeen  time.Time `json:"first_seen"`
	LastEvent  time.Time `json:"last_event"`
}

// Monitor aggregates sweep events by run id. Point events can arrive out of
// order across partitions; the best point is tracked by MAP, ties going to
// the lower grid index.
type Monitor struct {
	mu         sync.RWMutex
	runs       map[string]*Run
	bestIndex  map[string]int
	staleAfter time.Duration
	out        io.Writer
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Monitor)

// WithMetrics mirrors observed sweeps into the tuning collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mon *Monitor) { mon.metrics = m }
}

// New returns a Monitor. When out is not nil one progress line is written per
// event.
func New(out io.Writer, staleAfter time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		runs:       make(map[string]*Run),
		bestIndex:  make(map[string]int),
		staleAfter: staleAfter,
		out:        out,
		now:        time.Now,
		logger:     slog.Default().With("component", "sweep-monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MessageHandler adapts the monitor to a Kafka consumer. Undecodable messages
// are logged and dropped so they do not block the partition.
func (m *Monitor) MessageHandler() kafka.MessageHandler {
	return func(_ context.Context, key []byte, value []byte) error {
		if err := m.Apply(value); err != nil {
			m.logger.Warn("dropping tuning event", "key", string(key), "error", err)
		}
		return nil
	}
}

// Apply folds one JSON-encoded tuning event into the run summaries.
func (m *Monitor) Apply(value []byte) error {
	var head struct {
		Type tuning.EventType `json:"type"`
	}
	if err := json.Unmarshal(value, &head); err != nil {
		return fmt.Errorf("decoding event type: %w", err)
	}
	switch head.Type {
	case tuning.EventGridPoint:
		ev, err := kafka.DecodeJSON[tuning.GridPointEvent](value)
		if err != nil {
			return err
		}
		m.applyPoint(ev)
	case tuning.EventSweepDone, tuning.EventSweepFailed:
		ev, err := kafka.DecodeJSON[tuning.SweepEvent](value)
		if err != nil {
			return err
		}
		m.applySweep(ev)
	default:
		return fmt.Errorf("unknown event type %q", head.Type)
	}
	return nil
}

func (m *Monitor) applyPoint(ev tuning.GridPointEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.run(ev.RunID, ev.Timestamp)
	r.Points++
	if r.LastEvent.Before(ev.Timestamp) {
		r.LastEvent = ev.Timestamp
	}
	best, seen := m.bestIndex[ev.RunID]
	if !seen || ev.MAP > r.BestMAP || (ev.MAP == r.BestMAP && ev.Index < best) {
		m.bestIndex[ev.RunID] = ev.Index
		r.BestMAP = ev.MAP
		r.BestC = ev.C
		r.BestLambda = ev.Lambda
	}
	if m.metrics != nil {
		m.metrics.GridPointsTotal.Inc()
	}
	m.printf("%s point %d: c=%g lambda=%g MAP=%.6g (best %.6g)\n",
		shortID(ev.RunID), ev.Index, ev.C, ev.Lambda, ev.MAP, r.BestMAP)
}

func (m *Monitor) applySweep(ev tuning.SweepEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.run(ev.RunID, ev.Timestamp)
	if r.LastEvent.Before(ev.Timestamp) {
		r.LastEvent = ev.Timestamp
	}
	if ev.Type == tuning.EventSweepFailed {
		r.Status = StatusFailed
		r.Error = ev.Error
		if m.metrics != nil {
			m.metrics.SweepsTotal.WithLabelValues("failure").Inc()
		}
		m.printf("%s failed: %s\n", shortID(ev.RunID), ev.Error)
		return
	}
	r.Status = StatusFinished
	r.BestMAP, r.BestC, r.BestLambda = ev.BestMAP, ev.C, ev.Lambda
	if m.metrics != nil {
		m.metrics.BestMAP.Set(ev.BestMAP)
		m.metrics.SweepsTotal.WithLabelValues("success").Inc()
	}
	m.printf("%s finished: Max MAP = %.6g achieved by c = %.6g, lambda = %.6g\n",
		shortID(ev.RunID), ev.BestMAP, ev.C, ev.Lambda)
}

// run returns the summary for id, creating it on first sight. Callers hold mu.
func (m *Monitor) run(id string, at time.Time) *Run {
	r, ok := m.runs[id]
	if !ok {
		r = &Run{RunID: id, Status: StatusRunning, FirstSeen: at, LastEvent: at}
		m.runs[id] = r
		m.logger.Info("tracking sweep", "run_id", id)
	}
	return r
}

// Runs returns every known run, most recent activity first. Running sweeps
// that have been quiet longer than the stale threshold are reported stalled.
func (m *Monitor) Runs() []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	out := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		cp := *r
		if cp.Status == StatusRunning && m.staleAfter > 0 && now.Sub(cp.LastEvent) > m.staleAfter {
			cp.Status = StatusStalled
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastEvent.Equal(out[j].LastEvent) {
			return out[i].LastEvent.After(out[j].LastEvent)
		}
		return out[i].RunID < out[j].RunID
	})
	return out
}

// Get returns one run by id.
func (m *Monitor) Get(id string) (Run, bool) {
	for _, r := range m.Runs() {
		if r.RunID == id {
			return r, true
		}
	}
	return Run{}, false
}

func (m *Monitor) printf(format string, args ...any) {
	if m.out != nil {
		fmt.Fprintf(m.out, format, args...)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
