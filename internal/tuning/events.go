package tuning

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/kafka"
)

type EventType string

const (
	EventGridPoint   EventType = "grid_point"
	EventSweepDone   EventType = "sweep_finished"
	EventSweepFailed EventType = "sweep_failed"
)

type GridPointEvent struct {
	Type       EventType `json:"type"`
	RunID      string    `json:"run_id"`
	Index      int       `json:"index"`
	C          float64   `json:"c"`
	Lambda     float64   `json:"lambda"`
	MAP        float64   `json:"map"`
	Queries    int       `json:"queries"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

type SweepEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	BestMAP   float64   `json:"best_map,omitempty"`
	C         float64   `json:"c,omitempty"`
	Lambda    float64   `json:"lambda,omitempty"`
	Points    int       `json:"points"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// EventObserver forwards sweep events to Kafka from a background goroutine.
// Tracking never blocks the sweep; events are dropped when the buffer is full.
type EventObserver struct {
	publisher Publisher
	eventCh   chan kafka.Event
	logger    *slog.Logger
	done      chan struct{}
}

func NewEventObserver(publisher Publisher, bufferSize int) *EventObserver {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &EventObserver{
		publisher: publisher,
		eventCh:   make(chan kafka.Event, bufferSize),
		logger:    slog.Default().With("component", "tuning-events"),
		done:      make(chan struct{}),
	}
}

func (e *EventObserver) Start(ctx context.Context) {
	go func() {
		defer close(e.done)
		for {
			select {
			case event, ok := <-e.eventCh:
				if !ok {
					return
				}
				e.publish(ctx, event)
			case <-ctx.Done():
				e.drainRemaining()
				return
			}
		}
	}()
	e.logger.Info("tuning event publisher started", "buffer_size", cap(e.eventCh))
}

// Close stops accepting events and waits until buffered ones are published.
func (e *EventObserver) Close() {
	close(e.eventCh)
	<-e.done
}

func (e *EventObserver) GridPointEvaluated(runID string, p GridPoint) {
	e.track(runID, GridPointEvent{
		Type:       EventGridPoint,
		RunID:      runID,
		Index:      p.Index,
		C:          p.Params.C,
		Lambda:     p.Params.Lambda,
		MAP:        p.MAP,
		Queries:    p.Recorded,
		DurationMs: p.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
}

func (e *EventObserver) SweepFinished(r Result) {
	e.track(r.RunID, SweepEvent{
		Type:      EventSweepDone,
		RunID:     r.RunID,
		BestMAP:   r.BestMAP,
		C:         r.Best.C,
		Lambda:    r.Best.Lambda,
		Points:    len(r.Points),
		Timestamp: time.Now().UTC(),
	})
}

func (e *EventObserver) SweepFailed(runID string, err error) {
	e.track(runID, SweepEvent{
		Type:      EventSweepFailed,
		RunID:     runID,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

func (e *EventObserver) track(runID string, value any) {
	select {
	case e.eventCh <- kafka.Event{Key: runID, Value: value}:
	default:
		e.logger.Warn("tuning event dropped (buffer full)", "run_id", runID)
	}
}

func (e *EventObserver) publish(ctx context.Context, event kafka.Event) {
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Error("failed to publish tuning event", "run_id", event.Key, "error", err)
	}
}

func (e *EventObserver) drainRemaining() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event, ok := <-e.eventCh:
			if !ok {
				return
			}
			e.publish(ctx, event)
		default:
			return
		}
	}
}
