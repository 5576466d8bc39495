// Package judgement collects relevance judgements for ad-hoc queries. A
// Session is a small state machine driven one input line at a time, so the
// console front end only renders prompts and forwards lines.
package judgement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
)

// MaxResults is how many results are shown, and can be judged, per query.
const MaxResults = 20

type State int

const (
	AwaitingQuery State = iota
	AwaitingDescription
	AwaitingJudgements
	Terminal
)

func (s State) String() string {
	switch s {
	case AwaitingQuery:
		return "awaiting-query"
	case AwaitingDescription:
		return "awaiting-description"
	case AwaitingJudgements:
		return "awaiting-judgements"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Result struct {
	DocID uint64
	Name  string
	Score float64
}

type Results struct {
	Items   []Result
	Elapsed time.Duration
}

// Searcher ranks query text and returns results best first.
type Searcher func(ctx context.Context, text string, limit int) (Results, error)

// Recorder stores a completed judgement. *Writer satisfies it.
type Recorder interface {
	Record(rec Record) error
}

// Transition describes the effect of one submitted line.
type Transition struct {
	From State
	To   State
	// Results is set when the session moves to AwaitingJudgements.
	Results *Results
	// Recorded is set when judgements were written.
	Recorded *Record
}

type Session struct {
	state       State
	query       string
	description string
	results     []Result
	maxResults  int
	searcher    Searcher
	recorder    Recorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

type SessionOption func(*Session)

func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithMaxResults caps how many results are shown per query.
func WithMaxResults(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

func NewSession(searcher Searcher, recorder Recorder, opts ...SessionOption) *Session {
	s := &Session{
		state:      AwaitingQuery,
		maxResults: MaxResults,
		searcher:   searcher,
		recorder:   recorder,
		logger:     slog.Default().With("component", "judgement-session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State { return s.state }

// Query returns the query currently being judged.
func (s *Session) Query() string { return s.query }

// Submit feeds one line of input to the session.
//
// In AwaitingQuery a blank line ends the session. In AwaitingDescription any
// line is accepted and the query is ranked. In AwaitingJudgements the line is
// validated with ParseJudgements; an invalid line returns an error wrapping
// errors.ErrInvalidJudgement and the session goes back to AwaitingQuery so the
// query can be repeated. An empty judgement list records nothing.
func (s *Session) Submit(ctx context.Context, line string) (Transition, error) {
	t := Transition{From: s.state}
	switch s.state {
	case AwaitingQuery:
		if strings.TrimSpace(line) == "" {
			s.state = Terminal
			break
		}
		s.query = line
		s.state = AwaitingDescription

	case AwaitingDescription:
		s.description = line
		res, err := s.searcher(ctx, s.query, s.maxResults)
		if err != nil {
			s.reset()
			t.To = s.state
			return t, fmt.Errorf("ranking %q: %w", s.query, err)
		}
		if len(res.Items) > s.maxResults {
			res.Items = res.Items[:s.maxResults]
		}
		s.results = res.Items
		t.Results = &res
		s.state = AwaitingJudgements

	case AwaitingJudgements:
		positions, err := ParseJudgements(line, len(s.results))
		if err != nil {
			s.countInvalid()
			s.reset()
			t.To = s.state
			return t, err
		}
		if len(positions) > 0 {
			rec := Record{
				Query:       s.query,
				Description: s.description,
				DocIDs:      make([]uint64, len(positions)),
			}
			for i, p := range positions {
				rec.DocIDs[i] = s.results[p-1].DocID
			}
			if err := s.recorder.Record(rec); err != nil {
				s.reset()
				t.To = s.state
				return t, err
			}
			if s.metrics != nil {
				s.metrics.JudgementsRecorded.Inc()
			}
			s.logger.Debug("judgements recorded", "query", rec.Query, "relevant", len(rec.DocIDs))
			t.Recorded = &rec
		}
		s.reset()

	case Terminal:
		return t, apperrors.New(apperrors.ErrInvalidInput, "session has ended")
	}
	t.To = s.state
	return t, nil
}

func (s *Session) reset() {
	s.state = AwaitingQuery
	s.query = ""
	s.description = ""
	s.results = nil
}

func (s *Session) countInvalid() {
	if s.metrics != nil {
		s.metrics.InvalidJudgementTotal.Inc()
	}
}

// IsInvalidJudgement reports whether err came from judgement validation.
func IsInvalidJudgement(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidJudgement)
}
