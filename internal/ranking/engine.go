package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
)

// Engine ranks queries against an index with any Scorer. It holds no
// per-query state and is safe for concurrent use.
type Engine struct {
	idx     index.Reader
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type EngineOption func(*Engine)

// WithMetrics records per-query counters and latency.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(idx index.Reader, opts ...EngineOption) *Engine {
	e := &Engine{
		idx:    idx,
		logger: slog.Default().With("component", "ranking-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the index the engine scores against.
func (e *Engine) Index() index.Reader { return e.idx }

// Fingerprint identifies the corpus behind the engine's rankings.
func (e *Engine) Fingerprint() string { return e.idx.Fingerprint() }

// Rank scores every document matching at least one query term and returns
// the best depth of them. A query with no terms, or no matches, yields an
// empty list.
func (e *Engine) Rank(ctx context.Context, q query.Query, depth int, s Scorer) (RankedList, error) {
	if depth <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "ranking depth must be positive, got %d", depth)
	}
	if s == nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "no scorer bound")
	}
	start := time.Now()
	list, err := e.rank(ctx, q, depth, s)
	e.observe(s.Method(), list, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	e.logger.Debug("query ranked",
		"query_id", q.ID,
		"method", s.Method(),
		"results", len(list),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return list, nil
}

func (e *Engine) rank(ctx context.Context, q query.Query, depth int, s Scorer) (RankedList, error) {
	if q.Empty() {
		return RankedList{}, nil
	}
	numDocs := e.idx.NumDocs()
	avgDL := e.idx.AvgDocLength()
	totalTerms := e.idx.TotalTerms()
	queryLength := float64(q.Length())

	docData := func(docID uint64) ScoreData {
		return ScoreData{
			DocLength:      e.idx.DocLength(docID),
			AvgDocLength:   avgDL,
			NumDocs:        numDocs,
			TotalTerms:     totalTerms,
			DocUniqueTerms: e.idx.UniqueTerms(docID),
			QueryLength:    queryLength,
		}
	}

	scores := make(map[uint64]float64)
	for _, term := range q.Terms {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ranking query %d: %w", q.ID, err)
		}
		postings := e.idx.Postings(term.Text)
		if len(postings) == 0 {
			continue
		}
		df := len(postings)
		ctf := e.idx.CorpusTermCount(term.Text)
		for _, p := range postings {
			sd := docData(p.DocID)
			score, seen := scores[p.DocID]
			if !seen {
				score = s.InitialScore(sd)
			}
			sd.DocTermCount = p.Frequency
			sd.DocCount = df
			sd.CorpusTermCount = ctf
			sd.QueryTermWeight = float64(term.Weight)
			scores[p.DocID] = score + s.ScoreOne(sd)
		}
	}

	top := newTopK(depth)
	for docID, score := range scores {
		top.offer(SearchResult{DocID: docID, Score: score})
	}
	return top.list(), nil
}

func (e *Engine) observe(method Method, list RankedList, err error, latency time.Duration) {
	if e.metrics == nil {
		return
	}
	resultType := "hit"
	switch {
	case err != nil:
		resultType = "error"
	case len(list) == 0:
		resultType = "zero_result"
	}
	e.metrics.QueriesRankedTotal.WithLabelValues(string(method), resultType).Inc()
	e.metrics.RankingLatency.WithLabelValues(string(method)).Observe(latency.Seconds())
	if err == nil {
		e.metrics.RankedListLength.Observe(float64(len(list)))
	}
}
