// Package evaluation scores ranked lists against relevance judgements and
// accumulates per-query average precision into MAP.
package evaluation

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

// gmapEpsilon floors each AP before the geometric mean so a single zero does
// not collapse GMAP to zero.
const gmapEpsilon = 1e-6

// Evaluator records one average precision per query id. Recording the same
// query twice keeps the latest value.
type Evaluator struct {
	qrels  *Qrels
	mu     sync.Mutex
	scores map[int]float64
	logger *slog.Logger
}

func NewEvaluator(qrels *Qrels) *Evaluator {
	return &Evaluator{
		qrels:  qrels,
		scores: make(map[int]float64),
		logger: slog.Default().With("component", "evaluator"),
	}
}

// AveragePrecision computes, records and returns AP for one ranked list,
// considering at most depth results. The denominator is min(depth, number of
// relevant documents). Queries with no judgements or no results score 0.
func (e *Evaluator) AveragePrecision(list ranking.RankedList, queryID int, depth int) (float64, error) {
	if depth <= 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, "evaluation depth must be positive, got %d", depth)
	}
	ap := e.averagePrecision(list, queryID, depth)

	e.mu.Lock()
	e.scores[queryID] = ap
	e.mu.Unlock()
	return ap, nil
}

func (e *Evaluator) averagePrecision(list ranking.RankedList, queryID int, depth int) float64 {
	numRel := e.qrels.NumRelevant(queryID)
	if numRel == 0 || len(list) == 0 {
		e.logger.Debug("degenerate query scored as zero",
			"query_id", queryID,
			"results", len(list),
			"relevant", numRel,
		)
		return 0
	}
	hits := 0
	sum := 0.0
	for i, r := range list {
		if i >= depth {
			break
		}
		if e.qrels.Grade(queryID, r.DocID) > 0 {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}
	return sum / float64(min(depth, numRel))
}

// Precision is the fraction of the top k results that are relevant.
func (e *Evaluator) Precision(list ranking.RankedList, queryID int, k int) float64 {
	if k <= 0 {
		return 0
	}
	return float64(e.relevantInTop(list, queryID, k)) / float64(k)
}

// Recall is the fraction of relevant documents found in the top k results.
func (e *Evaluator) Recall(list ranking.RankedList, queryID int, k int) float64 {
	numRel := e.qrels.NumRelevant(queryID)
	if numRel == 0 || k <= 0 {
		return 0
	}
	return float64(e.relevantInTop(list, queryID, k)) / float64(numRel)
}

func (e *Evaluator) F1(list ranking.RankedList, queryID int, k int) float64 {
	p := e.Precision(list, queryID, k)
	r := e.Recall(list, queryID, k)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// NDCG uses gain 2^rel - 1 and a log2(rank + 1) discount.
func (e *Evaluator) NDCG(list ranking.RankedList, queryID int, k int) float64 {
	if k <= 0 {
		return 0
	}
	dcg := 0.0
	for i, r := range list {
		if i >= k {
			break
		}
		if g := e.qrels.Grade(queryID, r.DocID); g > 0 {
			dcg += (math.Exp2(float64(g)) - 1) / math.Log2(float64(i)+2)
		}
	}
	grades := e.qrels.Grades(queryID)
	sort.Sort(sort.Reverse(sort.IntSlice(grades)))
	idcg := 0.0
	for i, g := range grades {
		if i >= k {
			break
		}
		idcg += (math.Exp2(float64(g)) - 1) / math.Log2(float64(i)+2)
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// MeanAveragePrecision is the arithmetic mean of every recorded AP.
func (e *Evaluator) MeanAveragePrecision() (float64, error) {
	values, err := e.recorded()
	if err != nil {
		return 0, err
	}
	return stat.Mean(values, nil), nil
}

// GMAP is the geometric mean of every recorded AP, each floored at a small
// epsilon.
func (e *Evaluator) GMAP() (float64, error) {
	values, err := e.recorded()
	if err != nil {
		return 0, err
	}
	for i, v := range values {
		values[i] = math.Max(v, gmapEpsilon)
	}
	return stat.GeometricMean(values, nil), nil
}

// Scores returns a copy of the recorded APs keyed by query id.
func (e *Evaluator) Scores() map[int]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[int]float64, len(e.scores))
	for k, v := range e.scores {
		out[k] = v
	}
	return out
}

func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scores = make(map[int]float64)
}

func (e *Evaluator) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.scores)
}

// recorded returns the APs ordered by query id so that summation order, and
// therefore the result, is reproducible.
func (e *Evaluator) recorded() ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.scores) == 0 {
		return nil, apperrors.New(apperrors.ErrNoQueries, "no average precision values recorded")
	}
	ids := make([]int, 0, len(e.scores))
	for id := range e.scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	values := make([]float64, len(ids))
	for i, id := range ids {
		values[i] = e.scores[id]
	}
	return values, nil
}

func (e *Evaluator) relevantInTop(list ranking.RankedList, queryID int, k int) int {
	n := 0
	for i, r := range list {
		if i >= k {
			break
		}
		if e.qrels.Grade(queryID, r.DocID) > 0 {
			n++
		}
	}
	return n
}
