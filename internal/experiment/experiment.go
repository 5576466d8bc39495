// Package experiment ranks a query set with one scorer and reports
// per-query precision, the top results and the overall MAP.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
)

type Ranker interface {
	Rank(ctx context.Context, q query.Query, depth int, s ranking.Scorer) (ranking.RankedList, error)
}

type Evaluator interface {
	AveragePrecision(list ranking.RankedList, queryID int, depth int) (float64, error)
	Precision(list ranking.RankedList, queryID int, k int) float64
	MeanAveragePrecision() (float64, error)
}

type Config struct {
	Depth      int
	PrecisionK int
	ShowTop    int
}

type Summary struct {
	MAP     float64
	Queries int
	Elapsed time.Duration
}

type Runner struct {
	ranker Ranker
	eval   Evaluator
	names  func(docID uint64) string
	cfg    Config
	logger *slog.Logger
}

func NewRunner(ranker Ranker, eval Evaluator, names func(docID uint64) string, cfg Config) *Runner {
	return &Runner{
		ranker: ranker,
		eval:   eval,
		names:  names,
		cfg:    cfg,
		logger: slog.Default().With("component", "experiment"),
	}
}

// Run ranks every query with s, writing the report to out. When submission
// is not nil, each query's top score and finally the MAP are written to it
// with five significant digits.
func (r *Runner) Run(ctx context.Context, queries []query.Query, s ranking.Scorer, out io.Writer, submission io.Writer) (Summary, error) {
	start := time.Now()
	for i, q := range queries {
		fmt.Fprintf(out, "Ranking query %d: %s\n", i+1, q.Text)
		list, err := r.ranker.Rank(ctx, q, r.cfg.Depth, s)
		if err != nil {
			return Summary{}, fmt.Errorf("ranking query %d: %w", q.ID, err)
		}
		fmt.Fprintf(out, "Precision@%d for this query: %.6g\n", r.cfg.PrecisionK, r.eval.Precision(list, q.ID, r.cfg.PrecisionK))
		if submission != nil {
			top := 0.0
			if len(list) > 0 {
				top = list[0].Score
			}
			if _, err := fmt.Fprintf(submission, "%.5g ", top); err != nil {
				return Summary{}, fmt.Errorf("writing submission: %w", err)
			}
		}
		if _, err := r.eval.AveragePrecision(list, q.ID, r.cfg.Depth); err != nil {
			return Summary{}, fmt.Errorf("recording average precision for query %d: %w", q.ID, err)
		}
		fmt.Fprintf(out, "Showing top %d of %d results.\n", r.cfg.ShowTop, len(list))
		for j, res := range list {
			if j >= r.cfg.ShowTop {
				break
			}
			fmt.Fprintf(out, "%d.  %s %.6g\n", j+1, r.names(res.DocID), res.Score)
		}
		fmt.Fprintln(out)
	}
	mapValue, err := r.eval.MeanAveragePrecision()
	if err != nil {
		return Summary{}, err
	}
	elapsed := time.Since(start)
	fmt.Fprintf(out, "The MAP for all the queries: %.6g\n", mapValue)
	if submission != nil {
		if _, err := fmt.Fprintf(submission, "%.5g", mapValue); err != nil {
			return Summary{}, fmt.Errorf("writing submission: %w", err)
		}
	}
	fmt.Fprintf(out, "Elapsed time: %dms\n", elapsed.Milliseconds())
	r.logger.Info("experiment finished",
		"method", s.Method(),
		"queries", len(queries),
		"map", mapValue,
		"elapsed", elapsed,
	)
	return Summary{MAP: mapValue, Queries: len(queries), Elapsed: elapsed}, nil
}

// RunToFile is Run with the submission written to path, creating its
// directory. A write or close failure is returned so a truncated submission
// is never reported as success.
func (r *Runner) RunToFile(ctx context.Context, queries []query.Query, s ranking.Scorer, out io.Writer, path string) (Summary, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening submission file %s: %w", path, err)
	}
	summary, err := r.Run(ctx, queries, s, out, f)
	if err != nil {
		f.Close()
		return Summary{}, err
	}
	if err := f.Close(); err != nil {
		return Summary{}, fmt.Errorf("closing submission file %s: %w", path, err)
	}
	return summary, nil
}
