// Package tuning searches the PL2 (c, lambda) grid for the pair that
// maximizes mean average precision over a fixed query set.
package tuning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/logger"
)

// Ranker produces a ranked list for one query under the given scorer.
type Ranker interface {
	Rank(ctx context.Context, q query.Query, depth int, s ranking.Scorer) (ranking.RankedList, error)
}

// Evaluator accumulates per-query average precision.
type Evaluator interface {
	AveragePrecision(list ranking.RankedList, queryID int, depth int) (float64, error)
	MeanAveragePrecision() (float64, error)
	Reset()
	Len() int
}

type Config struct {
	CValues      []float64
	LambdaValues []float64
	Queries      []query.Query
	Depth        int
	// Workers bounds how many queries of one grid point are ranked at once.
	// Zero means one.
	Workers int
}

func (c Config) validate() error {
	if len(c.CValues) == 0 {
		return apperrors.New(apperrors.ErrConfiguration, "empty c grid")
	}
	if len(c.LambdaValues) == 0 {
		return apperrors.New(apperrors.ErrConfiguration, "empty lambda grid")
	}
	if len(c.Queries) == 0 {
		return apperrors.New(apperrors.ErrConfiguration, "empty query set")
	}
	if c.Depth <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "ranking depth must be positive, got %d", c.Depth)
	}
	if c.Workers < 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "workers must not be negative, got %d", c.Workers)
	}
	for _, cv := range c.CValues {
		for _, lv := range c.LambdaValues {
			if err := ranking.ValidatePL2(cv, lv); err != nil {
				return err
			}
		}
	}
	seen := make(map[int]struct{}, len(c.Queries))
	for _, q := range c.Queries {
		if _, dup := seen[q.ID]; dup {
			return apperrors.Newf(apperrors.ErrConfiguration, "duplicate query id %d", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// GridPoint is the outcome of evaluating one (c, lambda) pair.
type GridPoint struct {
	Index    int
	Params   ranking.PL2
	MAP      float64
	Recorded int
	Duration time.Duration
}

// Result is the best pair of a completed sweep together with every point
// evaluated, in grid order.
type Result struct {
	RunID      string
	BestMAP    float64
	Best       ranking.PL2
	Points     []GridPoint
	StartedAt  time.Time
	FinishedAt time.Time
}

type options struct {
	runID     string
	observers []Observer
}

type Option func(*options)

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

func WithObservers(obs ...Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs...) }
}

// Tune evaluates every (c, lambda) pair, outer loop over c, and returns the
// pair with the highest MAP. Only a strictly greater MAP replaces the current
// best, so among equal maxima the first in grid order wins.
//
// Any ranking or evaluation failure aborts the sweep: the error wraps
// errors.ErrEngineFailure and the returned Result is the zero value.
func Tune(ctx context.Context, cfg Config, ranker Ranker, eval Evaluator, opts ...Option) (Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if ranker == nil || eval == nil {
		return Result{}, apperrors.New(apperrors.ErrConfiguration, "tuner needs a ranker and an evaluator")
	}
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = 1
	}
	notify := observers(o.observers)
	log := logger.FromContext(logger.WithRunID(ctx, o.runID)).With("component", "tuner")
	log.Info("sweep started",
		"c_values", len(cfg.CValues),
		"lambda_values", len(cfg.LambdaValues),
		"queries", len(cfg.Queries),
		"depth", cfg.Depth,
		"workers", workers,
	)

	eval.Reset()
	res := Result{
		RunID:     o.runID,
		StartedAt: time.Now(),
		Points:    make([]GridPoint, 0, len(cfg.CValues)*len(cfg.LambdaValues)),
	}
	for _, c := range cfg.CValues {
		for _, lambda := range cfg.LambdaValues {
			params := ranking.PL2{C: c, Lambda: lambda}
			point, err := evaluatePoint(ctx, cfg, workers, params, ranker, eval)
			if err != nil {
				eval.Reset()
				err = apperrors.Wrap(apperrors.ErrEngineFailure, err, "grid point c=%g lambda=%g", c, lambda)
				log.Error("sweep aborted", "c", c, "lambda", lambda, "error", err)
				notify.SweepFailed(o.runID, err)
				return Result{}, err
			}
			point.Index = len(res.Points)
			res.Points = append(res.Points, point)
			if point.Index == 0 || point.MAP > res.BestMAP {
				res.BestMAP = point.MAP
				res.Best = params
			}
			log.Debug("grid point evaluated",
				"c", c,
				"lambda", lambda,
				"map", point.MAP,
				"best_map", res.BestMAP,
			)
			notify.GridPointEvaluated(o.runID, point)
		}
	}
	res.FinishedAt = time.Now()
	log.Info("sweep finished",
		"best_map", res.BestMAP,
		"c", res.Best.C,
		"lambda", res.Best.Lambda,
		"duration", res.FinishedAt.Sub(res.StartedAt),
	)
	notify.SweepFinished(res)
	return res, nil
}

// evaluatePoint ranks every query under params, then records each query's AP
// in query order. The evaluator is left empty on return.
func evaluatePoint(
	ctx context.Context,
	cfg Config,
	workers int,
	params ranking.PL2,
	ranker Ranker,
	eval Evaluator,
) (GridPoint, error) {
	start := time.Now()
	lists := make([]ranking.RankedList, len(cfg.Queries))
	rankOne := func(ctx context.Context, i int) error {
		q := cfg.Queries[i]
		list, err := ranker.Rank(ctx, q, cfg.Depth, params)
		if err != nil {
			return fmt.Errorf("ranking query %d: %w", q.ID, err)
		}
		if len(list) > cfg.Depth {
			return fmt.Errorf("ranking query %d: %d results exceed depth %d", q.ID, len(list), cfg.Depth)
		}
		lists[i] = list
		return nil
	}

	if workers <= 1 {
		for i := range cfg.Queries {
			if err := rankOne(ctx, i); err != nil {
				return GridPoint{}, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range cfg.Queries {
			g.Go(func() error { return rankOne(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return GridPoint{}, err
		}
	}

	if n := eval.Len(); n != 0 {
		return GridPoint{}, fmt.Errorf("evaluator holds %d entries from an earlier grid point", n)
	}
	for i, q := range cfg.Queries {
		if _, err := eval.AveragePrecision(lists[i], q.ID, cfg.Depth); err != nil {
			return GridPoint{}, fmt.Errorf("recording average precision for query %d: %w", q.ID, err)
		}
	}
	mapValue, err := eval.MeanAveragePrecision()
	if err != nil {
		return GridPoint{}, fmt.Errorf("computing MAP: %w", err)
	}
	recorded := eval.Len()
	eval.Reset()
	return GridPoint{
		Params:   params,
		MAP:      mapValue,
		Recorded: recorded,
		Duration: time.Since(start),
	}, nil
}
