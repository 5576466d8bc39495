package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/experiment"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking/cache"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/tuning"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/tuning/store"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/redis"
)

const tuneTask = "task7"

var validTasks = map[string]bool{"": true, "task4": true, "task5": true, "task6": true, tuneTask: true}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	task := flag.String("task", "", "task name (task4..task6 write a submission file, task7 tunes PL2)")
	rankerFile := flag.String("ranker", "", "load the scorer from a saved ranker file instead of the config")
	flag.Parse()

	if !validTasks[*task] {
		fmt.Fprintln(os.Stderr, "Invalid Usage")
		os.Exit(apperrors.ExitFailure)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitConfiguration)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *task, *rankerFile); err != nil {
		slog.Error("rankexp failed", "task", *task, "error", err)
		stop()
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, task, rankerFile string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if task == tuneTask {
		if err := cfg.ValidateTuning(); err != nil {
			return err
		}
	}

	m := metrics.New(prometheus.NewRegistry())
	defer m.ServeIfEnabled(cfg.Metrics.Enabled, cfg.Metrics.Port)()

	idx, err := index.Build(cfg.Index.CorpusPath(), cfg.Index.MetadataPath())
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, err, "building index")
	}
	engine := ranking.NewEngine(idx, ranking.WithMetrics(m))
	var ranker tuning.Ranker = engine
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, rank caching disabled", "error", err)
		} else {
			defer client.Close()
			ranker = cache.New(engine, client, cfg.Redis.CacheTTL, m, cache.WithStoreTimeout(cfg.Redis.StoreTimeout))
			slog.Info("rank cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	queries, err := query.Load(cfg.QueryPath())
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, err, "config needs a readable query file")
	}
	qrels, err := evaluation.LoadQrels(cfg.Eval.QrelsFile)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, err, "loading relevance judgements")
	}
	eval := evaluation.NewEvaluator(qrels)

	if task == tuneTask {
		return runTune(ctx, cfg, ranker, eval, queries, m)
	}

	scorer, err := loadScorer(cfg, rankerFile)
	if err != nil {
		return err
	}
	runner := experiment.NewRunner(ranker, eval, idx.Name, experiment.Config{
		Depth:      cfg.Eval.Depth,
		PrecisionK: cfg.Eval.PrecisionK,
		ShowTop:    cfg.Eval.ShowTop,
	})
	if task == "" {
		_, err = runner.Run(ctx, queries, scorer, os.Stdout, nil)
		return err
	}
	_, err = runner.RunToFile(ctx, queries, scorer, os.Stdout, filepath.Join(cfg.Tuning.OutputDir, task+".txt"))
	return err
}

func loadScorer(cfg *config.Config, rankerFile string) (ranking.Scorer, error) {
	if rankerFile == "" {
		return ranking.FromNamed(cfg.Ranker.Method, cfg.Ranker.Params)
	}
	f, err := os.Open(rankerFile)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, err, "opening ranker file")
	}
	defer f.Close()
	return ranking.Load(f)
}

func runTune(
	ctx context.Context,
	cfg *config.Config,
	ranker tuning.Ranker,
	eval *evaluation.Evaluator,
	queries []query.Query,
	m *metrics.Metrics,
) error {
	observers := []tuning.Observer{tuning.NewLogObserver(), tuning.NewMetricsObserver(m)}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.TuningEvents)
		defer producer.Close()
		events := tuning.NewEventObserver(producer, 0)
		events.Start(ctx)
		defer events.Close()
		observers = append(observers, events)
	}

	runStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if runStore != nil {
		defer runStore.Close()
		if prev, err := runStore.LatestRun(ctx); err != nil {
			slog.Warn("could not load previous tuning run", "error", err)
		} else if prev != nil {
			slog.Info("previous tuning run",
				"run_id", prev.RunID,
				"best_map", prev.BestMAP,
				"c", prev.Best.C,
				"lambda", prev.Best.Lambda,
			)
		}
	}

	result, err := tuning.Tune(ctx, tuning.Config{
		CValues:      cfg.Tuning.CValues,
		LambdaValues: cfg.Tuning.LambdaValues,
		Queries:      queries,
		Depth:        cfg.Eval.Depth,
		Workers:      cfg.Tuning.Workers,
	}, ranker, eval, tuning.WithObservers(observers...))
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, tuning.Summary(result))
	if err := tuning.SaveSubmission(filepath.Join(cfg.Tuning.OutputDir, tuneTask+".txt"), result); err != nil {
		return err
	}
	if cfg.Tuning.RankerFile != "" {
		if err := tuning.SaveBestRanker(cfg.Tuning.RankerFile, result); err != nil {
			return err
		}
	}
	if runStore != nil {
		if err := runStore.SaveRun(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.RunStore, error) {
	switch cfg.Tuning.Store {
	case "sqlite":
		s, err := store.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s, err := store.NewPostgres(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}
