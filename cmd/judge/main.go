package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/judgement"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/judgement/console"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitConfiguration)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("judge failed", "error", err)
		stop()
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Index.CorpusFile == "" {
		return apperrors.New(apperrors.ErrConfiguration, "index.corpusFile is required")
	}
	idx, err := index.Build(cfg.Index.CorpusPath(), cfg.Index.MetadataPath())
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, err, "building index")
	}

	m := metrics.New(prometheus.NewRegistry())
	defer m.ServeIfEnabled(cfg.Metrics.Enabled, cfg.Metrics.Port)()
	engine := ranking.NewEngine(idx, ranking.WithMetrics(m))
	scorer := ranking.Random(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	slog.Info("ranker selected", "method", scorer.Method())

	out, err := judgement.CreateFile(cfg.Judge.OutputFile)
	if err != nil {
		return fmt.Errorf("judgement output is not writable: %w", err)
	}
	defer out.Close()

	search := func(ctx context.Context, text string, limit int) (judgement.Results, error) {
		start := time.Now()
		list, err := engine.Rank(ctx, query.Parse(text), limit, scorer)
		if err != nil {
			return judgement.Results{}, err
		}
		res := judgement.Results{Items: make([]judgement.Result, len(list)), Elapsed: time.Since(start)}
		for i, r := range list {
			res.Items[i] = judgement.Result{DocID: r.DocID, Name: idx.Name(r.DocID), Score: r.Score}
		}
		return res, nil
	}

	session := judgement.NewSession(search, out,
		judgement.WithMaxResults(cfg.Judge.MaxResults),
		judgement.WithMetrics(m),
	)
	return console.Run(ctx, session, os.Stdin, os.Stdout)
}
