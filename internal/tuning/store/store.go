// Package store persists completed tuning sweeps so that past runs can be
// compared. The same schema is served by PostgreSQL and SQLite.
//
// Tables:
//
//	CREATE TABLE tuning_runs (
//	    run_id      TEXT PRIMARY KEY,
//	    best_map    DOUBLE PRECISION NOT NULL,
//	    best_c      DOUBLE PRECISION NOT NULL,
//	    best_lambda DOUBLE PRECISION NOT NULL,
//	    points      INTEGER NOT NULL,
//	    started_at  BIGINT NOT NULL,   -- unix milliseconds
//	    finished_at BIGINT NOT NULL
//	);
//	CREATE TABLE tuning_points (
//	    run_id      TEXT NOT NULL REFERENCES tuning_runs(run_id),
//	    idx         INTEGER NOT NULL,
//	    c           DOUBLE PRECISION NOT NULL,
//	    lambda      DOUBLE PRECISION NOT NULL,
//	    map         DOUBLE PRECISION NOT NULL,
//	    queries     INTEGER NOT NULL,
//	    duration_ms BIGINT NOT NULL,
//	    PRIMARY KEY (run_id, idx)
//	);
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/tuning"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/resilience"
)

// RunStore saves sweep results and returns the most recent one.
type RunStore interface {
	SaveRun(ctx context.Context, r tuning.Result) error
	LatestRun(ctx context.Context) (*tuning.Result, error)
	Close() error
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tuning_runs (
		run_id      TEXT PRIMARY KEY,
		best_map    DOUBLE PRECISION NOT NULL,
		best_c      DOUBLE PRECISION NOT NULL,
		best_lambda DOUBLE PRECISION NOT NULL,
		points      INTEGER NOT NULL,
		started_at  BIGINT NOT NULL,
		finished_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tuning_points (
		run_id      TEXT NOT NULL REFERENCES tuning_runs(run_id),
		idx         INTEGER NOT NULL,
		c           DOUBLE PRECISION NOT NULL,
		lambda      DOUBLE PRECISION NOT NULL,
		map         DOUBLE PRECISION NOT NULL,
		queries     INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL,
		PRIMARY KEY (run_id, idx)
	)`,
}

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// SQLStore implements RunStore over database/sql.
type SQLStore struct {
	db      *postgres.Client
	dialect dialect
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

// NewPostgres stores runs in PostgreSQL, creating the tables if needed.
// Saves are retried with backoff.
func NewPostgres(ctx context.Context, db *postgres.Client) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		dialect: dialectPostgres,
		retry:   resilience.RetryConfig{MaxAttempts: 3},
		logger:  slog.Default().With("component", "tuning-store", "backend", "postgres"),
	}
	if err := db.EnsureSchema(ctx, schema...); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLite stores runs in a local SQLite file. ":memory:" gives a private
// in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:"
	}
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// A single connection keeps an in-memory database alive and serializes
	// writers on a file database.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite %s: %w", path, err)
	}
	client := postgres.Wrap(db)
	if err := client.EnsureSchema(ctx, schema...); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{
		db:      client,
		dialect: dialectSQLite,
		retry:   resilience.RetryConfig{MaxAttempts: 1},
		logger:  slog.Default().With("component", "tuning-store", "backend", "sqlite"),
	}, nil
}

// SaveRun writes the run and all its grid points in one transaction.
func (s *SQLStore) SaveRun(ctx context.Context, r tuning.Result) error {
	if r.RunID == "" {
		return errors.New("saving tuning run: empty run id")
	}
	err := resilience.Retry(ctx, "save-tuning-run", s.retry, func() error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO tuning_runs (run_id, best_map, best_c, best_lambda, points, started_at, finished_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`),
				r.RunID, r.BestMAP, r.Best.C, r.Best.Lambda, len(r.Points),
				r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(),
			)
			if err != nil {
				return fmt.Errorf("inserting tuning run: %w", err)
			}
			stmt, err := tx.PrepareContext(ctx, s.rebind(
				`INSERT INTO tuning_points (run_id, idx, c, lambda, map, queries, duration_ms)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`))
			if err != nil {
				return fmt.Errorf("preparing point insert: %w", err)
			}
			defer stmt.Close()
			for _, p := range r.Points {
				if _, err := stmt.ExecContext(ctx,
					r.RunID, p.Index, p.Params.C, p.Params.Lambda, p.MAP, p.Recorded, p.Duration.Milliseconds(),
				); err != nil {
					return fmt.Errorf("inserting grid point %d: %w", p.Index, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("saving tuning run %s: %w", r.RunID, err)
	}
	s.logger.Info("tuning run saved", "run_id", r.RunID, "points", len(r.Points), "best_map", r.BestMAP)
	return nil
}

// LatestRun loads the most recently started run with its points in grid
// order. It returns nil, nil when no run has been saved.
func (s *SQLStore) LatestRun(ctx context.Context) (*tuning.Result, error) {
	var (
		r                 tuning.Result
		started, finished int64
		bestC, bestLambda float64
	)
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT run_id, best_map, best_c, best_lambda, started_at, finished_at
		 FROM tuning_runs ORDER BY started_at DESC, run_id DESC LIMIT 1`,
	).Scan(&r.RunID, &r.BestMAP, &bestC, &bestLambda, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest tuning run: %w", err)
	}
	r.Best = ranking.PL2{C: bestC, Lambda: bestLambda}
	r.StartedAt = time.UnixMilli(started).UTC()
	r.FinishedAt = time.UnixMilli(finished).UTC()

	rows, err := s.db.DB.QueryContext(ctx, s.rebind(
		`SELECT idx, c, lambda, map, queries, duration_ms
		 FROM tuning_points WHERE run_id = ? ORDER BY idx`), r.RunID)
	if err != nil {
		return nil, fmt.Errorf("querying grid points of %s: %w", r.RunID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p          tuning.GridPoint
			durationMs int64
		)
		if err := rows.Scan(&p.Index, &p.Params.C, &p.Params.Lambda, &p.MAP, &p.Recorded, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning grid point row: %w", err)
		}
		p.Duration = time.Duration(durationMs) * time.Millisecond
		r.Points = append(r.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading grid points of %s: %w", r.RunID, err)
	}
	return &r, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
