package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/tuning"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/postgres"
)

func sampleRun(id string, started time.Time) tuning.Result {
	return tuning.Result{
		RunID:   id,
		BestMAP: 0.3125,
		Best:    ranking.PL2{C: 0.6, Lambda: 0.01},
		Points: []tuning.GridPoint{
			{Index: 0, Params: ranking.PL2{C: 0.3, Lambda: 0.01}, MAP: 0.25, Recorded: 4, Duration: 120 * time.Millisecond},
			{Index: 1, Params: ranking.PL2{C: 0.6, Lambda: 0.01}, MAP: 0.3125, Recorded: 4, Duration: 95 * time.Millisecond},
		},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}
}

func testRunStore(t *testing.T, s RunStore) {
	t.Helper()
	ctx := context.Background()

	latest, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun on empty store: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected no run, got %+v", latest)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := sampleRun("run-a-"+uuid.NewString(), base)
	newer := sampleRun("run-b-"+uuid.NewString(), base.Add(time.Hour))
	newer.BestMAP = 0.5
	for _, r := range []tuning.Result{older, newer} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun(%s): %v", r.RunID, err)
		}
	}

	latest, err = s.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.RunID != newer.RunID {
		t.Fatalf("expected %s as latest, got %+v", newer.RunID, latest)
	}
	if latest.BestMAP != 0.5 || latest.Best != newer.Best {
		t.Errorf("best = (%v, %+v), want (0.5, %+v)", latest.BestMAP, latest.Best, newer.Best)
	}
	if !latest.StartedAt.Equal(newer.StartedAt) || !latest.FinishedAt.Equal(newer.FinishedAt) {
		t.Errorf("timestamps = %v..%v, want %v..%v", latest.StartedAt, latest.FinishedAt, newer.StartedAt, newer.FinishedAt)
	}
	if len(latest.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(latest.Points))
	}
	for i, p := range latest.Points {
		if p != newer.Points[i] {
			t.Errorf("point %d = %+v, want %+v", i, p, newer.Points[i])
		}
	}

	if err := s.SaveRun(ctx, older); err == nil {
		t.Error("expected duplicate run id to fail")
	}
	if err := s.SaveRun(ctx, tuning.Result{}); err == nil {
		t.Error("expected empty run id to fail")
	}
}

func TestSQLiteMemory(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	testRunStore(t, s)
}

func TestSQLiteFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	run := sampleRun("persisted", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	latest, err := reopened.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.RunID != "persisted" || len(latest.Points) != 2 {
		t.Fatalf("unexpected run after reopen: %+v", latest)
	}
}

// TestPostgres runs against the database named by RL_TEST_POSTGRES_DSN.
func TestPostgres(t *testing.T) {
	dsn := os.Getenv("RL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RL_TEST_POSTGRES_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	client := postgres.Wrap(db)
	ctx := context.Background()
	for _, stmt := range []string{"DROP TABLE IF EXISTS tuning_points", "DROP TABLE IF EXISTS tuning_runs"} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatal(err)
		}
	}
	s, err := NewPostgres(ctx, client)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer s.Close()
	testRunStore(t, s)
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: dialectPostgres}
	if got := pg.rebind("SELECT ? , ? FROM t WHERE x = ?"); got != "SELECT $1 , $2 FROM t WHERE x = $3" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &SQLStore{dialect: dialectSQLite}
	if got := lite.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}
