package experiment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

func setup() (*index.MemoryIndex, *evaluation.Evaluator) {
	idx := index.NewMemoryIndex()
	idx.AddDocument("a.html", "ranking ranking ranking")
	idx.AddDocument("b.html", "ranking retrieval")
	idx.AddDocument("c.html", "pasta")
	qrels := evaluation.NewQrels()
	qrels.Add(0, 0, 1)
	return idx, evaluation.NewEvaluator(qrels)
}

func TestRunReport(t *testing.T) {
	idx, eval := setup()
	r := NewRunner(ranking.NewEngine(idx), eval, idx.Name, Config{Depth: 1000, PrecisionK: 10, ShowTop: 10})
	q := query.Parse("ranking")

	var out, sub bytes.Buffer
	sum, err := r.Run(context.Background(), []query.Query{q}, ranking.BM25{K1: 1.2, B: 0.75, K3: 500}, &out, &sub)
	if err != nil {
		t.Fatal(err)
	}
	if sum.MAP != 1 || sum.Queries != 1 {
		t.Errorf("summary = %+v", sum)
	}
	report := out.String()
	for _, want := range []string{
		"Ranking query 1: ranking\n",
		"Precision@10 for this query: 0.1\n",
		"Showing top 10 of 2 results.\n",
		"1.  a.html ",
		"2.  b.html ",
		"The MAP for all the queries: 1\n",
		"Elapsed time: ",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "c.html") {
		t.Errorf("non-matching document reported:\n%s", report)
	}
	fields := strings.Fields(sub.String())
	if len(fields) != 2 || fields[1] != "1" {
		t.Errorf("submission = %q", sub.String())
	}
}

func TestRunShowTopLimitsListing(t *testing.T) {
	idx, eval := setup()
	r := NewRunner(ranking.NewEngine(idx), eval, idx.Name, Config{Depth: 1000, PrecisionK: 10, ShowTop: 1})
	var out bytes.Buffer
	if _, err := r.Run(context.Background(), []query.Query{query.Parse("ranking")}, ranking.PL2{C: 1, Lambda: 1}, &out, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "\n2.  ") {
		t.Errorf("expected only the top result:\n%s", out.String())
	}
}

func TestRunNoQueries(t *testing.T) {
	idx, eval := setup()
	r := NewRunner(ranking.NewEngine(idx), eval, idx.Name, Config{Depth: 10, PrecisionK: 10, ShowTop: 10})
	_, err := r.Run(context.Background(), nil, ranking.PL2{C: 1, Lambda: 1}, &bytes.Buffer{}, nil)
	if !errors.Is(err, apperrors.ErrNoQueries) {
		t.Fatalf("expected no queries error, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRunReportsSubmissionWriteFailure(t *testing.T) {
	idx, eval := setup()
	r := NewRunner(ranking.NewEngine(idx), eval, idx.Name, Config{Depth: 10, PrecisionK: 10, ShowTop: 10})
	_, err := r.Run(context.Background(), []query.Query{query.Parse("ranking")}, ranking.PL2{C: 1, Lambda: 1}, &bytes.Buffer{}, failingWriter{})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected the write failure, got %v", err)
	}
}

func TestRunToFile(t *testing.T) {
	idx, eval := setup()
	r := NewRunner(ranking.NewEngine(idx), eval, idx.Name, Config{Depth: 1000, PrecisionK: 10, ShowTop: 10})
	path := filepath.Join(t.TempDir(), "out", "task4.txt")
	if _, err := r.RunToFile(context.Background(), []query.Query{query.Parse("ranking")}, ranking.BM25{K1: 1.2, B: 0.75, K3: 500}, &bytes.Buffer{}, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if fields := strings.Fields(string(data)); len(fields) != 2 || fields[1] != "1" {
		t.Errorf("submission file = %q", data)
	}
}

func TestRunToFileUnwritable(t *testing.T) {
	idx, eval := setup()
	r := NewRunner(ranking.NewEngine(idx), eval, idx.Name, Config{Depth: 10, PrecisionK: 10, ShowTop: 10})
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := r.RunToFile(context.Background(), []query.Query{query.Parse("ranking")}, ranking.PL2{C: 1, Lambda: 1}, &bytes.Buffer{}, filepath.Join(blocker, "task4.txt"))
	if err == nil {
		t.Fatal("expected an error when the submission directory cannot be created")
	}
}
