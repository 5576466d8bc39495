package evaluation

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

func list(ids ...uint64) ranking.RankedList {
	out := make(ranking.RankedList, len(ids))
	for i, id := range ids {
		out[i] = ranking.SearchResult{DocID: id, Score: float64(len(ids) - i)}
	}
	return out
}

func sampleQrels() *Qrels {
	q := NewQrels()
	q.Add(0, 1, 1)
	q.Add(0, 3, 1)
	q.Add(1, 10, 2)
	q.Add(1, 5, 0)
	return q
}

func TestAveragePrecision(t *testing.T) {
	tests := []struct {
		name  string
		qid   int
		list  ranking.RankedList
		depth int
		want  float64
	}{
		{"two relevant", 0, list(1, 2, 3), 1000, (1.0 + 2.0/3.0) / 2},
		{"depth cut", 0, list(1, 2, 3), 2, 0.5},
		{"nothing relevant retrieved", 0, list(4, 5), 1000, 0},
		{"empty list", 0, nil, 1000, 0},
		{"unjudged query", 7, list(1, 3), 1000, 0},
		{"zero grade ignored", 1, list(5, 10), 1000, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator(sampleQrels())
			got, err := e.AveragePrecision(tt.list, tt.qid, tt.depth)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AP = %v, want %v", got, tt.want)
			}
			if e.Len() != 1 {
				t.Errorf("expected the value to be recorded, Len = %d", e.Len())
			}
		})
	}
}

func TestAveragePrecisionRejectsBadDepth(t *testing.T) {
	e := NewEvaluator(sampleQrels())
	if _, err := e.AveragePrecision(list(1), 0, 0); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if e.Len() != 0 {
		t.Errorf("rejected call should not record, Len = %d", e.Len())
	}
}

func TestMeanAveragePrecision(t *testing.T) {
	e := NewEvaluator(sampleQrels())
	if _, err := e.MeanAveragePrecision(); !errors.Is(err, apperrors.ErrNoQueries) {
		t.Fatalf("expected no queries error, got %v", err)
	}

	e.AveragePrecision(list(1, 2, 3), 0, 1000)
	e.AveragePrecision(list(5, 10), 1, 1000)
	e.AveragePrecision(nil, 2, 1000)

	got, err := e.MeanAveragePrecision()
	if err != nil {
		t.Fatal(err)
	}
	want := ((1.0+2.0/3.0)/2 + 0.5 + 0) / 3
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("MAP = %v, want %v", got, want)
	}

	e.Reset()
	if e.Len() != 0 {
		t.Errorf("Reset left %d values", e.Len())
	}
	if _, err := e.MeanAveragePrecision(); !errors.Is(err, apperrors.ErrNoQueries) {
		t.Errorf("expected no queries after reset, got %v", err)
	}
}

func TestRecordingSameQueryKeepsLatest(t *testing.T) {
	e := NewEvaluator(sampleQrels())
	e.AveragePrecision(list(2, 1), 0, 1000)
	e.AveragePrecision(list(1, 3), 0, 1000)
	if e.Len() != 1 {
		t.Fatalf("Len = %d, want 1", e.Len())
	}
	if got := e.Scores()[0]; got != 1 {
		t.Errorf("recorded AP = %v, want 1", got)
	}
}

func TestGMAPFloorsZeros(t *testing.T) {
	e := NewEvaluator(sampleQrels())
	e.AveragePrecision(list(1, 2, 3), 0, 2)
	e.AveragePrecision(nil, 1, 1000)
	got, err := e.GMAP()
	if err != nil {
		t.Fatal(err)
	}
	want := math.Sqrt(0.5 * gmapEpsilon)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("GMAP = %v, want %v", got, want)
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	e := NewEvaluator(sampleQrels())
	l := list(1, 2, 4, 3)
	if got := e.Precision(l, 0, 2); got != 0.5 {
		t.Errorf("P@2 = %v, want 0.5", got)
	}
	if got := e.Precision(l, 0, 10); got != 0.2 {
		t.Errorf("P@10 = %v, want 0.2", got)
	}
	if got := e.Recall(l, 0, 2); got != 0.5 {
		t.Errorf("R@2 = %v, want 0.5", got)
	}
	if got := e.Recall(l, 0, 4); got != 1 {
		t.Errorf("R@4 = %v, want 1", got)
	}
	if got := e.F1(l, 0, 2); got != 0.5 {
		t.Errorf("F1@2 = %v, want 0.5", got)
	}
	if got := e.Precision(l, 0, 0); got != 0 {
		t.Errorf("P@0 = %v, want 0", got)
	}
	if e.Len() != 0 {
		t.Error("set metrics should not record AP")
	}
}

func TestNDCG(t *testing.T) {
	q := NewQrels()
	q.Add(0, 1, 2)
	q.Add(0, 3, 1)
	e := NewEvaluator(q)

	if got := e.NDCG(list(1, 3), 0, 10); math.Abs(got-1) > 1e-12 {
		t.Errorf("ideal ordering NDCG = %v, want 1", got)
	}
	got := e.NDCG(list(3, 1), 0, 10)
	dcg := 1.0 + 3.0/math.Log2(3)
	idcg := 3.0 + 1.0/math.Log2(3)
	if math.Abs(got-dcg/idcg) > 1e-12 {
		t.Errorf("NDCG = %v, want %v", got, dcg/idcg)
	}
	if got := e.NDCG(list(1), 5, 10); got != 0 {
		t.Errorf("unjudged query NDCG = %v, want 0", got)
	}
}

func TestLoadQrels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrels")
	content := "0 12 1\n0 40 2\n\n1 12 0\n2 7 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	q, err := LoadQrels(path)
	if err != nil {
		t.Fatal(err)
	}
	if q.NumRelevant(0) != 2 || q.Grade(0, 40) != 2 {
		t.Errorf("query 0 judgements wrong: rel=%d grade=%d", q.NumRelevant(0), q.Grade(0, 40))
	}
	if q.NumRelevant(1) != 0 {
		t.Errorf("zero grades should not count as relevant")
	}
	if q.Grade(2, 7) != 1 {
		t.Errorf("query 2 grade = %d, want 1", q.Grade(2, 7))
	}
}

func TestLoadQrelsMalformed(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"fields": "0 12\n",
		"qid":    "x 12 1\n",
		"doc":    "0 -3 1\n",
		"grade":  "0 12 high\n",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadQrels(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := LoadQrels(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
