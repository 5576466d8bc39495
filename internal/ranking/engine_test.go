package ranking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
)

func newTestIndex() *index.MemoryIndex {
	idx := index.NewMemoryIndex()
	idx.AddDocument("ranking", "ranking functions for text retrieval")            // 0
	idx.AddDocument("tuning", "parameter tuning of ranking functions")            // 1
	idx.AddDocument("cooking", "cooking pasta with tomato sauce")                 // 2
	idx.AddDocument("ranking-heavy", "ranking ranking ranking retrieval ranking") // 3
	idx.AddDocument("twin-a", "garden flowers")                                   // 4
	idx.AddDocument("twin-b", "garden flowers")                                   // 5
	return idx
}

func TestEngineRanksMatchingDocuments(t *testing.T) {
	e := NewEngine(newTestIndex())
	for _, m := range Methods() {
		s, err := New(m, nil)
		if err != nil {
			t.Fatal(err)
		}
		t.Run(string(m), func(t *testing.T) {
			list, err := e.Rank(context.Background(), query.Parse("ranking retrieval"), 10, s)
			if err != nil {
				t.Fatalf("Rank: %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("expected 3 matching documents, got %v", list)
			}
			for _, r := range list {
				if r.DocID == 2 || r.DocID == 4 || r.DocID == 5 {
					t.Errorf("non-matching document %d ranked", r.DocID)
				}
			}
			assertOrdered(t, list)
		})
	}
}

func TestEngineTermFrequencyWins(t *testing.T) {
	e := NewEngine(newTestIndex())
	list, err := e.Rank(context.Background(), query.Parse("ranking"), 10, PL2{C: 7, Lambda: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) == 0 || list[0].DocID != 3 {
		t.Fatalf("expected the ranking-heavy document first, got %v", list)
	}
}

func TestEngineTiesBreakByDocID(t *testing.T) {
	e := NewEngine(newTestIndex())
	list, err := e.Rank(context.Background(), query.Parse("garden"), 10, BM25{K1: 1.2, B: 0.75, K3: 500})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Score != list[1].Score {
		t.Fatalf("expected two tied results, got %v", list)
	}
	if list[0].DocID != 4 || list[1].DocID != 5 {
		t.Errorf("expected ascending doc ids on tie, got %v", list.DocIDs())
	}
}

func TestEngineDepthBound(t *testing.T) {
	idx := index.NewMemoryIndex()
	for i := 0; i < 50; i++ {
		idx.AddDocument("", fmt.Sprintf("common %s", repeat("rare", i%7+1)))
	}
	e := NewEngine(idx)
	for _, depth := range []int{1, 5, 49, 50, 1000} {
		list, err := e.Rank(context.Background(), query.Parse("common rare"), depth, PL2{C: 0.6, Lambda: 1})
		if err != nil {
			t.Fatal(err)
		}
		want := min(depth, 50)
		if len(list) != want {
			t.Errorf("depth %d: got %d results, want %d", depth, len(list), want)
		}
		assertOrdered(t, list)
	}

	full, _ := e.Rank(context.Background(), query.Parse("common rare"), 50, PL2{C: 0.6, Lambda: 1})
	top, _ := e.Rank(context.Background(), query.Parse("common rare"), 5, PL2{C: 0.6, Lambda: 1})
	for i := range top {
		if top[i] != full[i] {
			t.Fatalf("bounded ranking diverges at %d: %v vs %v", i, top[i], full[i])
		}
	}
}

func TestEngineEmptyQueryAndNoMatch(t *testing.T) {
	e := NewEngine(newTestIndex())
	for _, text := range []string{"", "the of and", "zeppelin"} {
		list, err := e.Rank(context.Background(), query.Parse(text), 10, PL2{C: 1, Lambda: 1})
		if err != nil {
			t.Fatalf("%q: unexpected error %v", text, err)
		}
		if len(list) != 0 {
			t.Errorf("%q: expected no results, got %v", text, list)
		}
	}
}

func TestEngineRejectsBadDepth(t *testing.T) {
	e := NewEngine(newTestIndex())
	_, err := e.Rank(context.Background(), query.Parse("ranking"), 0, PL2{C: 1, Lambda: 1})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEngineHonoursCancellation(t *testing.T) {
	e := NewEngine(newTestIndex())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Rank(ctx, query.Parse("ranking"), 10, PL2{C: 1, Lambda: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngineMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := NewEngine(newTestIndex(), WithMetrics(m))
	s := PL2{C: 1, Lambda: 1}
	e.Rank(context.Background(), query.Parse("ranking"), 10, s)
	e.Rank(context.Background(), query.Parse("zeppelin"), 10, s)

	if got := testutil.ToFloat64(m.QueriesRankedTotal.WithLabelValues("pl2", "hit")); got != 1 {
		t.Errorf("hit count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.QueriesRankedTotal.WithLabelValues("pl2", "zero_result")); got != 1 {
		t.Errorf("zero_result count = %v, want 1", got)
	}
}

func assertOrdered(t *testing.T, list RankedList) {
	t.Helper()
	for i := 1; i < len(list); i++ {
		if before(list[i], list[i-1]) {
			t.Fatalf("results out of order at %d: %v then %v", i, list[i-1], list[i])
		}
	}
}

func repeat(word string, n int) string {
	out := word
	for i := 1; i < n; i++ {
		out += " " + word
	}
	return out
}
