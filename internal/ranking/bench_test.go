package ranking

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
)

var vocabulary = []string{
	"retrieval", "ranking", "query", "document", "index", "precision",
	"recall", "feedback", "probabilistic", "language", "model", "smoothing",
	"vector", "space", "similarity", "evaluation", "relevance", "judgement",
	"corpus", "posting", "frequency", "normalization", "divergence", "random",
}

func BenchmarkPL2ScoreOne(b *testing.B) {
	p := PL2{C: 7, Lambda: 0.1}
	sd := ScoreData{DocTermCount: 3, DocLength: 180, AvgDocLength: 150, QueryTermWeight: 1}
	b.ReportAllocs()
	var sink float64
	for i := 0; i < b.N; i++ {
		sd.DocTermCount = i%20 + 1
		sink += p.ScoreOne(sd)
	}
	_ = sink
}

func BenchmarkEngineRank(b *testing.B) {
	for _, numDocs := range []int{1000, 10000} {
		idx := syntheticIndex(numDocs)
		e := NewEngine(idx)
		q := query.Parse("ranking model smoothing relevance")
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := e.Rank(context.Background(), q, 1000, PL2{C: 0.6, Lambda: 0.1}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func syntheticIndex(numDocs int) *index.MemoryIndex {
	rng := rand.New(rand.NewPCG(42, 7))
	idx := index.NewMemoryIndex()
	for i := 0; i < numDocs; i++ {
		n := 20 + rng.IntN(200)
		words := make([]byte, 0, n*10)
		for j := 0; j < n; j++ {
			words = append(words, vocabulary[rng.IntN(len(vocabulary))]...)
			words = append(words, ' ')
		}
		idx.AddDocument("", string(words))
	}
	return idx
}
