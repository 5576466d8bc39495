package tokenizer

import (
	"fmt"
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short": "Divergence from randomness ranking with the PL2 model",
	"medium": `Probabilistic ranking functions weight each query term by how far its
        observed frequency in a document diverges from what a random process would
        produce. Document length normalization rescales the raw term frequency
        before the information content of the term is measured.`,
	"long": strings.Repeat(`Evaluation of ranking functions relies on relevance judgements
        collected for a fixed query set. Average precision rewards systems that
        place relevant documents early, and the mean over all queries summarizes
        effectiveness in a single number that a parameter sweep can maximize. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Tokenize(text)
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Tokenize(text)
		}
	})
}

func BenchmarkCountsVaryingSize(b *testing.B) {
	baseWord := "ranking divergence randomness normalization "
	for _, size := range []int{10, 100, 1000, 5000} {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Counts(text)
			}
		})
	}
}
