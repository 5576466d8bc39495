package ranking

import (
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

const (
	DefaultBM25K1 = 1.2
	DefaultBM25B  = 0.75
	DefaultBM25K3 = 500.0
)

// BM25 is Okapi BM25 with query term frequency saturation controlled by K3.
type BM25 struct {
	K1 float64
	B  float64
	K3 float64
}

func (s BM25) validate() error {
	if !finite(s.K1) || s.K1 < 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "bm25 k1 must be non-negative, got %v", s.K1)
	}
	if !finite(s.B) || s.B < 0 || s.B > 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "bm25 b must be in [0, 1], got %v", s.B)
	}
	if !finite(s.K3) || s.K3 < 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "bm25 k3 must be non-negative, got %v", s.K3)
	}
	return nil
}

func (s BM25) Method() Method { return MethodBM25 }

func (s BM25) Params() []float64 { return []float64{s.K1, s.B, s.K3} }

func (s BM25) InitialScore(ScoreData) float64 { return 0 }

func (s BM25) ScoreOne(sd ScoreData) float64 {
	idf := computeIDF(int64(sd.NumDocs), int64(sd.DocCount))
	tf := s.computeTFNorm(float64(sd.DocTermCount), float64(sd.DocLength), sd.AvgDocLength)
	qtf := ((s.K3 + 1) * sd.QueryTermWeight) / (s.K3 + sd.QueryTermWeight)
	return tf * idf * qtf
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func (s BM25) computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	lengthRatio := 1.0
	if avgDocLength > 0 {
		lengthRatio = docLength / avgDocLength
	}
	denominator := termFreq + s.K1*(1-s.B+s.B*lengthRatio)
	if denominator == 0 {
		return 0
	}
	return (termFreq * (s.K1 + 1)) / denominator
}
