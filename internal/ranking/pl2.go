package ranking

import (
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

const (
	DefaultPL2C      = 7.0
	DefaultPL2Lambda = 0.1
)

// PL2 is a divergence-from-randomness scorer with logarithmic term-frequency
// normalization. C controls how strongly frequencies in documents shorter
// than average are boosted; Lambda is the expected term rate the normalized
// frequency is compared against.
//
//	tfn   = tf * log2(1 + C * avgdl / dl)
//	score = qtw * (1 - 1/(tfn + 1)) * log2(1 + tfn / Lambda)
//
// Both factors are non-negative and non-decreasing in tf, so the score is too.
type PL2 struct {
	C      float64
	Lambda float64
}

// ValidatePL2 rejects parameters for which the formula is undefined.
func ValidatePL2(c, lambda float64) error {
	if !finite(c) || c <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "pl2 c must be positive and finite, got %v", c)
	}
	if !finite(lambda) || lambda <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "pl2 lambda must be positive and finite, got %v", lambda)
	}
	return nil
}

func (p PL2) Method() Method { return MethodPL2 }

func (p PL2) Params() []float64 { return []float64{p.C, p.Lambda} }

func (p PL2) InitialScore(ScoreData) float64 { return 0 }

func (p PL2) ScoreOne(sd ScoreData) float64 {
	if sd.DocTermCount <= 0 {
		return 0
	}
	ratio := 1.0
	if sd.AvgDocLength > 0 && sd.DocLength > 0 {
		ratio = sd.AvgDocLength / float64(sd.DocLength)
	}
	tfn := float64(sd.DocTermCount) * math.Log2(1+p.C*ratio)
	if !(tfn > 0) {
		return 0
	}
	gain := 1 - 1/(tfn+1)
	information := math.Log2(1 + tfn/p.Lambda)
	return sd.QueryTermWeight * gain * information
}
