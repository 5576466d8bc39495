package ranking

import (
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

const DefaultPivotedS = 0.2

// PivotedLength is pivoted document length normalization with a doubly
// logarithmic term frequency.
type PivotedLength struct {
	S float64
}

func (p PivotedLength) validate() error {
	if !finite(p.S) || p.S < 0 || p.S > 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "pivoted-length s must be in [0, 1], got %v", p.S)
	}
	return nil
}

func (p PivotedLength) Method() Method { return MethodPivotedLength }

func (p PivotedLength) Params() []float64 { return []float64{p.S} }

func (p PivotedLength) InitialScore(ScoreData) float64 { return 0 }

func (p PivotedLength) ScoreOne(sd ScoreData) float64 {
	if sd.DocTermCount <= 0 {
		return 0
	}
	tf := 1 + math.Log(1+math.Log(float64(sd.DocTermCount)))
	ratio := 1.0
	if sd.AvgDocLength > 0 {
		ratio = float64(sd.DocLength) / sd.AvgDocLength
	}
	norm := (1 - p.S) + p.S*ratio
	idf := math.Log((float64(sd.NumDocs) + 1) / (0.5 + float64(sd.DocCount)))
	return tf / norm * sd.QueryTermWeight * idf
}
