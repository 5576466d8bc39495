package ranking

import (
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

const (
	DefaultJelinekMercerLambda   = 0.7
	DefaultDirichletMu           = 2000.0
	DefaultAbsoluteDiscountDelta = 0.7
)

// smoothing is what distinguishes the query-likelihood language models: the
// smoothed probability of a seen term and the document-dependent weight given
// to the collection model.
type smoothing interface {
	seenProb(sd ScoreData, pc float64) float64
	docConstant(sd ScoreData) float64
}

// lmScoreOne is qtw * log(p_s(w|d) / (alpha_d * p(w|C))).
func lmScoreOne(m smoothing, sd ScoreData) float64 {
	pc := collectionProb(sd)
	if pc <= 0 || sd.DocTermCount <= 0 {
		return 0
	}
	alpha := m.docConstant(sd)
	if alpha <= 0 {
		return 0
	}
	return sd.QueryTermWeight * math.Log(m.seenProb(sd, pc)/(alpha*pc))
}

// lmInitialScore is |q| * log(alpha_d).
func lmInitialScore(m smoothing, sd ScoreData) float64 {
	alpha := m.docConstant(sd)
	if alpha <= 0 {
		return 0
	}
	return sd.QueryLength * math.Log(alpha)
}

func collectionProb(sd ScoreData) float64 {
	if sd.TotalTerms <= 0 {
		return 0
	}
	return float64(sd.CorpusTermCount) / float64(sd.TotalTerms)
}

// JelinekMercer interpolates linearly with the collection model.
type JelinekMercer struct {
	Lambda float64
}

func (j JelinekMercer) validate() error {
	if !finite(j.Lambda) || j.Lambda <= 0 || j.Lambda >= 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "jelinek-mercer lambda must be in (0, 1), got %v", j.Lambda)
	}
	return nil
}

func (j JelinekMercer) Method() Method    { return MethodJelinekMercer }
func (j JelinekMercer) Params() []float64 { return []float64{j.Lambda} }

func (j JelinekMercer) seenProb(sd ScoreData, pc float64) float64 {
	return (1-j.Lambda)*float64(sd.DocTermCount)/float64(sd.DocLength) + j.Lambda*pc
}

func (j JelinekMercer) docConstant(ScoreData) float64 { return j.Lambda }

func (j JelinekMercer) ScoreOne(sd ScoreData) float64     { return lmScoreOne(j, sd) }
func (j JelinekMercer) InitialScore(sd ScoreData) float64 { return lmInitialScore(j, sd) }

// DirichletPrior smooths with a Dirichlet prior of strength Mu.
type DirichletPrior struct {
	Mu float64
}

func (d DirichletPrior) validate() error {
	if !finite(d.Mu) || d.Mu <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "dirichlet-prior mu must be positive, got %v", d.Mu)
	}
	return nil
}

func (d DirichletPrior) Method() Method    { return MethodDirichletPrior }
func (d DirichletPrior) Params() []float64 { return []float64{d.Mu} }

func (d DirichletPrior) seenProb(sd ScoreData, pc float64) float64 {
	return (float64(sd.DocTermCount) + d.Mu*pc) / (float64(sd.DocLength) + d.Mu)
}

func (d DirichletPrior) docConstant(sd ScoreData) float64 {
	return d.Mu / (float64(sd.DocLength) + d.Mu)
}

func (d DirichletPrior) ScoreOne(sd ScoreData) float64     { return lmScoreOne(d, sd) }
func (d DirichletPrior) InitialScore(sd ScoreData) float64 { return lmInitialScore(d, sd) }

// AbsoluteDiscount subtracts Delta from every seen count and redistributes
// the mass by the collection model.
type AbsoluteDiscount struct {
	Delta float64
}

func (a AbsoluteDiscount) validate() error {
	if !finite(a.Delta) || a.Delta <= 0 || a.Delta > 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "absolute-discount delta must be in (0, 1], got %v", a.Delta)
	}
	return nil
}

func (a AbsoluteDiscount) Method() Method    { return MethodAbsoluteDiscount }
func (a AbsoluteDiscount) Params() []float64 { return []float64{a.Delta} }

func (a AbsoluteDiscount) seenProb(sd ScoreData, pc float64) float64 {
	discounted := math.Max(float64(sd.DocTermCount)-a.Delta, 0)
	return discounted/float64(sd.DocLength) + a.docConstant(sd)*pc
}

func (a AbsoluteDiscount) docConstant(sd ScoreData) float64 {
	if sd.DocLength <= 0 {
		return 0
	}
	return a.Delta * float64(sd.DocUniqueTerms) / float64(sd.DocLength)
}

func (a AbsoluteDiscount) ScoreOne(sd ScoreData) float64     { return lmScoreOne(a, sd) }
func (a AbsoluteDiscount) InitialScore(sd ScoreData) float64 { return lmInitialScore(a, sd) }
