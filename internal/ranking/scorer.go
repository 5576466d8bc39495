// Package ranking scores documents against queries. A Scorer computes one
// matched term's contribution; the Engine sums contributions per document and
// keeps the best results.
package ranking

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

// Method identifies a scoring function variant.
type Method string

const (
	MethodPL2              Method = "pl2"
	MethodBM25             Method = "bm25"
	MethodPivotedLength    Method = "pivoted-length"
	MethodJelinekMercer    Method = "jelinek-mercer"
	MethodDirichletPrior   Method = "dirichlet-prior"
	MethodAbsoluteDiscount Method = "absolute-discount"
)

// ScoreData is everything a scorer may need about one (query term, document)
// match. Document-level fields are also filled when computing InitialScore.
type ScoreData struct {
	DocTermCount    int
	DocLength       int
	AvgDocLength    float64
	NumDocs         int
	DocCount        int
	CorpusTermCount int64
	TotalTerms      int64
	DocUniqueTerms  int
	QueryTermWeight float64
	QueryLength     float64
}

// Scorer is a stateless scoring function bound to its parameters.
type Scorer interface {
	Method() Method
	// ScoreOne returns one matched term's contribution to a document score.
	ScoreOne(sd ScoreData) float64
	// InitialScore is added once to every document that matches any term.
	InitialScore(sd ScoreData) float64
	// Params returns the parameters in serialization order.
	Params() []float64
}

type variant struct {
	params   []string
	defaults []float64
	build    func(p []float64) (Scorer, error)
}

var variants = map[Method]variant{
	MethodPL2: {
		params:   []string{"c", "lambda"},
		defaults: []float64{DefaultPL2C, DefaultPL2Lambda},
		build: func(p []float64) (Scorer, error) {
			if err := ValidatePL2(p[0], p[1]); err != nil {
				return nil, err
			}
			return PL2{C: p[0], Lambda: p[1]}, nil
		},
	},
	MethodBM25: {
		params:   []string{"k1", "b", "k3"},
		defaults: []float64{DefaultBM25K1, DefaultBM25B, DefaultBM25K3},
		build: func(p []float64) (Scorer, error) {
			s := BM25{K1: p[0], B: p[1], K3: p[2]}
			return s, s.validate()
		},
	},
	MethodPivotedLength: {
		params:   []string{"s"},
		defaults: []float64{DefaultPivotedS},
		build: func(p []float64) (Scorer, error) {
			s := PivotedLength{S: p[0]}
			return s, s.validate()
		},
	},
	MethodJelinekMercer: {
		params:   []string{"lambda"},
		defaults: []float64{DefaultJelinekMercerLambda},
		build: func(p []float64) (Scorer, error) {
			s := JelinekMercer{Lambda: p[0]}
			return s, s.validate()
		},
	},
	MethodDirichletPrior: {
		params:   []string{"mu"},
		defaults: []float64{DefaultDirichletMu},
		build: func(p []float64) (Scorer, error) {
			s := DirichletPrior{Mu: p[0]}
			return s, s.validate()
		},
	},
	MethodAbsoluteDiscount: {
		params:   []string{"delta"},
		defaults: []float64{DefaultAbsoluteDiscountDelta},
		build: func(p []float64) (Scorer, error) {
			s := AbsoluteDiscount{Delta: p[0]}
			return s, s.validate()
		},
	},
}

// baselines are the variants the judgement tool draws from.
var baselines = []Method{
	MethodBM25,
	MethodJelinekMercer,
	MethodPivotedLength,
	MethodDirichletPrior,
	MethodAbsoluteDiscount,
}

// Methods lists every variant in a stable order.
func Methods() []Method {
	methods := make([]Method, 0, len(variants))
	for m := range variants {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// ParamNames returns the parameter names of method in serialization order.
func ParamNames(method Method) ([]string, error) {
	v, ok := variants[method]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownMethod, "%q", method)
	}
	return append([]string(nil), v.params...), nil
}

// New builds a scorer from a method tag and its parameters in serialization
// order. Nil params selects the variant's defaults.
func New(method Method, params []float64) (Scorer, error) {
	v, ok := variants[method]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownMethod, "%q", method)
	}
	if params == nil {
		params = v.defaults
	}
	if len(params) != len(v.params) {
		return nil, apperrors.Newf(apperrors.ErrConfiguration,
			"%s takes %d parameters, got %d", method, len(v.params), len(params))
	}
	s, err := v.build(append([]float64(nil), params...))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FromNamed builds a scorer from named parameters, filling any missing name
// with its default. Unknown names are rejected.
func FromNamed(method string, named map[string]float64) (Scorer, error) {
	m := Method(method)
	v, ok := variants[m]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownMethod, "%q", method)
	}
	params := append([]float64(nil), v.defaults...)
	seen := 0
	for i, name := range v.params {
		if val, ok := named[name]; ok {
			params[i] = val
			seen++
		}
	}
	if seen != len(named) {
		return nil, apperrors.Newf(apperrors.ErrConfiguration,
			"%s accepts parameters %v, got %v", method, v.params, keys(named))
	}
	return New(m, params)
}

// Random picks one of the baseline rankers with default parameters.
func Random(rng *rand.Rand) Scorer {
	m := baselines[rng.IntN(len(baselines))]
	s, err := New(m, nil)
	if err != nil {
		panic(fmt.Sprintf("default parameters for %s rejected: %v", m, err))
	}
	return s
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
