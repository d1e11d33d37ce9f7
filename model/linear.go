package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/nctk/crossval"
)

type activation int

const (
	identity activation = iota
	sigmoid
	softmax
)

// linearModel is a generalized linear model: per-output dot products of the
// term expansion, passed through an output activation.
type linearModel struct {
	termer Termer
	inDim  int
	beta   [][]float64 // [output][term]
	act    activation
}

func newLinearModel(termer Termer, inDim, outDim int, act activation) *linearModel {
	nTerms := termer.NumTerms(inDim)
	beta := make([][]float64, outDim)
	for i := range beta {
		beta[i] = make([]float64, nTerms)
	}
	return &linearModel{termer: termer, inDim: inDim, beta: beta, act: act}
}

func (m *linearModel) Compute(input []float64) []float64 {
	terms := make([]float64, m.termer.NumTerms(m.inDim))
	m.termer.Terms(terms, input)
	out := make([]float64, len(m.beta))
	for o := range m.beta {
		out[o] = floats.Dot(terms, m.beta[o])
	}
	switch m.act {
	case sigmoid:
		for i, v := range out {
			out[i] = 1 / (1 + math.Exp(-v))
		}
	case softmax:
		max := floats.Max(out)
		var sum float64
		for i, v := range out {
			out[i] = math.Exp(v - max)
			sum += out[i]
		}
		floats.Scale(1/sum, out)
	}
	return out
}

func (m *linearModel) OutputLen() int { return len(m.beta) }

func (m *linearModel) RandomizeWeights(rnd *rand.Rand) {
	scale := 1 / math.Sqrt(float64(len(m.beta[0])))
	for o := range m.beta {
		for t := range m.beta[o] {
			m.beta[o][t] = rnd.NormFloat64() * scale
		}
	}
}

func (m *linearModel) WeightsStat() float64 {
	var ss float64
	var n int
	for o := range m.beta {
		for _, v := range m.beta[o] {
			ss += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(ss / float64(n))
}

func (m *linearModel) Clone() crossval.Model {
	clone := &linearModel{termer: m.termer, inDim: m.inDim, act: m.act}
	clone.beta = make([][]float64, len(m.beta))
	for o := range m.beta {
		clone.beta[o] = append([]float64(nil), m.beta[o]...)
	}
	return clone
}
