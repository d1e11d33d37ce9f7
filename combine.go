package crossval

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/nctk/crossval/sample"
)

// probEpsilon keeps probabilities away from the logit singularities.
const probEpsilon = 1e-12

// combine merges the member outputs under the finalized weights.
func (c *Cluster) combine(input []float64) []float64 {
	outs := c.rawOutputs(input)
	switch c.kind {
	case sample.Continuous:
		return c.combineContinuous(outs)
	default:
		return c.combineProbabilities(outs)
	}
}

// combineContinuous is the per-dimension weighted arithmetic mean.
func (c *Cluster) combineContinuous(outs [][]float64) []float64 {
	result := make([]float64, c.outLen)
	for i, out := range outs {
		floats.AddScaled(result, c.weights[i], out)
	}
	return result
}

// combineProbabilities rescales raw outputs from the native range into
// [0, 1], pools them per dimension, renormalizes Distribution outputs to sum
// to 1, and maps the result back to the native range.
func (c *Cluster) combineProbabilities(outs [][]float64) []float64 {
	mixed := make([]float64, c.outLen)
	ps := make([]float64, len(outs))
	for dim := 0; dim < c.outLen; dim++ {
		for i, out := range outs {
			ps[i] = c.toProbability(out[dim])
		}
		mixed[dim] = mixProbabilities(ps, c.weights)
	}
	if c.kind == sample.Distribution {
		if sum := floats.Sum(mixed); sum > 0 {
			floats.Scale(1/sum, mixed)
		}
	}
	for i := range mixed {
		mixed[i] = c.fromProbability(mixed[i])
	}
	return mixed
}

func (c *Cluster) toProbability(v float64) float64 {
	p := (v - c.rangeMin) / (c.rangeMax - c.rangeMin)
	return math.Min(1, math.Max(0, p))
}

func (c *Cluster) fromProbability(p float64) float64 {
	return p*(c.rangeMax-c.rangeMin) + c.rangeMin
}

// mixProbabilities pools member probabilities with a weighted log-odds
// product. Pooling identical probabilities returns that probability, a
// zero-weight member has no effect, and the result stays in [0, 1].
func mixProbabilities(ps, weights []float64) float64 {
	var logit float64
	for i, p := range ps {
		p = math.Min(1-probEpsilon, math.Max(probEpsilon, p))
		logit += weights[i] * math.Log(p/(1-p))
	}
	return 1 / (1 + math.Exp(-logit))
}
