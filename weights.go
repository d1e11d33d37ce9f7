package crossval

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/nctk/crossval/sample"
)

// WeightConfig holds the macro-weights of the member weighting formula:
// group weights for the training and testing sides, and per-metric weights
// within each side. Misrecognized and Unrecognized apply only to
// classification kinds.
type WeightConfig struct {
	TrainGroup float64
	TestGroup  float64

	Samples       float64
	Precision     float64
	Misrecognized float64
	Unrecognized  float64
}

// DefaultWeightConfig favors held-out statistics over training statistics
// and precision over the remaining metrics.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		TrainGroup:    1,
		TestGroup:     2,
		Samples:       1,
		Precision:     2,
		Misrecognized: 1,
		Unrecognized:  1,
	}
}

// computeWeights turns member statistics into normalized reliability
// weights. Each raw metric vector is rescaled to sum to 1 (error-like
// vectors inverted first, so lower error maps to higher weight), the
// rescaled vectors are combined per member with the macro-weights, and the
// scores pass through a softmax. A single member always gets weight 1.
func computeWeights(members []*Member, kind sample.Kind, cfg WeightConfig) []float64 {
	n := len(members)
	if n == 1 {
		return []float64{1}
	}

	trainSamples := make([]float64, n)
	testSamples := make([]float64, n)
	trainPrecision := make([]float64, n)
	testPrecision := make([]float64, n)
	trainMis := make([]float64, n)
	testMis := make([]float64, n)
	trainUnrec := make([]float64, n)
	testUnrec := make([]float64, n)
	for i, m := range members {
		trainSamples[i] = float64(m.Train.Samples)
		testSamples[i] = float64(m.Test.Samples)
		trainPrecision[i] = m.Train.Precision
		testPrecision[i] = m.Test.Precision
		if kind.Binary() {
			trainMis[i] = m.Train.Confusion.MisrecognizedRate()
			testMis[i] = m.Test.Confusion.MisrecognizedRate()
			trainUnrec[i] = m.Train.Confusion.UnrecognizedRate()
			testUnrec[i] = m.Test.Confusion.UnrecognizedRate()
		} else {
			// Neutral values; these vectors are unused for Continuous.
			trainMis[i], testMis[i], trainUnrec[i], testUnrec[i] = 1, 1, 1, 1
		}
	}

	rescale(trainSamples)
	rescale(testSamples)
	invert(trainPrecision)
	invert(testPrecision)
	invert(trainMis)
	invert(testMis)
	invert(trainUnrec)
	invert(testUnrec)

	scores := make([]float64, n)
	for i := range scores {
		train := cfg.Samples*trainSamples[i] + cfg.Precision*trainPrecision[i]
		test := cfg.Samples*testSamples[i] + cfg.Precision*testPrecision[i]
		if kind.Binary() {
			train += cfg.Misrecognized*trainMis[i] + cfg.Unrecognized*trainUnrec[i]
			test += cfg.Misrecognized*testMis[i] + cfg.Unrecognized*testUnrec[i]
		}
		scores[i] = cfg.TrainGroup*train + cfg.TestGroup*test
	}
	softmax(scores)
	return scores
}

// rescale normalizes v to sum to 1, falling back to uniform when the sum is
// not positive.
func rescale(v []float64) {
	sum := floats.Sum(v)
	if sum <= 0 {
		uniform(v)
		return
	}
	floats.Scale(1/sum, v)
}

// invert flips an error-like vector so lower values map to larger shares,
// then rescales it to sum to 1.
func invert(v []float64) {
	sum := floats.Sum(v)
	if sum <= 0 {
		uniform(v)
		return
	}
	for i := range v {
		v[i] = sum - v[i]
	}
	rescale(v)
}

func uniform(v []float64) {
	for i := range v {
		v[i] = 1 / float64(len(v))
	}
}

// softmax transforms scores in place into non-negative weights summing to 1.
func softmax(v []float64) {
	max := floats.Max(v)
	var sum float64
	for i := range v {
		v[i] = math.Exp(v[i] - max)
		sum += v[i]
	}
	floats.Scale(1/sum, v)
}
