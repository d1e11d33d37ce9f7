package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nctk/crossval/stats"
)

func TestPrecision(t *testing.T) {
	var p stats.Precision
	assert.Equal(t, 0.0, p.Mean())
	assert.Equal(t, 0, p.N())

	// Per-sample RMS: sqrt((1+1)/2) = 1 for the first pair, 0 for the second.
	p.Add([]float64{0, 0}, []float64{1, -1})
	p.Add([]float64{2, 2}, []float64{2, 2})
	assert.Equal(t, 2, p.N())
	assert.InDelta(t, 0.5, p.Mean(), 1e-12)
}

func TestPrecisionAccumulates(t *testing.T) {
	var p stats.Precision
	p.Add([]float64{0}, []float64{1})
	p.Add([]float64{0}, []float64{3})
	p.Add([]float64{0}, []float64{0})
	assert.Equal(t, 3, p.N())
	assert.InDelta(t, 4.0/3, p.Mean(), 1e-12)
}

func TestConfusionBinary(t *testing.T) {
	var c stats.Confusion
	c.ObserveBinary(1, 0.9, 0.5) // hit
	c.ObserveBinary(0, 0.8, 0.5) // misrecognized
	c.ObserveBinary(1, 0.2, 0.5) // unrecognized
	c.ObserveBinary(0, 0.1, 0.5) // correct rejection
	assert.Equal(t, 4, c.Total)
	assert.Equal(t, 1, c.Misrecognized)
	assert.Equal(t, 1, c.Unrecognized)
	assert.Equal(t, 2, c.Errors())
	assert.InDelta(t, 0.25, c.MisrecognizedRate(), 1e-12)
	assert.InDelta(t, 0.25, c.UnrecognizedRate(), 1e-12)
}

func TestConfusionDistribution(t *testing.T) {
	var c stats.Confusion
	c.ObserveDistribution([]float64{0, 1, 0}, []float64{0.1, 0.8, 0.1}, 0.5) // hit
	c.ObserveDistribution([]float64{1, 0, 0}, []float64{0.2, 0.7, 0.1}, 0.5) // wrong class
	c.ObserveDistribution([]float64{0, 0, 1}, []float64{0.3, 0.3, 0.4}, 0.5) // below threshold
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, 1, c.Misrecognized)
	assert.Equal(t, 1, c.Unrecognized)
}

func TestConfusionEmptyRates(t *testing.T) {
	var c stats.Confusion
	assert.Equal(t, 0.0, c.MisrecognizedRate())
	assert.Equal(t, 0.0, c.UnrecognizedRate())
}

func TestConfusionMerge(t *testing.T) {
	a := stats.Confusion{Misrecognized: 1, Unrecognized: 2, Total: 10}
	a.Merge(stats.Confusion{Misrecognized: 3, Unrecognized: 0, Total: 5})
	assert.Equal(t, stats.Confusion{Misrecognized: 4, Unrecognized: 2, Total: 15}, a)
}
