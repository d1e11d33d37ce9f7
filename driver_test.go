package crossval_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nctk/crossval"
	"github.com/nctk/crossval/sample"
)

func TestNewDriverErrors(t *testing.T) {
	b := constBundle(4, []float64{0})

	_, err := crossval.NewDriver(nil, sample.Continuous, b, b)
	assert.Error(t, err, "nil config")

	one := b.Subset([]int{0})
	_, err = crossval.NewDriver(fakeConfig{seq: [][]float64{{0}}}, sample.Continuous, b, one)
	assert.Error(t, err, "single-sample test side")

	wide, err := sample.NewBundle([][]float64{{1}, {2}}, [][]float64{{0, 0}, {0, 0}})
	require.NoError(t, err)
	_, err = crossval.NewDriver(fakeConfig{seq: [][]float64{{0}}}, sample.Continuous, b, wide)
	assert.Error(t, err, "ideal dim mismatch")

	in2, err := sample.NewBundle([][]float64{{1, 1}, {2, 2}}, [][]float64{{0}, {0}})
	require.NoError(t, err)
	_, err = crossval.NewDriver(fakeConfig{seq: [][]float64{{0}}}, sample.Continuous, b, in2)
	assert.Error(t, err, "input dim mismatch")
}

func TestTrainOutputLenMismatch(t *testing.T) {
	b := constBundle(4, []float64{0})
	d, err := crossval.NewDriver(fakeConfig{seq: [][]float64{{0, 0}}}, sample.Continuous, b, b)
	require.NoError(t, err)
	_, err = d.Train(rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestTrainKeepsBest(t *testing.T) {
	// Error against the all-zero ideal is the output magnitude, so the
	// second iteration is the best state and must survive the worse third.
	b := constBundle(4, []float64{0})
	cfg := fakeConfig{seq: [][]float64{{0.5}, {0.1}, {0.4}}}
	d, err := crossval.NewDriver(cfg, sample.Continuous, b, b)
	require.NoError(t, err)
	m, err := d.Train(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.InDelta(t, 0.1, m.Model.Compute([]float64{0})[0], 1e-12)
	assert.InDelta(t, 0.1, m.Test.Precision, 1e-12)
	assert.InDelta(t, 0.1, m.Train.Precision, 1e-12)
	assert.Equal(t, 4, m.Test.Samples)
}

func TestTrainFirstIterationErrorIsFatal(t *testing.T) {
	b := constBundle(4, []float64{0})
	d, err := crossval.NewDriver(fakeConfig{seq: [][]float64{{0.5}}, errAt: 1}, sample.Continuous, b, b)
	require.NoError(t, err)
	_, err = d.Train(rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestTrainLaterErrorKeepsBest(t *testing.T) {
	b := constBundle(4, []float64{0})
	d, err := crossval.NewDriver(fakeConfig{seq: [][]float64{{0.5}, {0.1}}, errAt: 2}, sample.Continuous, b, b)
	require.NoError(t, err)
	m, err := d.Train(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.Model.Compute(nil)[0], 1e-12)
}

func TestTrainRestartAttempts(t *testing.T) {
	b := constBundle(4, []float64{0})
	var attempts []int
	d, err := crossval.NewDriver(fakeConfig{seq: [][]float64{{0.3}, {0.2}}, attempts: 2},
		sample.Continuous, b, b,
		crossval.WithProgress(func(p crossval.Progress) { attempts = append(attempts, p.Attempt) }))
	require.NoError(t, err)
	m, err := d.Train(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 2}, attempts)
	assert.InDelta(t, 0.2, m.Model.Compute(nil)[0], 1e-12)
}

func TestDefaultStopEndsCleanClassification(t *testing.T) {
	// Once the best state classifies everything correctly, a worsening
	// precision error ends the run before the script is exhausted.
	b := constBundle(4, []float64{1})
	cfg := fakeConfig{seq: [][]float64{{0.9}, {0.9}, {0.8}, {0.3}}}
	reports := 0
	d, err := crossval.NewDriver(cfg, sample.SingleProbability, b, b,
		crossval.WithProgress(func(crossval.Progress) { reports++ }))
	require.NoError(t, err)
	m, err := d.Train(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 3, reports)
	assert.InDelta(t, 0.9, m.Model.Compute(nil)[0], 1e-12)
	assert.Equal(t, 0, m.Test.Confusion.Errors())
}

func TestDefaultStopBelow(t *testing.T) {
	b := constBundle(4, []float64{0})
	cfg := fakeConfig{seq: [][]float64{{0.5}, {0.1}, {0.05}}}
	reports := 0
	d, err := crossval.NewDriver(cfg, sample.Continuous, b, b,
		crossval.WithStop(crossval.DefaultStop(0.15)),
		crossval.WithProgress(func(crossval.Progress) { reports++ }))
	require.NoError(t, err)
	m, err := d.Train(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 2, reports)
	assert.InDelta(t, 0.1, m.Model.Compute(nil)[0], 1e-12)
}

func TestDefaultCompare(t *testing.T) {
	mk := func(binary float64, testErrs, trainErrs int, precision float64) *crossval.Candidate {
		m := member([]float64{0},
			crossval.SideStats{},
			crossval.SideStats{})
		m.Train.Confusion.Misrecognized = trainErrs
		m.Train.Confusion.Total = 10
		m.Test.Confusion.Misrecognized = testErrs
		m.Test.Confusion.Total = 10
		return &crossval.Candidate{Member: m, CombinedBinary: binary, CombinedPrecision: precision}
	}
	assert.True(t, crossval.DefaultCompare(mk(0.1, 5, 5, 1), mk(0.2, 0, 0, 0)), "binary rate dominates")
	assert.True(t, crossval.DefaultCompare(mk(0.1, 1, 5, 1), mk(0.1, 2, 0, 0)), "held-out errors break ties")
	assert.True(t, crossval.DefaultCompare(mk(0.1, 1, 1, 1), mk(0.1, 1, 2, 0)), "training errors next")
	assert.True(t, crossval.DefaultCompare(mk(0.1, 1, 1, 0.5), mk(0.1, 1, 1, 0.6)), "precision last")
	assert.False(t, crossval.DefaultCompare(mk(0.1, 1, 1, 0.6), mk(0.1, 1, 1, 0.6)), "equal is not better")
}
