package model_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nctk/crossval"
	"github.com/nctk/crossval/model"
	"github.com/nctk/crossval/sample"
)

func lineBundle(t *testing.T, n int, f func(x float64) []float64) *sample.Bundle {
	t.Helper()
	inputs := make([][]float64, n)
	ideals := make([][]float64, n)
	for i := 0; i < n; i++ {
		x := -1 + 2*float64(i)/float64(n-1)
		inputs[i] = []float64{x}
		ideals[i] = f(x)
	}
	b, err := sample.NewBundle(inputs, ideals)
	require.NoError(t, err)
	return b
}

func runTrainer(t *testing.T, tr crossval.Trainer) {
	t.Helper()
	for {
		done, err := tr.Iteration()
		require.NoError(t, err)
		if done {
			return
		}
	}
}

func TestRegressionRecoversLine(t *testing.T) {
	b := lineBundle(t, 20, func(x float64) []float64 { return []float64{2*x + 1} })
	m, tr, err := model.Regression{}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	runTrainer(t, tr)

	assert.Equal(t, 1, m.OutputLen())
	assert.InDelta(t, 2.0, m.Compute([]float64{0.5})[0], 1e-9)
	assert.InDelta(t, 1.0, m.Compute([]float64{0})[0], 1e-9)
	assert.False(t, tr.NextAttempt())
}

func TestRegressionRecoversCubic(t *testing.T) {
	b := lineBundle(t, 30, func(x float64) []float64 { return []float64{x*x*x - x} })
	m, tr, err := model.Regression{Termer: model.PolyTermer{Order: 3}}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	runTrainer(t, tr)
	assert.InDelta(t, 0.5*0.5*0.5-0.5, m.Compute([]float64{0.5})[0], 1e-9)
}

func TestRegressionMultiOutput(t *testing.T) {
	b := lineBundle(t, 20, func(x float64) []float64 { return []float64{x, -2 * x} })
	m, tr, err := model.Regression{}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	runTrainer(t, tr)
	out := m.Compute([]float64{0.25})
	require.Len(t, out, 2)
	assert.InDelta(t, 0.25, out[0], 1e-9)
	assert.InDelta(t, -0.5, out[1], 1e-9)
}

func TestLMSConverges(t *testing.T) {
	b := lineBundle(t, 20, func(x float64) []float64 { return []float64{0.5 * x} })
	m, tr, err := model.LMS{LearningRate: 0.2, Epochs: 2000}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	runTrainer(t, tr)
	for _, x := range []float64{-0.6, 0, 0.8} {
		assert.InDelta(t, 0.5*x, m.Compute([]float64{x})[0], 0.05, "x=%v", x)
	}
}

func TestLogisticSeparates(t *testing.T) {
	// Two well-separated blocks; a converged classifier splits them at 0.5.
	inputs := make([][]float64, 20)
	ideals := make([][]float64, 20)
	for i := 0; i < 10; i++ {
		inputs[i] = []float64{-2 + float64(i)*0.2} // [-2, -0.2]
		ideals[i] = []float64{0}
		inputs[10+i] = []float64{0.2 + float64(i)*0.2} // [0.2, 2]
		ideals[10+i] = []float64{1}
	}
	b, err := sample.NewBundle(inputs, ideals)
	require.NoError(t, err)

	m, tr, err := model.Logistic{LearningRate: 0.5, Epochs: 2000}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	runTrainer(t, tr)
	for i := range inputs {
		out := m.Compute(inputs[i])[0]
		assert.GreaterOrEqual(t, out, 0.0)
		assert.LessOrEqual(t, out, 1.0)
		if ideals[i][0] == 1 {
			assert.Greater(t, out, 0.5, "x=%v", inputs[i][0])
		} else {
			assert.Less(t, out, 0.5, "x=%v", inputs[i][0])
		}
	}
}

func TestLogisticRejectsMultiOutput(t *testing.T) {
	b := lineBundle(t, 10, func(x float64) []float64 { return []float64{0, 1} })
	_, _, err := model.Logistic{}.NewTrainer(b, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSoftmaxSeparates(t *testing.T) {
	b := lineBundle(t, 20, func(x float64) []float64 {
		if x < 0 {
			return []float64{1, 0}
		}
		return []float64{0, 1}
	})
	m, tr, err := model.Softmax{LearningRate: 0.5, Epochs: 2000}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	runTrainer(t, tr)
	for i := range b.Inputs {
		out := m.Compute(b.Inputs[i])
		require.Len(t, out, 2)
		assert.InDelta(t, 1.0, out[0]+out[1], 1e-9)
		want := 0
		if b.Ideals[i][1] == 1 {
			want = 1
		}
		got := 0
		if out[1] > out[0] {
			got = 1
		}
		assert.Equal(t, want, got, "x=%v", b.Inputs[i][0])
	}
}

func TestSoftmaxRejectsSingleOutput(t *testing.T) {
	b := lineBundle(t, 10, func(x float64) []float64 { return []float64{0} })
	_, _, err := model.Softmax{}.NewTrainer(b, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSGDErroredUpdateNotApplied(t *testing.T) {
	// An infinite ideal blows up the gradient; the failed update must
	// leave every parameter exactly as it was.
	b, err := sample.NewBundle(
		[][]float64{{0}, {1}},
		[][]float64{{0}, {math.Inf(1)}},
	)
	require.NoError(t, err)
	m, tr, err := model.LMS{}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	before := m.Compute([]float64{0.5})
	_, err = tr.Iteration()
	require.Error(t, err)
	assert.Equal(t, before, m.Compute([]float64{0.5}))
}

func TestSGDAttempts(t *testing.T) {
	b := lineBundle(t, 10, func(x float64) []float64 { return []float64{x} })
	_, tr, err := model.LMS{Epochs: 1, Attempts: 2}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, 1, tr.Attempt())
	done, err := tr.Iteration()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 1, tr.Epoch())

	require.True(t, tr.NextAttempt())
	assert.Equal(t, 2, tr.Attempt())
	assert.Equal(t, 0, tr.Epoch())
	assert.False(t, tr.NextAttempt())
}

func TestCloneIsDetached(t *testing.T) {
	b := lineBundle(t, 20, func(x float64) []float64 { return []float64{2 * x} })
	m, tr, err := model.Regression{}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	runTrainer(t, tr)

	clone := m.Clone()
	before := clone.Compute([]float64{0.5})[0]
	m.RandomizeWeights(rand.New(rand.NewSource(99)))
	assert.Equal(t, before, clone.Compute([]float64{0.5})[0])
	assert.NotEqual(t, before, m.Compute([]float64{0.5})[0])
}

func TestWeightsStat(t *testing.T) {
	b := lineBundle(t, 10, func(x float64) []float64 { return []float64{x} })
	m, _, err := model.LMS{}.NewTrainer(b, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Greater(t, m.WeightsStat(), 0.0)
}
