package crossval_test

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/nctk/crossval"
	"github.com/nctk/crossval/sample"
)

// seqModel returns a fixed output vector regardless of input.
type seqModel struct {
	out []float64
}

func (m *seqModel) Compute(input []float64) []float64 {
	return append([]float64(nil), m.out...)
}

func (m *seqModel) OutputLen() int                  { return len(m.out) }
func (m *seqModel) RandomizeWeights(rnd *rand.Rand) {}
func (m *seqModel) WeightsStat() float64            { return 0 }
func (m *seqModel) Clone() crossval.Model {
	return &seqModel{out: append([]float64(nil), m.out...)}
}

// seqTrainer replays a scripted sequence of model outputs, one per
// iteration, optionally failing at a given iteration.
type seqTrainer struct {
	model    *seqModel
	seq      [][]float64
	i        int
	attempt  int
	attempts int
	errAt    int // 1-based iteration index that fails, 0 for never
}

func (t *seqTrainer) Iteration() (bool, error) {
	t.i++
	if t.errAt > 0 && t.i == t.errAt {
		return false, errors.New("unstable update")
	}
	if t.i <= len(t.seq) {
		t.model.out = append([]float64(nil), t.seq[t.i-1]...)
	}
	return t.i >= len(t.seq), nil
}

func (t *seqTrainer) NextAttempt() bool {
	if t.attempt >= t.attempts {
		return false
	}
	t.attempt++
	t.i = 0
	return true
}

func (t *seqTrainer) Attempt() int          { return t.attempt }
func (t *seqTrainer) Epoch() int            { return t.i }
func (t *seqTrainer) Message() string       { return "scripted" }
func (t *seqTrainer) Model() crossval.Model { return t.model }

// fakeConfig builds seqModel/seqTrainer pairs and can record the training
// bundles it was given.
type fakeConfig struct {
	seq      [][]float64
	attempts int
	errAt    int
	record   *[]*sample.Bundle
}

func (c fakeConfig) NewTrainer(train *sample.Bundle, rnd *rand.Rand) (crossval.Model, crossval.Trainer, error) {
	if c.record != nil {
		*c.record = append(*c.record, train)
	}
	attempts := c.attempts
	if attempts == 0 {
		attempts = 1
	}
	m := &seqModel{out: make([]float64, len(c.seq[0]))}
	return m, &seqTrainer{model: m, seq: c.seq, attempt: 1, attempts: attempts, errAt: c.errAt}, nil
}

// constBundle builds a bundle of n samples with ideal vector ideal and
// distinct scalar inputs.
func constBundle(n int, ideal []float64) *sample.Bundle {
	inputs := make([][]float64, n)
	ideals := make([][]float64, n)
	for i := range inputs {
		inputs[i] = []float64{float64(i)}
		ideals[i] = append([]float64(nil), ideal...)
	}
	b, err := sample.NewBundle(inputs, ideals)
	if err != nil {
		panic(err)
	}
	return b
}

// member builds a trained member around a constant-output model with the
// given side statistics.
func member(out []float64, train, test crossval.SideStats) *crossval.Member {
	return &crossval.Member{
		Model: &seqModel{out: append([]float64(nil), out...)},
		Train: train,
		Test:  test,
	}
}
