package model

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nctk/crossval"
	"github.com/nctk/crossval/sample"
)

// Regression is a one-shot least-squares model configuration. Its trainer
// converges in a single iteration by solving the normal equations; an
// ill-conditioned system surfaces as a numerical-instability error.
type Regression struct {
	// Termer expands inputs; nil means LinearTermer.
	Termer Termer
}

func (r Regression) termer() Termer {
	if r.Termer == nil {
		return LinearTermer{}
	}
	return r.Termer
}

// NewTrainer implements crossval.ModelConfig.
func (r Regression) NewTrainer(train *sample.Bundle, rnd *rand.Rand) (crossval.Model, crossval.Trainer, error) {
	m := newLinearModel(r.termer(), train.InputDim(), train.IdealDim(), identity)
	m.RandomizeWeights(rnd)
	return m, &lsqTrainer{model: m, train: train}, nil
}

type lsqTrainer struct {
	model *linearModel
	train *sample.Bundle
	epoch int
}

// Iteration solves the least-squares system for every output dimension.
func (t *lsqTrainer) Iteration() (bool, error) {
	t.epoch++
	nTerms := t.model.termer.NumTerms(t.train.InputDim())
	a := mat.NewDense(t.train.Len(), nTerms, nil)
	terms := make([]float64, nTerms)
	for i := 0; i < t.train.Len(); i++ {
		t.model.termer.Terms(terms, t.train.Inputs[i])
		a.SetRow(i, terms)
	}
	for o := 0; o < t.train.IdealDim(); o++ {
		b := mat.NewVecDense(t.train.Len(), nil)
		for i := 0; i < t.train.Len(); i++ {
			b.SetVec(i, t.train.Ideals[i][o])
		}
		beta := mat.NewVecDense(nTerms, t.model.beta[o])
		if err := beta.SolveVec(a, b); err != nil {
			return true, errors.Wrapf(err, "model: least squares solve, output %d", o)
		}
	}
	return true, nil
}

func (t *lsqTrainer) NextAttempt() bool { return false }
func (t *lsqTrainer) Attempt() int      { return 1 }
func (t *lsqTrainer) Epoch() int        { return t.epoch }
func (t *lsqTrainer) Message() string {
	return fmt.Sprintf("lsq solve over %d samples", t.train.Len())
}
func (t *lsqTrainer) Model() crossval.Model { return t.model }
