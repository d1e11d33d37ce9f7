package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/nctk/crossval"
	"github.com/nctk/crossval/sample"
)

// LMS is an iterative least-mean-squares regressor configuration for
// continuous outputs. Each trainer iteration is one full gradient pass;
// Attempts > 1 lets the driver restart from fresh random parameters.
type LMS struct {
	Termer       Termer  // nil means LinearTermer
	LearningRate float64 // 0 means 0.05
	Epochs       int     // 0 means 100
	Attempts     int     // 0 means 1
}

// NewTrainer implements crossval.ModelConfig.
func (c LMS) NewTrainer(train *sample.Bundle, rnd *rand.Rand) (crossval.Model, crossval.Trainer, error) {
	return newSGDTrainer(c.Termer, c.LearningRate, c.Epochs, c.Attempts, identity, train, rnd)
}

// Logistic is a binary classifier configuration producing one sigmoid
// probability, for SingleProbability bundles.
type Logistic struct {
	Termer       Termer
	LearningRate float64
	Epochs       int
	Attempts     int
}

// NewTrainer implements crossval.ModelConfig.
func (c Logistic) NewTrainer(train *sample.Bundle, rnd *rand.Rand) (crossval.Model, crossval.Trainer, error) {
	if train.IdealDim() != 1 {
		return nil, nil, errors.Errorf("model: logistic needs 1 output, bundle has %d", train.IdealDim())
	}
	return newSGDTrainer(c.Termer, c.LearningRate, c.Epochs, c.Attempts, sigmoid, train, rnd)
}

// Softmax is a multi-class classifier configuration producing a probability
// distribution, for Distribution bundles.
type Softmax struct {
	Termer       Termer
	LearningRate float64
	Epochs       int
	Attempts     int
}

// NewTrainer implements crossval.ModelConfig.
func (c Softmax) NewTrainer(train *sample.Bundle, rnd *rand.Rand) (crossval.Model, crossval.Trainer, error) {
	if train.IdealDim() < 2 {
		return nil, nil, errors.Errorf("model: softmax needs at least 2 outputs, bundle has %d", train.IdealDim())
	}
	return newSGDTrainer(c.Termer, c.LearningRate, c.Epochs, c.Attempts, softmax, train, rnd)
}

func newSGDTrainer(termer Termer, rate float64, epochs, attempts int, act activation, train *sample.Bundle, rnd *rand.Rand) (crossval.Model, crossval.Trainer, error) {
	if termer == nil {
		termer = LinearTermer{}
	}
	if rate == 0 {
		rate = 0.05
	}
	if epochs == 0 {
		epochs = 100
	}
	if attempts == 0 {
		attempts = 1
	}
	m := newLinearModel(termer, train.InputDim(), train.IdealDim(), act)
	m.RandomizeWeights(rnd)
	t := &sgdTrainer{
		model:    m,
		train:    train,
		rate:     rate,
		epochs:   epochs,
		attempts: attempts,
		attempt:  1,
		rnd:      rnd,
	}
	return m, t, nil
}

// sgdTrainer runs batch gradient descent. The gradient (prediction - ideal)
// applies unchanged to identity, sigmoid and softmax outputs under their
// canonical losses.
type sgdTrainer struct {
	model    *linearModel
	train    *sample.Bundle
	rate     float64
	epochs   int
	attempts int
	attempt  int
	epoch    int
	rnd      *rand.Rand
}

func (t *sgdTrainer) Iteration() (bool, error) {
	nTerms := t.model.termer.NumTerms(t.train.InputDim())
	terms := make([]float64, nTerms)
	n := float64(t.train.Len())
	grad := make([][]float64, t.model.OutputLen())
	for o := range grad {
		grad[o] = make([]float64, nTerms)
	}
	for i := 0; i < t.train.Len(); i++ {
		t.model.termer.Terms(terms, t.train.Inputs[i])
		pred := t.model.Compute(t.train.Inputs[i])
		for o := range grad {
			diff := pred[o] - t.train.Ideals[i][o]
			for j, term := range terms {
				grad[o][j] += diff * term / n
			}
		}
	}
	// The whole gradient is validated before any entry is applied, so a
	// diverged update leaves the model untouched.
	for o := range grad {
		for _, g := range grad[o] {
			if math.IsNaN(g) || math.IsInf(g, 0) {
				return true, errors.Errorf("model: diverged gradient at epoch %d", t.epoch)
			}
		}
	}
	for o := range grad {
		for j, g := range grad[o] {
			t.model.beta[o][j] -= t.rate * g
		}
	}
	t.epoch++
	return t.epoch >= t.epochs, nil
}

func (t *sgdTrainer) NextAttempt() bool {
	if t.attempt >= t.attempts {
		return false
	}
	t.attempt++
	t.epoch = 0
	t.model.RandomizeWeights(t.rnd)
	return true
}

func (t *sgdTrainer) Attempt() int { return t.attempt }
func (t *sgdTrainer) Epoch() int   { return t.epoch }
func (t *sgdTrainer) Message() string {
	return fmt.Sprintf("sgd attempt %d/%d epoch %d/%d", t.attempt, t.attempts, t.epoch, t.epochs)
}
func (t *sgdTrainer) Model() crossval.Model { return t.model }
