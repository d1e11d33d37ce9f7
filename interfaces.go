package crossval

import (
	"math/rand"

	"github.com/nctk/crossval/sample"
)

// Model is the trained-artifact capability the engine consumes. Models are
// opaque here; the engine only computes outputs, snapshots state and
// re-randomizes parameters between attempts.
type Model interface {
	// Compute returns the model output for one input vector.
	Compute(input []float64) []float64
	// OutputLen returns the model's output vector length.
	OutputLen() int
	// RandomizeWeights resets the parameters from rnd.
	RandomizeWeights(rnd *rand.Rand)
	// WeightsStat returns an informational magnitude of the current
	// parameters, reported through the progress sink.
	WeightsStat() float64
	// Clone returns an independent deep copy of the current state.
	Clone() Model
}

// Trainer drives one model's iterative optimization. One Iteration call is
// one atomic unit of work; any parallelism inside it is invisible to the
// engine.
type Trainer interface {
	// Iteration performs one training pass. It reports true once the
	// trainer has exhausted its epoch budget for the current attempt. A
	// non-nil error marks a numerically unstable update that was not
	// applied.
	Iteration() (done bool, err error)
	// NextAttempt restarts training from freshly randomized parameters.
	// It reports false when no attempts remain.
	NextAttempt() bool
	// Attempt and Epoch expose the current counters for progress records.
	Attempt() int
	Epoch() int
	// Message is an informational line describing the trainer state.
	Message() string
	// Model returns the model being trained.
	Model() Model
}

// ModelConfig builds fresh model/trainer pairs for one member slot.
type ModelConfig interface {
	// NewTrainer creates a model and a trainer over the training bundle.
	NewTrainer(train *sample.Bundle, rnd *rand.Rand) (Model, Trainer, error)
}

// Filter optionally maps normalized output values back to their natural
// range, used only when reporting denormalized error statistics.
type Filter interface {
	ApplyReverse(normalized float64) float64
}
