package crossval

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nctk/crossval/sample"
)

// Candidate is one evaluated model state inside a training run.
type Candidate struct {
	Member            *Member
	CombinedPrecision float64 // max of train and test precision error
	CombinedBinary    float64 // max of train and test confusion rate
}

// CompareFunc reports whether candidate should replace the current best.
type CompareFunc func(candidate, best *Candidate) bool

// Decision is a stop-policy verdict after one iteration.
type Decision int

const (
	// Continue keeps iterating.
	Continue Decision = iota
	// StopAttempt abandons the current attempt but allows restarts.
	StopAttempt
	// StopTraining ends the whole training run with the current best.
	StopTraining
)

// StopFunc may cut a training run short. It sees the freshly evaluated
// candidate and the best so far (never nil).
type StopFunc func(candidate, best *Candidate) Decision

// DefaultCompare orders candidates lexicographically: combined binary error
// first, ties broken by held-out confusion count, then training confusion
// count, then combined precision error.
func DefaultCompare(candidate, best *Candidate) bool {
	if candidate.CombinedBinary != best.CombinedBinary {
		return candidate.CombinedBinary < best.CombinedBinary
	}
	ct, bt := candidate.Member.Test.Confusion.Errors(), best.Member.Test.Confusion.Errors()
	if ct != bt {
		return ct < bt
	}
	ct, bt = candidate.Member.Train.Confusion.Errors(), best.Member.Train.Confusion.Errors()
	if ct != bt {
		return ct < bt
	}
	return candidate.CombinedPrecision < best.CombinedPrecision
}

// DefaultStop returns the default stop policy: once the best candidate has
// zero confusions and precision starts worsening, further iterations cannot
// improve the lexicographic ordering, so training ends. The rule only fires
// for classification kinds. stopBelow, when positive, additionally ends
// training once the best combined precision error drops below it, which is
// the configurable continuous-kind analogue.
func DefaultStop(stopBelow float64) StopFunc {
	return func(candidate, best *Candidate) Decision {
		if stopBelow > 0 && best.CombinedPrecision <= stopBelow {
			return StopTraining
		}
		if best.Member.Test.Confusion.Total == 0 {
			return Continue
		}
		if best.Member.Train.Confusion.Errors() == 0 && best.Member.Test.Confusion.Errors() == 0 &&
			candidate.CombinedPrecision > best.CombinedPrecision {
			return StopTraining
		}
		return Continue
	}
}

// Driver runs one model's training to convergence and keeps the best state
// seen across all iterations and restart attempts.
type Driver struct {
	config    ModelConfig
	kind      sample.Kind
	train     *sample.Bundle
	test      *sample.Bundle
	threshold float64

	compare  CompareFunc
	stop     StopFunc
	filter   Filter
	progress ProgressFunc
	log      *zap.SugaredLogger

	scope  Scope
	stage  int
	member int
}

// DriverOption customizes a Driver.
type DriverOption func(*Driver)

// WithCompare overrides the candidate comparison rule.
func WithCompare(f CompareFunc) DriverOption { return func(d *Driver) { d.compare = f } }

// WithStop overrides the stop policy.
func WithStop(f StopFunc) DriverOption { return func(d *Driver) { d.stop = f } }

// WithFilter sets the reverse filter used for denormalized statistics.
func WithFilter(f Filter) DriverOption { return func(d *Driver) { d.filter = f } }

// WithProgress sets the progress sink.
func WithProgress(f ProgressFunc) DriverOption { return func(d *Driver) { d.progress = f } }

// WithLogger sets the driver's logger.
func WithLogger(l *zap.SugaredLogger) DriverOption { return func(d *Driver) { d.log = l } }

// WithThreshold sets the binary decision threshold. Default 0.5.
func WithThreshold(t float64) DriverOption { return func(d *Driver) { d.threshold = t } }

// withContext tags the driver with its place in a surrounding build.
func withContext(scope Scope, stage, member int) DriverOption {
	return func(d *Driver) {
		d.scope = scope
		d.stage = stage
		d.member = member
	}
}

// NewDriver validates the split and builds a driver. The testing bundle must
// hold at least two samples and agree with the training bundle on both
// dimensionalities.
func NewDriver(config ModelConfig, kind sample.Kind, train, test *sample.Bundle, opts ...DriverOption) (*Driver, error) {
	if config == nil {
		return nil, errors.New("crossval: nil model config")
	}
	if test.Len() < 2 {
		return nil, errors.Errorf("crossval: testing bundle has %d samples, need at least 2", test.Len())
	}
	if train.IdealDim() != test.IdealDim() {
		return nil, errors.Errorf("crossval: training ideal dim %d vs testing %d", train.IdealDim(), test.IdealDim())
	}
	if train.InputDim() != test.InputDim() {
		return nil, errors.Errorf("crossval: training input dim %d vs testing %d", train.InputDim(), test.InputDim())
	}
	d := &Driver{
		config:    config,
		kind:      kind,
		train:     train,
		test:      test,
		threshold: 0.5,
		compare:   DefaultCompare,
		stop:      DefaultStop(0),
		log:       zap.NewNop().Sugar(),
		stage:     -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Train runs the full attempt/iteration loop and returns the best member
// found. A numerically unstable update is skipped and ends the attempt,
// unless it happens on the very first iteration, which is fatal.
func (d *Driver) Train(rnd *rand.Rand) (*Member, error) {
	model, trainer, err := d.config.NewTrainer(d.train, rnd)
	if err != nil {
		return nil, errors.Wrap(err, "crossval: creating trainer")
	}
	if model.OutputLen() != d.train.IdealDim() {
		return nil, errors.Errorf("crossval: model output len %d vs ideal dim %d", model.OutputLen(), d.train.IdealDim())
	}

	var best *Candidate
	iterated := false
	for {
		for {
			done, iterErr := trainer.Iteration()
			if iterErr != nil {
				if !iterated {
					return nil, errors.Wrap(iterErr, "crossval: training diverged on first iteration")
				}
				d.log.Warnf("unstable update skipped (attempt %d, epoch %d): %v",
					trainer.Attempt(), trainer.Epoch(), iterErr)
				break
			}
			iterated = true

			candidate := d.evaluate(trainer.Model())
			if best == nil || d.compare(candidate, best) {
				candidate.Member.Model = trainer.Model().Clone()
				best = candidate
			}
			d.report(trainer, candidate, best)

			switch d.stop(candidate, best) {
			case StopTraining:
				return best.Member, nil
			case StopAttempt:
				done = true
			}
			if done {
				break
			}
		}
		if !trainer.NextAttempt() {
			break
		}
	}
	if best == nil {
		return nil, errors.New("crossval: trainer produced no candidate")
	}
	return best.Member, nil
}

func (d *Driver) evaluate(m Model) *Candidate {
	member := &Member{
		Model: m,
		Scope: d.scope,
		Train: measure(m, d.train, d.kind, d.threshold, d.filter),
		Test:  measure(m, d.test, d.kind, d.threshold, d.filter),
	}
	c := &Candidate{
		Member:            member,
		CombinedPrecision: math.Max(member.Train.Precision, member.Test.Precision),
	}
	if d.kind.Binary() {
		c.CombinedBinary = member.binaryRate()
	}
	return c
}

func (d *Driver) report(trainer Trainer, candidate, best *Candidate) {
	if d.progress == nil {
		return
	}
	d.progress(Progress{
		Repetition:  d.scope.Repetition,
		Stage:       d.stage,
		Fold:        d.scope.Fold,
		Member:      d.member,
		Attempt:     trainer.Attempt(),
		Epoch:       trainer.Epoch(),
		Candidate:   snapshot(candidate),
		Best:        snapshot(best),
		WeightsStat: trainer.Model().WeightsStat(),
		Message:     trainer.Message(),
	})
}

func snapshot(c *Candidate) ErrSnapshot {
	return ErrSnapshot{
		Precision: c.CombinedPrecision,
		Binary:    c.CombinedBinary,
		Errors:    c.Member.Train.Confusion.Errors() + c.Member.Test.Confusion.Errors(),
	}
}
