package crossval

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/nctk/crossval/sample"
	"github.com/nctk/crossval/stats"
)

// Cluster is an ensemble of trained members sharing one output kind and
// dimensionality. Lifecycle: created empty, members appended during
// training, finalized exactly once (weights computed), then queried for
// inference. Finalizing twice or computing before finalization are
// programming errors and panic.
type Cluster struct {
	kind      sample.Kind
	outLen    int
	threshold float64
	rangeMin  float64
	rangeMax  float64
	weightCfg WeightConfig

	members   []*Member
	weights   []float64
	finalized bool

	trainStats ClusterStats
	testStats  ClusterStats

	stack *stackTier
}

// ClusterStats aggregates member error statistics as members are added.
// Precision and Natural are sample-weighted means; the confusion counters
// accumulate raw counts.
type ClusterStats struct {
	Samples   int
	Precision float64
	Natural   float64
	Confusion stats.Confusion

	precisions []float64
	naturals   []float64
	weights    []float64
}

func (s *ClusterStats) add(side SideStats) {
	s.Samples += side.Samples
	s.precisions = append(s.precisions, side.Precision)
	s.naturals = append(s.naturals, side.Natural)
	s.weights = append(s.weights, float64(side.Samples))
	if s.Samples > 0 {
		s.Precision = stat.Mean(s.precisions, s.weights)
		s.Natural = stat.Mean(s.naturals, s.weights)
	}
	s.Confusion.Merge(side.Confusion)
}

// ClusterOption customizes a Cluster.
type ClusterOption func(*Cluster)

// WithOutputRange sets the native output range of the member models, used to
// rescale raw outputs into probabilities and back. Default [0, 1].
func WithOutputRange(min, max float64) ClusterOption {
	return func(c *Cluster) {
		c.rangeMin = min
		c.rangeMax = max
	}
}

// WithWeightConfig overrides the macro-weights of the weighting formula.
func WithWeightConfig(cfg WeightConfig) ClusterOption {
	return func(c *Cluster) { c.weightCfg = cfg }
}

// WithClusterThreshold sets the binary decision threshold recorded with the
// cluster. Default 0.5.
func WithClusterThreshold(t float64) ClusterOption {
	return func(c *Cluster) { c.threshold = t }
}

// NewCluster returns an empty cluster for the given output kind.
func NewCluster(kind sample.Kind, opts ...ClusterOption) *Cluster {
	c := &Cluster{
		kind:      kind,
		threshold: 0.5,
		rangeMin:  0,
		rangeMax:  1,
		weightCfg: DefaultWeightConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind returns the cluster's output kind.
func (c *Cluster) Kind() sample.Kind { return c.kind }

// Len returns the number of members.
func (c *Cluster) Len() int { return len(c.members) }

// OutputLen returns the member output length, 0 while empty.
func (c *Cluster) OutputLen() int { return c.outLen }

// Members returns the member list. Callers must not mutate it.
func (c *Cluster) Members() []*Member { return c.members }

// Weights returns the finalized weights. Nil before finalization.
func (c *Cluster) Weights() []float64 { return c.weights }

// Finalized reports whether FinalizeCluster has run.
func (c *Cluster) Finalized() bool { return c.finalized }

// TrainStats and TestStats return the aggregated member statistics. Test
// statistics reflect genuinely unseen data: every member was measured on its
// own held-out fold.
func (c *Cluster) TrainStats() ClusterStats { return c.trainStats }
func (c *Cluster) TestStats() ClusterStats  { return c.testStats }

// AddMember appends a trained member. The first member fixes the output
// length; later members must match it. Adding after finalization panics.
func (c *Cluster) AddMember(m *Member) error {
	if c.finalized {
		panic("crossval: member added to finalized cluster")
	}
	if m.Model == nil {
		return errors.New("crossval: member without model")
	}
	if len(c.members) == 0 {
		c.outLen = m.Model.OutputLen()
	} else if m.Model.OutputLen() != c.outLen {
		return errors.Errorf("crossval: member output len %d vs cluster %d", m.Model.OutputLen(), c.outLen)
	}
	c.members = append(c.members, m)
	c.trainStats.add(m.Train)
	c.testStats.add(m.Test)
	return nil
}

// FinalizeCluster computes the member weights and seals the cluster. It may
// run only once.
func (c *Cluster) FinalizeCluster() {
	if c.finalized {
		panic("crossval: cluster finalized twice")
	}
	if len(c.members) == 0 {
		panic("crossval: finalizing empty cluster")
	}
	c.weights = computeWeights(c.members, c.kind, c.weightCfg)
	c.finalized = true
}

// Compute combines the member outputs for one input. Panics before
// finalization. When a stacking tier is attached the result follows the
// stacking mode.
func (c *Cluster) Compute(input []float64) []float64 {
	if !c.finalized {
		panic("crossval: compute on non-finalized cluster")
	}
	if c.stack != nil {
		return c.stack.compute(c, input)
	}
	return c.combine(input)
}

// rawOutputs returns every member's uncombined output for the input,
// in member order.
func (c *Cluster) rawOutputs(input []float64) [][]float64 {
	outs := make([][]float64, len(c.members))
	for i, m := range c.members {
		outs[i] = m.Model.Compute(input)
	}
	return outs
}
