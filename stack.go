package crossval

import (
	"github.com/pkg/errors"

	"github.com/nctk/crossval/sample"
)

// StackingMode selects what a stacked cluster returns at inference time.
type StackingMode int

const (
	// StackCorrective returns the second tier's output alone.
	StackCorrective StackingMode = iota
	// StackAverage returns the unweighted average of both tiers.
	StackAverage
)

// StackingConfig describes an optional second-level corrective ensemble
// trained on the first tier's outputs, with its own cross-validation policy.
type StackingConfig struct {
	Policy  Policy
	Configs []ModelConfig
	Mode    StackingMode
}

type stackTier struct {
	cluster *Cluster
	mode    StackingMode
}

// BuildStack trains the stacking tier. The secondary training bundle pairs
// [first-tier combined output, each member's raw output] with the original
// ideal outputs, and is cross-validated independently under cfg.Policy.
// The first tier must already be finalized; stacking twice is a programming
// error.
func (c *Cluster) BuildStack(cfg StackingConfig, bundle *sample.Bundle, settings *Settings) error {
	if !c.finalized {
		panic("crossval: stacking on non-finalized cluster")
	}
	if c.stack != nil {
		panic("crossval: stacking tier built twice")
	}
	if bundle == nil {
		return errors.New("crossval: nil bundle")
	}

	secondary, err := c.secondaryBundle(bundle)
	if err != nil {
		return err
	}
	builder, err := NewBuilder(cfg.Policy, c.kind, cfg.Configs, settings)
	if err != nil {
		return err
	}
	tier2, err := builder.Build(secondary)
	if err != nil {
		return errors.Wrap(err, "crossval: stacking tier")
	}
	c.stack = &stackTier{cluster: tier2, mode: cfg.Mode}
	return nil
}

// Stacked reports whether a stacking tier is attached.
func (c *Cluster) Stacked() bool { return c.stack != nil }

// secondaryBundle maps every sample to its meta-features.
func (c *Cluster) secondaryBundle(bundle *sample.Bundle) (*sample.Bundle, error) {
	inputs := make([][]float64, bundle.Len())
	ideals := make([][]float64, bundle.Len())
	for i := 0; i < bundle.Len(); i++ {
		inputs[i] = c.metaFeatures(bundle.Inputs[i])
		ideals[i] = bundle.Ideals[i]
	}
	return sample.NewBundle(inputs, ideals)
}

// metaFeatures is [combined output, member raw outputs...] for one input.
func (c *Cluster) metaFeatures(input []float64) []float64 {
	meta := make([]float64, 0, c.outLen*(1+len(c.members)))
	meta = append(meta, c.combine(input)...)
	for _, out := range c.rawOutputs(input) {
		meta = append(meta, out...)
	}
	return meta
}

func (s *stackTier) compute(c *Cluster, input []float64) []float64 {
	tier1 := c.combine(input)
	tier2 := s.cluster.Compute(c.metaFeatures(input))
	if s.mode == StackAverage {
		out := make([]float64, len(tier1))
		for i := range out {
			out[i] = (tier1[i] + tier2[i]) / 2
		}
		return out
	}
	return tier2
}
