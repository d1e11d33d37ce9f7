package crossval

import (
	"github.com/pkg/errors"

	"github.com/nctk/crossval/fold"
	"github.com/nctk/crossval/sample"
)

// Chain is an ordered list of clusters where each stage's raw member outputs
// become extra input features for the next stage. The chain's result is the
// last stage's combined output.
type Chain struct {
	stages   []*Cluster
	nConfigs []int // member configurations per stage
}

// Stages returns the stage clusters in order.
func (ch *Chain) Stages() []*Cluster { return ch.stages }

// Len returns the number of stages.
func (ch *Chain) Len() int { return len(ch.stages) }

// Compute feeds the input through every stage. Each intermediate stage
// contributes one aggregated raw output per member configuration, appended
// to the running feature vector. A zero-stage chain is a programming error.
func (ch *Chain) Compute(input []float64) []float64 {
	if len(ch.stages) == 0 {
		panic("crossval: compute on chain with zero stages")
	}
	cur := append([]float64(nil), input...)
	for si, stage := range ch.stages {
		if si == len(ch.stages)-1 {
			return stage.Compute(cur)
		}
		cur = append(cur, stage.configOutputs(cur, ch.nConfigs[si])...)
	}
	panic("crossval: unreachable")
}

// configOutputs aggregates the members' raw outputs per configuration
// position: member i belongs to position i mod nConfigs (members are
// appended repetition → fold → configuration). Each position's outputs are
// averaged under the finalized weights, renormalized within the position.
// This reproduces, at inference time, the feature width the chained stages
// trained with.
func (c *Cluster) configOutputs(input []float64, nConfigs int) []float64 {
	if !c.finalized {
		panic("crossval: config outputs on non-finalized cluster")
	}
	feats := make([]float64, nConfigs*c.outLen)
	groupWeight := make([]float64, nConfigs)
	for i, m := range c.members {
		pos := i % nConfigs
		w := c.weights[i]
		out := m.Model.Compute(input)
		for d, v := range out {
			feats[pos*c.outLen+d] += w * v
		}
		groupWeight[pos] += w
	}
	for pos := 0; pos < nConfigs; pos++ {
		if groupWeight[pos] <= 0 {
			continue
		}
		for d := 0; d < c.outLen; d++ {
			feats[pos*c.outLen+d] /= groupWeight[pos]
		}
	}
	return feats
}

// ChainBuilder composes multiple ensembles in sequence. Every stage of a
// repetition reuses the repetition's fold split, so a member's extra input
// features always come from previous-stage members that never trained on
// that member's samples.
type ChainBuilder struct {
	policy   Policy
	kind     sample.Kind
	stages   []*Builder
	settings Settings
}

// NewChainBuilder validates the policy and the per-stage configuration
// lists.
func NewChainBuilder(policy Policy, kind sample.Kind, stageConfigs [][]ModelConfig, settings *Settings) (*ChainBuilder, error) {
	if len(stageConfigs) == 0 {
		return nil, errors.New("crossval: chain with zero stages")
	}
	cb := &ChainBuilder{
		policy:   policy,
		kind:     kind,
		settings: settings.withDefaults(),
	}
	for i, configs := range stageConfigs {
		builder, err := NewBuilder(policy, kind, configs, &cb.settings)
		if err != nil {
			return nil, errors.Wrapf(err, "crossval: stage %d", i)
		}
		cb.stages = append(cb.stages, builder)
	}
	return cb, nil
}

// Build runs the nested repetition → stage → fold → configuration loop and
// returns the finalized chain. Ordering is strict: later stages and later
// repetitions consume artifacts produced earlier.
func (cb *ChainBuilder) Build(bundle *sample.Bundle) (*Chain, error) {
	if bundle == nil {
		return nil, errors.New("crossval: nil bundle")
	}
	clusters := make([]*Cluster, len(cb.stages))
	nConfigs := make([]int, len(cb.stages))
	for i, builder := range cb.stages {
		clusters[i] = builder.newCluster()
		nConfigs[i] = len(builder.configs)
	}

	base := bundle.Clone()
	for rep := 0; rep < cb.policy.Repetitions; rep++ {
		if rep > 0 {
			base.Shuffle(cb.settings.Rand)
		}
		folds, err := fold.Split(base, cb.kind, cb.policy.FoldRatio, cb.policy.threshold())
		if err != nil {
			return nil, err
		}
		k := len(folds)
		if cb.policy.Folds > 0 && cb.policy.Folds < k {
			k = cb.policy.Folds
		}

		work := base
		for si, builder := range cb.stages {
			if si > 0 {
				work, err = cb.augment(work, clusters[si-1], nConfigs[si-1], folds, k, rep)
				if err != nil {
					return nil, err
				}
			}
			for f := 0; f < k; f++ {
				trainBundle := work.Subset(folds[f].Train)
				testBundle := work.Subset(folds[f].Test)
				for mi, cfg := range builder.configs {
					member, err := builder.trainMember(cfg, trainBundle, testBundle,
						Scope{Repetition: rep, Fold: f}, si, mi)
					if err != nil {
						return nil, err
					}
					if err := clusters[si].AddMember(member); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	for _, cluster := range clusters {
		cluster.FinalizeCluster()
	}
	cb.settings.Logger.Infof("chain finalized: %d stages", len(clusters))
	return &Chain{stages: clusters, nConfigs: nConfigs}, nil
}

// augment extends every sample's input with the previous stage's raw
// per-configuration outputs. A sample held out in fold f gets the outputs of
// the members scoped to (rep, f): those members never saw fold f during
// training, so no stage trains on features leaked from its own data.
// Samples of folds beyond the fold cap fall back to the repetition-wide
// per-configuration average.
func (cb *ChainBuilder) augment(work *sample.Bundle, prev *Cluster, nConfigs int, folds []fold.Fold, k, rep int) (*sample.Bundle, error) {
	width := nConfigs * prev.outLen
	extra := make([][]float64, work.Len())

	for f := range folds {
		scoped := prev.scopedMembers(rep, f)
		for _, idx := range folds[f].Test {
			row := make([]float64, 0, width)
			if f < k {
				for _, m := range scoped {
					row = append(row, m.Model.Compute(work.Inputs[idx])...)
				}
			} else {
				row = append(row, cb.repAverage(prev, nConfigs, rep, work.Inputs[idx])...)
			}
			if len(row) != width {
				return nil, errors.Errorf("crossval: stage augmentation width %d, want %d", len(row), width)
			}
			extra[idx] = row
		}
	}
	return work.Augment(extra)
}

// scopedMembers returns the members produced by the given repetition and
// fold, in configuration order.
func (c *Cluster) scopedMembers(rep, foldIdx int) []*Member {
	var out []*Member
	for _, m := range c.members {
		if m.Scope.Repetition == rep && m.Scope.Fold == foldIdx {
			out = append(out, m)
		}
	}
	return out
}

// repAverage is the unweighted per-configuration output average over one
// repetition's members.
func (cb *ChainBuilder) repAverage(prev *Cluster, nConfigs int, rep int, input []float64) []float64 {
	feats := make([]float64, nConfigs*prev.outLen)
	counts := make([]float64, nConfigs)
	pos := 0
	for _, m := range prev.members {
		if m.Scope.Repetition != rep {
			continue
		}
		slot := pos % nConfigs
		out := m.Model.Compute(input)
		for d, v := range out {
			feats[slot*prev.outLen+d] += v
		}
		counts[slot]++
		pos++
	}
	for slot := 0; slot < nConfigs; slot++ {
		if counts[slot] == 0 {
			continue
		}
		for d := 0; d < prev.outLen; d++ {
			feats[slot*prev.outLen+d] /= counts[slot]
		}
	}
	return feats
}

// BuildChain is the one-call form of NewChainBuilder plus Build.
func BuildChain(policy Policy, kind sample.Kind, stageConfigs [][]ModelConfig, bundle *sample.Bundle, settings *Settings) (*Chain, error) {
	builder, err := NewChainBuilder(policy, kind, stageConfigs, settings)
	if err != nil {
		return nil, err
	}
	return builder.Build(bundle)
}
