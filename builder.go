package crossval

import (
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nctk/crossval/fold"
	"github.com/nctk/crossval/sample"
)

// Policy is a cross-validation policy: how the bundle is split and how often
// the split is repeated.
type Policy struct {
	// FoldRatio is the target fold-size ratio in (0, 0.5]. The splitter
	// produces round(1/FoldRatio) folds.
	FoldRatio float64
	// Folds caps how many folds are actually used as held-out test folds.
	// 0 means every fold produced.
	Folds int
	// Repetitions repeats the whole fold loop, reshuffling the bundle
	// between repetitions.
	Repetitions int
	// Threshold is the binary decision threshold for classification kinds.
	// 0 defaults to 0.5.
	Threshold float64
}

func (p Policy) threshold() float64 {
	if p.Threshold == 0 {
		return 0.5
	}
	return p.Threshold
}

func (p Policy) validate() error {
	if p.FoldRatio <= 0 || p.FoldRatio > 0.5 {
		return errors.Errorf("crossval: fold ratio %v out of (0, 0.5]", p.FoldRatio)
	}
	if p.Repetitions < 1 {
		return errors.Errorf("crossval: %d repetitions, need at least 1", p.Repetitions)
	}
	if p.Folds < 0 {
		return errors.Errorf("crossval: negative fold cap %d", p.Folds)
	}
	return nil
}

// Settings carries the cross-cutting collaborators of a build. The zero
// value is usable: a fixed-seed random source, no-op logging, default
// comparison, stop and weighting rules.
type Settings struct {
	// Rand is the single deterministic random source threaded through the
	// whole build. Two builds with equal settings, data and source state
	// produce identical ensembles.
	Rand     *rand.Rand
	Logger   *zap.SugaredLogger
	Progress ProgressFunc
	Compare  CompareFunc
	Stop     StopFunc
	Filter   Filter
	// Weighting overrides the macro-weights; zero value means defaults.
	Weighting WeightConfig
	// RangeMin and RangeMax give the native output range of the models.
	// Both zero means [0, 1].
	RangeMin float64
	RangeMax float64
}

func (s *Settings) withDefaults() Settings {
	out := Settings{}
	if s != nil {
		out = *s
	}
	if out.Rand == nil {
		out.Rand = rand.New(rand.NewSource(1))
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop().Sugar()
	}
	if out.Compare == nil {
		out.Compare = DefaultCompare
	}
	if out.Stop == nil {
		out.Stop = DefaultStop(0)
	}
	if (out.Weighting == WeightConfig{}) {
		out.Weighting = DefaultWeightConfig()
	}
	if out.RangeMin == 0 && out.RangeMax == 0 {
		out.RangeMax = 1
	}
	return out
}

// Builder orchestrates repetitions × folds × member configurations into a
// finalized ensemble. A Builder is single-threaded; each Build call owns its
// working copy of the input bundle.
type Builder struct {
	policy   Policy
	kind     sample.Kind
	configs  []ModelConfig
	settings Settings
}

// NewBuilder validates the policy and configurations.
func NewBuilder(policy Policy, kind sample.Kind, configs []ModelConfig, settings *Settings) (*Builder, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, errors.New("crossval: empty member configuration list")
	}
	for i, cfg := range configs {
		if cfg == nil {
			return nil, errors.Errorf("crossval: nil member configuration at %d", i)
		}
	}
	return &Builder{
		policy:   policy,
		kind:     kind,
		configs:  configs,
		settings: settings.withDefaults(),
	}, nil
}

// Build runs the whole cross-validation loop over the bundle and returns a
// finalized ensemble. Any error aborts the build; no partial ensemble is
// returned.
func (b *Builder) Build(bundle *sample.Bundle) (*Cluster, error) {
	if bundle == nil {
		return nil, errors.New("crossval: nil bundle")
	}
	cluster := b.newCluster()
	work := bundle.Clone()
	for rep := 0; rep < b.policy.Repetitions; rep++ {
		if rep > 0 {
			work.Shuffle(b.settings.Rand)
		}
		if err := b.buildRepetition(cluster, work, rep, -1); err != nil {
			return nil, err
		}
	}
	cluster.FinalizeCluster()
	b.settings.Logger.Infof("ensemble finalized: %d members, weights %v", cluster.Len(), cluster.Weights())
	return cluster, nil
}

func (b *Builder) newCluster() *Cluster {
	return NewCluster(b.kind,
		WithClusterThreshold(b.policy.threshold()),
		WithWeightConfig(b.settings.Weighting),
		WithOutputRange(b.settings.RangeMin, b.settings.RangeMax),
	)
}

// buildRepetition runs one repetition's fold loop, appending members to the
// cluster. stage is -1 outside chain builds.
func (b *Builder) buildRepetition(cluster *Cluster, work *sample.Bundle, rep, stage int) error {
	folds, err := fold.Split(work, b.kind, b.policy.FoldRatio, b.policy.threshold())
	if err != nil {
		return err
	}
	k := len(folds)
	if b.policy.Folds > 0 && b.policy.Folds < k {
		k = b.policy.Folds
	}
	for f := 0; f < k; f++ {
		trainBundle := work.Subset(folds[f].Train)
		testBundle := work.Subset(folds[f].Test)
		for mi, cfg := range b.configs {
			member, err := b.trainMember(cfg, trainBundle, testBundle, Scope{Repetition: rep, Fold: f}, stage, mi)
			if err != nil {
				return err
			}
			if err := cluster.AddMember(member); err != nil {
				return err
			}
			b.settings.Logger.Debugf("member trained: rep %d fold %d config %d testErr %.6f",
				rep, f, mi, member.Test.Precision)
		}
	}
	return nil
}

func (b *Builder) trainMember(cfg ModelConfig, train, test *sample.Bundle, scope Scope, stage, member int) (*Member, error) {
	driver, err := NewDriver(cfg, b.kind, train, test,
		WithThreshold(b.policy.threshold()),
		WithCompare(b.settings.Compare),
		WithStop(b.settings.Stop),
		WithFilter(b.settings.Filter),
		WithProgress(b.settings.Progress),
		WithLogger(b.settings.Logger),
		withContext(scope, stage, member),
	)
	if err != nil {
		return nil, err
	}
	return driver.Train(b.settings.Rand)
}

// BuildEnsemble is the one-call form of NewBuilder plus Build.
func BuildEnsemble(policy Policy, kind sample.Kind, configs []ModelConfig, bundle *sample.Bundle, settings *Settings) (*Cluster, error) {
	builder, err := NewBuilder(policy, kind, configs, settings)
	if err != nil {
		return nil, err
	}
	return builder.Build(bundle)
}
