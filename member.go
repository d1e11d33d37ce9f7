package crossval

import (
	"math"

	"github.com/nctk/crossval/sample"
	"github.com/nctk/crossval/stats"
)

// Scope identifies which repetition and fold produced a member. Chained
// stages use it to re-align per-fold data.
type Scope struct {
	Repetition int
	Fold       int
}

// SideStats are the error statistics of one member on one side (training or
// held-out testing) of its split.
type SideStats struct {
	Samples   int
	Precision float64 // average per-sample error on normalized outputs
	Natural   float64 // same, mapped through the reverse filter
	Confusion stats.Confusion
}

// Member is one trained model together with the statistics of the split that
// produced it.
type Member struct {
	Model Model
	Scope Scope
	Train SideStats
	Test  SideStats
}

// measure computes SideStats for a model over a bundle. filter may be nil,
// in which case Natural equals Precision.
func measure(m Model, b *sample.Bundle, kind sample.Kind, threshold float64, filter Filter) SideStats {
	var prec stats.Precision
	var natural stats.Precision
	var conf stats.Confusion
	for i := 0; i < b.Len(); i++ {
		ideal := b.Ideals[i]
		actual := m.Compute(b.Inputs[i])
		prec.Add(ideal, actual)
		if filter != nil {
			natural.Add(reverse(filter, ideal), reverse(filter, actual))
		}
		switch kind {
		case sample.SingleProbability:
			conf.ObserveBinary(ideal[0], actual[0], threshold)
		case sample.Distribution:
			conf.ObserveDistribution(ideal, actual, threshold)
		}
	}
	s := SideStats{
		Samples:   b.Len(),
		Precision: prec.Mean(),
		Natural:   prec.Mean(),
		Confusion: conf,
	}
	if filter != nil {
		s.Natural = natural.Mean()
	}
	return s
}

func reverse(f Filter, v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = f.ApplyReverse(x)
	}
	return out
}

// binaryRate is the worse of the two confusion-error rates of a member.
func (m *Member) binaryRate() float64 {
	return math.Max(m.Train.Confusion.MisrecognizedRate()+m.Train.Confusion.UnrecognizedRate(),
		m.Test.Confusion.MisrecognizedRate()+m.Test.Confusion.UnrecognizedRate())
}
