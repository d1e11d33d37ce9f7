// Package stats provides the running error accumulators the training engine
// queries: a precision-error accumulator for continuous outputs and binary
// confusion counters for classification outputs.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Precision collects per-sample root-mean-square errors and reports their
// average.
type Precision struct {
	errs []float64
}

// Add records one (ideal, actual) output pair. Vectors must share length.
func (p *Precision) Add(ideal, actual []float64) {
	var se float64
	for i := range ideal {
		d := actual[i] - ideal[i]
		se += d * d
	}
	p.errs = append(p.errs, math.Sqrt(se/float64(len(ideal))))
}

// Mean returns the average per-sample error, or 0 before any sample.
func (p *Precision) Mean() float64 {
	if len(p.errs) == 0 {
		return 0
	}
	return stat.Mean(p.errs, nil)
}

// N returns the number of accumulated samples.
func (p *Precision) N() int { return len(p.errs) }

// Confusion counts binary decision outcomes. Misrecognized counts samples
// decided positive against a negative ideal (or decided as the wrong class),
// Unrecognized counts positives the decision missed.
type Confusion struct {
	Misrecognized int
	Unrecognized  int
	Total         int
}

// ObserveBinary records one single-probability decision at the threshold.
func (c *Confusion) ObserveBinary(ideal, actual, threshold float64) {
	c.Total++
	idealPos := ideal >= threshold
	actualPos := actual >= threshold
	switch {
	case actualPos && !idealPos:
		c.Misrecognized++
	case !actualPos && idealPos:
		c.Unrecognized++
	}
}

// ObserveDistribution records one multi-class decision. The decision is the
// arg-max class; if no class reaches the threshold the sample counts as
// unrecognized, if the wrong class wins it counts as misrecognized.
func (c *Confusion) ObserveDistribution(ideal, actual []float64, threshold float64) {
	c.Total++
	ib, ab := argmax(ideal), argmax(actual)
	if actual[ab] < threshold {
		c.Unrecognized++
		return
	}
	if ib != ab {
		c.Misrecognized++
	}
}

// MisrecognizedRate returns Misrecognized / Total, or 0 when empty.
func (c *Confusion) MisrecognizedRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Misrecognized) / float64(c.Total)
}

// UnrecognizedRate returns Unrecognized / Total, or 0 when empty.
func (c *Confusion) UnrecognizedRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Unrecognized) / float64(c.Total)
}

// Errors returns the total confusion count.
func (c *Confusion) Errors() int { return c.Misrecognized + c.Unrecognized }

// Merge folds another counter into the receiver.
func (c *Confusion) Merge(o Confusion) {
	c.Misrecognized += o.Misrecognized
	c.Unrecognized += o.Unrecognized
	c.Total += o.Total
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
