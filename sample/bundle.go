// Package sample holds labeled sample bundles and the output-kind semantics
// shared by the cross-validation engine.
package sample

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Bundle is an ordered set of (input, ideal) vector pairs. All inputs share
// one dimensionality, as do all ideals. A bundle is valid once it holds at
// least two pairs.
type Bundle struct {
	Inputs [][]float64
	Ideals [][]float64
}

// NewBundle validates and wraps the given pairs. The slices are kept, not
// copied.
func NewBundle(inputs, ideals [][]float64) (*Bundle, error) {
	if len(inputs) != len(ideals) {
		return nil, errors.Errorf("sample: %d inputs vs %d ideals", len(inputs), len(ideals))
	}
	if len(inputs) < 2 {
		return nil, errors.Errorf("sample: bundle needs at least 2 samples, has %d", len(inputs))
	}
	inDim := len(inputs[0])
	outDim := len(ideals[0])
	if outDim == 0 {
		return nil, errors.New("sample: empty ideal vector")
	}
	for i := range inputs {
		if len(inputs[i]) != inDim {
			return nil, errors.Errorf("sample: input %d has dim %d, want %d", i, len(inputs[i]), inDim)
		}
		if len(ideals[i]) != outDim {
			return nil, errors.Errorf("sample: ideal %d has dim %d, want %d", i, len(ideals[i]), outDim)
		}
	}
	return &Bundle{Inputs: inputs, Ideals: ideals}, nil
}

// Len returns the number of sample pairs.
func (b *Bundle) Len() int { return len(b.Inputs) }

// InputDim returns the input vector dimensionality.
func (b *Bundle) InputDim() int {
	if len(b.Inputs) == 0 {
		return 0
	}
	return len(b.Inputs[0])
}

// IdealDim returns the ideal vector dimensionality.
func (b *Bundle) IdealDim() int {
	if len(b.Ideals) == 0 {
		return 0
	}
	return len(b.Ideals[0])
}

// Clone returns a deep copy. Builds mutate their working bundle (shuffling,
// augmentation), so they operate on clones of caller data.
func (b *Bundle) Clone() *Bundle {
	inputs := make([][]float64, len(b.Inputs))
	ideals := make([][]float64, len(b.Ideals))
	for i := range b.Inputs {
		inputs[i] = append([]float64(nil), b.Inputs[i]...)
		ideals[i] = append([]float64(nil), b.Ideals[i]...)
	}
	return &Bundle{Inputs: inputs, Ideals: ideals}
}

// Shuffle permutes the pairs in place using rnd.
func (b *Bundle) Shuffle(rnd *rand.Rand) {
	rnd.Shuffle(len(b.Inputs), func(i, j int) {
		b.Inputs[i], b.Inputs[j] = b.Inputs[j], b.Inputs[i]
		b.Ideals[i], b.Ideals[j] = b.Ideals[j], b.Ideals[i]
	})
}

// Subset returns a bundle view over the given indices. The vectors are
// shared with the receiver.
func (b *Bundle) Subset(inds []int) *Bundle {
	inputs := make([][]float64, len(inds))
	ideals := make([][]float64, len(inds))
	for i, idx := range inds {
		inputs[i] = b.Inputs[idx]
		ideals[i] = b.Ideals[idx]
	}
	return &Bundle{Inputs: inputs, Ideals: ideals}
}

// Class returns the class index of sample i for the given kind. For
// SingleProbability the threshold splits positive (1) from negative (0).
// For Distribution it is the hot class. Continuous bundles have no classes
// and always report 0.
func (b *Bundle) Class(i int, kind Kind, threshold float64) int {
	switch kind {
	case SingleProbability:
		if b.Ideals[i][0] >= threshold {
			return 1
		}
		return 0
	case Distribution:
		best := 0
		for j, v := range b.Ideals[i] {
			if v > b.Ideals[i][best] {
				best = j
			}
		}
		return best
	}
	return 0
}

// Augment returns a bundle whose input vectors are the receiver's inputs
// extended with extra[i]. Ideals are shared.
func (b *Bundle) Augment(extra [][]float64) (*Bundle, error) {
	if len(extra) != len(b.Inputs) {
		return nil, errors.Errorf("sample: augment with %d rows, bundle has %d", len(extra), len(b.Inputs))
	}
	inputs := make([][]float64, len(b.Inputs))
	for i := range b.Inputs {
		row := make([]float64, 0, len(b.Inputs[i])+len(extra[i]))
		row = append(row, b.Inputs[i]...)
		row = append(row, extra[i]...)
		inputs[i] = row
	}
	return &Bundle{Inputs: inputs, Ideals: b.Ideals}, nil
}
