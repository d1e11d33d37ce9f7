// Package fold partitions sample bundles into cross-validation folds.
package fold

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nctk/crossval/sample"
)

// Fold is one cross-validation split. Test holds the indices of the held-out
// samples, Train the indices of every other sample in the bundle. Indices
// refer to rows of the bundle passed to Split.
type Fold struct {
	Train []int
	Test  []int
}

// Split partitions the bundle into near-equal folds. The number of folds is
// round(1/ratio). For binary and distribution kinds the folds preserve the
// global class proportions as closely as integer division allows; threshold
// is the decision threshold used to read classes off SingleProbability
// ideals. Samples are never shuffled here; shuffle the bundle first if
// desired.
func Split(b *sample.Bundle, kind sample.Kind, ratio, threshold float64) ([]Fold, error) {
	if ratio <= 0 || ratio > 0.5 {
		return nil, errors.Errorf("fold: ratio %v out of (0, 0.5]", ratio)
	}
	n := b.Len()
	nFolds := int(math.Round(1 / ratio))
	if nFolds == 0 {
		return nil, errors.New("fold: zero folds")
	}
	if nFolds > n {
		return nil, errors.Errorf("fold: %d folds over %d samples leaves empty folds", nFolds, n)
	}

	var testing [][]int
	if kind.Binary() {
		testing = balancedPartition(b, kind, nFolds, threshold)
		for i := range testing {
			if len(testing[i]) == 0 {
				return nil, errors.Errorf("fold: too few samples per class for %d balanced folds", nFolds)
			}
		}
	} else {
		testing = partition(n, nFolds)
	}

	folds := make([]Fold, nFolds)
	inTest := make([]int, n)
	for i, test := range testing {
		for _, idx := range test {
			inTest[idx] = i
		}
		folds[i].Test = test
	}
	for i := range folds {
		train := make([]int, 0, n-len(folds[i].Test))
		for idx := 0; idx < n; idx++ {
			if inTest[idx] != i {
				train = append(train, idx)
			}
		}
		folds[i].Train = train
	}
	return folds, nil
}

// partition deals contiguous runs of indices into nFolds test sets, with the
// remainder spread over the leading folds.
func partition(n, nFolds int) [][]int {
	testing := make([][]int, nFolds)
	perFold := n / nFolds
	remainder := n % nFolds

	idx := 0
	for i := 0; i < nFolds; i++ {
		size := perFold
		if i < remainder {
			size++
		}
		testing[i] = make([]int, size)
		for j := 0; j < size; j++ {
			testing[i][j] = idx
			idx++
		}
	}
	if idx != n {
		panic("fold: bad partition")
	}
	return testing
}

// balancedPartition partitions per class, so each fold carries the global
// class mix.
func balancedPartition(b *sample.Bundle, kind sample.Kind, nFolds int, threshold float64) [][]int {
	byClass := make(map[int][]int)
	var order []int
	for i := 0; i < b.Len(); i++ {
		c := b.Class(i, kind, threshold)
		if _, ok := byClass[c]; !ok {
			order = append(order, c)
		}
		byClass[c] = append(byClass[c], i)
	}

	testing := make([][]int, nFolds)
	for _, c := range order {
		idxs := byClass[c]
		perFold := len(idxs) / nFolds
		remainder := len(idxs) % nFolds
		pos := 0
		for i := 0; i < nFolds; i++ {
			size := perFold
			if i < remainder {
				size++
			}
			testing[i] = append(testing[i], idxs[pos:pos+size]...)
			pos += size
		}
	}
	return testing
}
