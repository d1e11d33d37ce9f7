// Package model provides concrete Model and Trainer implementations for the
// cross-validation engine: least-squares and LMS regressors over linear or
// polynomial terms, and logistic/softmax classifiers.
package model

import "math"

// Termer expands an input vector into the nonlinear terms of a generalized
// linear fit
//
//	f(x) = β_0 * t_0(x) + β_1 * t_1(x) + ... + β_n * t_n(x)
type Termer interface {
	// NumTerms returns the number of terms as a function of input dim.
	NumTerms(dim int) int
	// Terms computes the terms in-place into terms.
	Terms(terms, x []float64)
}

// LinearTermer produces a constant term plus the raw inputs.
type LinearTermer struct{}

func (LinearTermer) NumTerms(dim int) int { return 1 + dim }

func (LinearTermer) Terms(terms, x []float64) {
	terms[0] = 1
	copy(terms[1:], x)
}

// PolyTermer produces the individual power terms up to Order, with no
// cross-terms:
//
//	1, x_1, ..., x_n, x_1^2, ..., x_n^2, ..., x_1^order, ..., x_n^order
type PolyTermer struct {
	Order int
}

func (p PolyTermer) NumTerms(dim int) int { return 1 + p.Order*dim }

func (p PolyTermer) Terms(terms, x []float64) {
	dim := len(x)
	terms[0] = 1
	for i := 0; i < p.Order; i++ {
		for j, v := range x {
			terms[1+j+dim*i] = math.Pow(v, float64(i)+1)
		}
	}
}
