package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nctk/crossval/model"
)

func TestLinearTermer(t *testing.T) {
	tm := model.LinearTermer{}
	assert.Equal(t, 4, tm.NumTerms(3))
	terms := make([]float64, 4)
	tm.Terms(terms, []float64{2, 3, 4})
	assert.Equal(t, []float64{1, 2, 3, 4}, terms)
}

func TestPolyTermer(t *testing.T) {
	tm := model.PolyTermer{Order: 3}
	assert.Equal(t, 7, tm.NumTerms(2))
	terms := make([]float64, 7)
	tm.Terms(terms, []float64{2, 3})
	assert.Equal(t, []float64{1, 2, 3, 4, 9, 8, 27}, terms)
}

func TestPolyTermerOrderOne(t *testing.T) {
	tm := model.PolyTermer{Order: 1}
	assert.Equal(t, 3, tm.NumTerms(2))
	terms := make([]float64, 3)
	tm.Terms(terms, []float64{5, -1})
	assert.Equal(t, []float64{1, 5, -1}, terms)
}
