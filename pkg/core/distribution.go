package core

import (
	"fmt"
	"sort"
)

// PiecewiseSampler draws an index with probability proportional to its weight.
// Entries with zero weight are never selected.
type PiecewiseSampler struct {
	weights []float64
	cdf     []float64 // cdf[i] is the sum of weights[0..i]
	total   float64
}

// NewPiecewiseSampler builds the cumulative table for weights.
// Weights must be non-negative with a positive sum.
func NewPiecewiseSampler(weights []float64) (*PiecewiseSampler, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("piecewise sampler over zero entries: %w", ErrInvalidState)
	}

	cdf := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 || !isFinite(w) {
			return nil, fmt.Errorf("piecewise sampler weight %d is %v: %w", i, w, ErrNumericDegenerate)
		}
		total += w
		cdf[i] = total
	}

	if total <= 0 {
		return nil, fmt.Errorf("piecewise sampler weights sum to zero: %w", ErrInvalidState)
	}

	owned := make([]float64, len(weights))
	copy(owned, weights)

	return &PiecewiseSampler{weights: owned, cdf: cdf, total: total}, nil
}

// Sample maps u in [0, 1) to an index
func (p *PiecewiseSampler) Sample(u float64) int {
	target := u * p.total
	index := sort.Search(len(p.cdf), func(i int) bool { return p.cdf[i] > target })
	if index == len(p.cdf) {
		// u rounded up to the total; take the last entry that can be selected
		index = len(p.cdf) - 1
		for index > 0 && p.weights[index] == 0 {
			index--
		}
	}
	return index
}

// Probability returns the discrete probability of selecting index i
func (p *PiecewiseSampler) Probability(i int) float64 {
	return p.weights[i] / p.total
}

// Weight returns the unnormalized weight of entry i
func (p *PiecewiseSampler) Weight(i int) float64 {
	return p.weights[i]
}

// Total returns the sum of all weights
func (p *PiecewiseSampler) Total() float64 {
	return p.total
}

// Len returns the number of entries
func (p *PiecewiseSampler) Len() int {
	return len(p.weights)
}
