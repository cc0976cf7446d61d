// Package profile builds volume profiles: traded volume distributed across price bins.
package profile

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

// Scheme immutable set of increasing bin edges. Bin i is the half-open interval [edge[i], edge[i+1]).
type Scheme struct {
	edges []float64
}

// NewFixedStepScheme splits [low, high] with step (high-low)/resolution.
// Edges follow the arithmetic progression low+i*step and the last edge is pinned to high,
// so the scheme has exactly resolution bins.
func NewFixedStepScheme(low, high float64, resolution int) (*Scheme, error) {
	if err := validateRange(low, high, resolution); err != nil {
		return nil, err
	}

	step := (high - low) / float64(resolution)
	edges := make([]float64, resolution+1)
	for i := 0; i < resolution; i++ {
		edges[i] = low + float64(i)*step
	}
	edges[resolution] = high

	return NewScheme(edges)
}

// NewFixedCountScheme splits [low, high] into binCount evenly spaced bins.
func NewFixedCountScheme(low, high float64, binCount int) (*Scheme, error) {
	if err := validateRange(low, high, binCount); err != nil {
		return nil, err
	}

	span := high - low
	edges := make([]float64, binCount+1)
	for i := 0; i <= binCount; i++ {
		edges[i] = low + span*float64(i)/float64(binCount)
	}
	edges[binCount] = high

	return NewScheme(edges)
}

// NewScheme creates a scheme from explicit edges. Edges must be finite and strictly increasing.
func NewScheme(edges []float64) (*Scheme, error) {
	if len(edges) < 2 {
		return nil, errors.Wrapf(domain.ErrInvalidScheme, "need at least 2 edges, got %d", len(edges))
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return nil, errors.Wrapf(domain.ErrInvalidScheme, "edge %d is not finite", i)
		}
		if i > 0 && e <= edges[i-1] {
			return nil, errors.Wrapf(domain.ErrInvalidScheme, "edge %d (%v) is not above edge %d (%v)", i, e, i-1, edges[i-1])
		}
	}

	cp := make([]float64, len(edges))
	copy(cp, edges)
	return &Scheme{edges: cp}, nil
}

// Edges returns a copy of the bin edges.
func (s *Scheme) Edges() []float64 {
	cp := make([]float64, len(s.edges))
	copy(cp, s.edges)
	return cp
}

// BinCount returns the number of bins.
func (s *Scheme) BinCount() int {
	return len(s.edges) - 1
}

// Low returns the first edge.
func (s *Scheme) Low() float64 {
	return s.edges[0]
}

// High returns the last edge.
func (s *Scheme) High() float64 {
	return s.edges[len(s.edges)-1]
}

func validateRange(low, high float64, bins int) error {
	if math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 0) || math.IsInf(high, 0) {
		return errors.Wrap(domain.ErrInvalidScheme, "price range must be finite")
	}
	if high <= low {
		return errors.Wrapf(domain.ErrInvalidScheme, "high price %v must be above low price %v", high, low)
	}
	if bins < 1 {
		return errors.Wrapf(domain.ErrInvalidScheme, "bin count must be at least 1, got %d", bins)
	}
	return nil
}
