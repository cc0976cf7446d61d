package profile

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

// Profile accumulated volume per price bin.
// Volumes[i] belongs to the bin [Edges[i], Edges[i+1]). Never mutated after construction.
type Profile struct {
	Volumes []float64 `json:"volumes"`
	Edges   []float64 `json:"edges"`
	// DroppedCandles counts candles whose range overlapped no bin.
	DroppedCandles int `json:"dropped_candles"`
	// DroppedVolume is the volume of the dropped candles.
	DroppedVolume float64 `json:"dropped_volume"`
}

// ComputeProfile distributes each candle's volume equally across the bins its [low, high] range overlaps.
// Bin i overlaps a candle iff edge[i] < high and edge[i+1] > low. A candle that overlaps no bin
// (zero-width range on an edge, or outside the scheme) contributes nothing and is counted as dropped.
func ComputeProfile(candles []domain.Candle, scheme *Scheme) (*Profile, error) {
	if scheme == nil || len(scheme.edges) < 2 {
		return nil, errors.Wrap(domain.ErrInvalidScheme, "scheme is not initialized")
	}
	if len(candles) == 0 {
		return nil, domain.ErrEmptyInput
	}

	edges := scheme.edges
	bins := len(edges) - 1
	p := &Profile{
		Volumes: make([]float64, bins),
		Edges:   scheme.Edges(),
	}

	for _, c := range candles {
		first, last, ok := overlapRange(edges, c.Low, c.High)
		if !ok {
			p.DroppedCandles++
			p.DroppedVolume += c.Volume
			continue
		}

		share := c.Volume / float64(last-first+1)
		for i := first; i <= last; i++ {
			p.Volumes[i] += share
		}
	}

	return p, nil
}

// overlapRange returns the inclusive range of bins overlapping [low, high] using binary search.
func overlapRange(edges []float64, low, high float64) (first, last int, ok bool) {
	bins := len(edges) - 1
	// first bin whose upper edge is above low
	first = sort.Search(bins, func(i int) bool { return edges[i+1] > low })
	// last bin whose lower edge is below high
	last = sort.Search(bins, func(i int) bool { return edges[i] >= high }) - 1
	if first >= bins || last < 0 || first > last {
		return 0, 0, false
	}
	return first, last, true
}

// Total returns the sum of all bin volumes.
func (p *Profile) Total() float64 {
	var total float64
	for _, v := range p.Volumes {
		total += v
	}
	return total
}

// Len returns the number of bins.
func (p *Profile) Len() int {
	return len(p.Volumes)
}

// Midpoint returns the price in the middle of bin i.
func (p *Profile) Midpoint(i int) float64 {
	return (p.Edges[i] + p.Edges[i+1]) / 2
}

// BinWidth returns the average bin width.
func (p *Profile) BinWidth() float64 {
	if len(p.Edges) < 2 {
		return 0
	}
	return (p.Edges[len(p.Edges)-1] - p.Edges[0]) / float64(len(p.Edges)-1)
}

// PriceRange returns the lowest low and the highest high of the candles.
func PriceRange(candles []domain.Candle) (low, high float64, err error) {
	if len(candles) == 0 {
		return 0, 0, domain.ErrEmptyInput
	}
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, c := range candles {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
	}
	return low, high, nil
}
