// Package valuearea derives point of control, value area and support/resistance from a volume profile.
package valuearea

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

// DefaultTargetFraction conventional share of volume inside the value area.
const DefaultTargetFraction = 0.68

// Extractor computes landmarks with a configurable value area strategy.
type Extractor struct {
	strategy Strategy
}

// NewExtractor creates an extractor. A nil strategy means RankedSpan.
func NewExtractor(strategy Strategy) *Extractor {
	if strategy == nil {
		strategy = RankedSpan{}
	}
	return &Extractor{strategy: strategy}
}

// Strategy returns the value area strategy in use.
func (e *Extractor) Strategy() Strategy {
	return e.strategy
}

// Extract computes landmarks using the RankedSpan strategy.
func Extract(volumes, edges []float64, targetFraction float64) (domain.Landmarks, error) {
	return NewExtractor(nil).Extract(volumes, edges, targetFraction)
}

// Extract computes point of control, value area bounds and support/resistance.
// volumes[i] belongs to [edges[i], edges[i+1]), so len(edges) must be len(volumes)+1.
func (e *Extractor) Extract(volumes, edges []float64, targetFraction float64) (domain.Landmarks, error) {
	if math.IsNaN(targetFraction) || targetFraction <= 0 || targetFraction > 1 {
		return domain.Landmarks{}, errors.Wrapf(domain.ErrInvalidTarget, "target fraction %v is outside (0, 1]", targetFraction)
	}
	if len(volumes) == 0 {
		return domain.Landmarks{}, errors.Wrap(domain.ErrEmptyProfile, "profile has no bins")
	}
	if len(edges) != len(volumes)+1 {
		return domain.Landmarks{}, errors.Wrapf(domain.ErrInvalidScheme, "%d edges for %d bins", len(edges), len(volumes))
	}

	poc := 0
	var total float64
	for i, v := range volumes {
		total += v
		if v > volumes[poc] {
			poc = i
		}
	}
	if total <= 0 {
		return domain.Landmarks{}, errors.Wrap(domain.ErrEmptyProfile, "profile has no volume")
	}

	selected := e.strategy.Select(volumes, poc, targetFraction*total)

	var vaVolume float64
	for _, idx := range selected {
		vaVolume += volumes[idx]
	}

	pocPrice := (edges[poc] + edges[poc+1]) / 2
	low, high := edges[0], edges[len(edges)-1]
	margin := math.Max(high-pocPrice, pocPrice-low)

	return domain.Landmarks{
		PointOfControlIndex: poc,
		PointOfControlPrice: pocPrice,
		ValueAreaLow:        edges[selected[0]],
		ValueAreaHigh:       edges[selected[len(selected)-1]+1],
		ValueAreaIndices:    selected,
		ValueAreaVolume:     vaVolume,
		TotalVolume:         total,
		SupportPrice:        pocPrice - margin,
		ResistancePrice:     pocPrice + margin,
	}, nil
}
