package valuearea

import "sort"

// Strategy selects the bins that make up the value area.
// threshold is targetFraction x total volume; poc is the point of control bin.
// Implementations return the selected bins in ascending order.
type Strategy interface {
	Select(volumes []float64, poc int, threshold float64) []int
	Name() string
}

// RankedSpan ranks bins by descending volume (ties by ascending index) and takes them until the
// running sum reaches the threshold. Bounds then span from the lowest to the highest selected bin,
// including any low-volume bins skipped in between.
type RankedSpan struct{}

// Name returns the strategy identifier.
func (RankedSpan) Name() string { return "ranked_span" }

// Select returns the visited bins.
func (RankedSpan) Select(volumes []float64, _ int, threshold float64) []int {
	order := make([]int, len(volumes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return volumes[order[a]] > volumes[order[b]]
	})

	var sum float64
	visited := make([]int, 0, len(order))
	for _, idx := range order {
		sum += volumes[idx]
		visited = append(visited, idx)
		if sum >= threshold {
			break
		}
	}

	sort.Ints(visited)
	return visited
}

// ContiguousGrowth starts at the point of control and expands one bin at a time towards the
// larger neighbour until the threshold is reached. Equal neighbours expand downwards.
type ContiguousGrowth struct{}

// Name returns the strategy identifier.
func (ContiguousGrowth) Name() string { return "contiguous" }

// Select returns the contiguous run of bins around poc.
func (ContiguousGrowth) Select(volumes []float64, poc int, threshold float64) []int {
	down, up := poc, poc
	sum := volumes[poc]

	for sum < threshold {
		canUp := up < len(volumes)-1
		canDown := down > 0
		if !canUp && !canDown {
			break
		}

		var nextUp, nextDown float64
		if canUp {
			nextUp = volumes[up+1]
		}
		if canDown {
			nextDown = volumes[down-1]
		}

		if canUp && (!canDown || nextUp > nextDown) {
			up++
			sum += nextUp
		} else {
			down--
			sum += nextDown
		}
	}

	out := make([]int, 0, up-down+1)
	for i := down; i <= up; i++ {
		out = append(out, i)
	}
	return out
}

// StrategyByName resolves a strategy identifier. Unknown names fall back to RankedSpan.
func StrategyByName(name string) (Strategy, bool) {
	switch name {
	case "", RankedSpan{}.Name():
		return RankedSpan{}, true
	case ContiguousGrowth{}.Name():
		return ContiguousGrowth{}, true
	default:
		return RankedSpan{}, false
	}
}
