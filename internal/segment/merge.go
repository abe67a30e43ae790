package segment

import (
	"math"

	"captcha-reader/pkg/geometry"
)

// DefaultHeightRatio is the fraction of the tallest component a region
// needs to count as a glyph rather than a fragment.
const DefaultHeightRatio = 0.4

// Merge partitions components into primary boxes (height >= ratio × tallest)
// and fragments, then unions every fragment into the primary box whose
// horizontal center is nearest. Ties go to the earlier primary.
// Returns nil when no component reaches the threshold.
func Merge(comps []Component, ratio float64) []geometry.Box {
	if len(comps) == 0 {
		return nil
	}

	maxHeight := 0
	for _, c := range comps {
		maxHeight = max(maxHeight, c.Height())
	}
	threshold := ratio * float64(maxHeight)

	var primaries, fragments []geometry.Box
	for _, c := range comps {
		if float64(c.Height()) < threshold {
			fragments = append(fragments, c.Box)
		} else {
			primaries = append(primaries, c.Box)
		}
	}

	for _, f := range fragments {
		target := nearestByCenterX(primaries, f.CenterX())
		if target < 0 {
			continue
		}
		primaries[target] = primaries[target].Union(f)
	}
	return primaries
}

func nearestByCenterX(boxes []geometry.Box, cx float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, b := range boxes {
		if d := math.Abs(cx - b.CenterX()); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
