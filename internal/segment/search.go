package segment

import (
	"errors"
	"fmt"
	"image"
	"log"

	"captcha-reader/pkg/geometry"
)

// ErrSearchExhausted is returned when no K within the iteration budget
// produced the target number of boxes.
var ErrSearchExhausted = errors.New("k search exhausted")

// Options controls the K search.
type Options struct {
	TargetCount   int     `json:"target_count"`
	MaxIterations int     `json:"max_iterations"`
	HeightRatio   float64 `json:"height_ratio"`
}

// DefaultOptions returns the settings for four-letter CAPTCHAs.
func DefaultOptions() Options {
	return Options{
		TargetCount:   4,
		MaxIterations: 50,
		HeightRatio:   DefaultHeightRatio,
	}
}

// SearchResult holds the boxes of a converged search.
type SearchResult struct {
	Boxes      []geometry.Box
	K          int // K that produced Boxes
	Iterations int // segmentation passes used
}

// Segment runs one Extract → Merge → Split pass at granularity k.
func Segment(bin *image.Gray, k int, heightRatio float64) []geometry.Box {
	return Split(Merge(Extract(bin), heightRatio), k)
}

// Search looks for a K that splits bin into exactly opts.TargetCount boxes.
// Extraction and merging don't depend on K, so they run once; only the
// split is repeated per iteration.
func Search(bin *image.Gray, initialK int, opts Options) (SearchResult, error) {
	primaries := Merge(Extract(bin), opts.HeightRatio)
	return SearchK(func(k int) []geometry.Box {
		return Split(primaries, k)
	}, initialK, opts.TargetCount, opts.MaxIterations)
}

// SearchK hill-climbs K with unit steps: too many boxes raises K, too few
// lowers it (never below 1). It calls segment at most maxIter times.
// Visited values are not remembered, so K may oscillate until the budget runs out.
func SearchK(segment func(k int) []geometry.Box, initialK, target, maxIter int) (SearchResult, error) {
	k := max(1, initialK)
	maxIter = max(1, maxIter)

	var boxes []geometry.Box
	lastK := k
	for i := 1; i <= maxIter; i++ {
		lastK = k
		boxes = segment(k)

		switch {
		case len(boxes) == target:
			log.Printf("K-search: K=%d gave %d boxes after %d iterations", k, len(boxes), i)
			return SearchResult{Boxes: boxes, K: k, Iterations: i}, nil
		case len(boxes) > target:
			k++
		default:
			k = max(1, k-1)
		}
	}

	log.Printf("K-search: gave up at K=%d with %d boxes (want %d)", lastK, len(boxes), target)
	return SearchResult{Boxes: boxes, K: lastK, Iterations: maxIter},
		fmt.Errorf("%w: %d boxes at K=%d after %d iterations, want %d",
			ErrSearchExhausted, len(boxes), lastK, maxIter, target)
}
