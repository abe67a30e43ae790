package segment

import (
	"captcha-reader/pkg/geometry"
)

// LetterCount returns how many glyphs a region of the given width is assumed
// to hold at granularity k: max(1, ceil(width/k)). k below 1 counts as 1.
func LetterCount(width, k int) int {
	k = max(1, k)
	if width <= 0 {
		return 1
	}
	return max(1, (width+k-1)/k)
}

// Split divides every box wider than k into LetterCount equal sub-boxes.
// Sub-box centers are the interior points of an n+2 point linear split of
// the box, so the outermost sub-boxes never reach past the original edges.
func Split(boxes []geometry.Box, k int) []geometry.Box {
	out := make([]geometry.Box, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, splitBox(b, k)...)
	}
	return out
}

func splitBox(b geometry.Box, k int) []geometry.Box {
	n := LetterCount(b.Width(), k)
	if n == 1 {
		return []geometry.Box{b}
	}

	width := float64(b.Width())
	step := width / float64(n+1)
	half := width / float64(2*n)

	subs := make([]geometry.Box, 0, n)
	for i := 1; i <= n; i++ {
		cx := float64(b.XMin) + step*float64(i)
		subs = append(subs, geometry.Box{
			XMin: int(cx - half),
			YMin: b.YMin,
			XMax: int(cx + half),
			YMax: b.YMax,
		})
	}
	return subs
}
