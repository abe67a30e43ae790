// Package glyph crops segmented boxes out of a binary bitmap and pads them
// into the per-character images handed to the classifier.
package glyph

import (
	"image"
	"sort"

	"captcha-reader/internal/preprocess"
	"captcha-reader/pkg/geometry"
)

// DefaultPadding is the background border added around each crop.
const DefaultPadding = 2

// Glyph is one character candidate in reading order.
type Glyph struct {
	Box geometry.Box

	// Image is the padded crop, or nil when Box does not overlap the bitmap.
	Image *image.Gray
}

// SortByX orders boxes left to right by XMin. Equal XMin keeps input order.
func SortByX(boxes []geometry.Box) []geometry.Box {
	sorted := make([]geometry.Box, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].XMin < sorted[j].XMin
	})
	return sorted
}

// Normalize sorts boxes left to right, crops each from bin and pads it with
// pad pixels of background on every side. One Glyph is returned per box.
func Normalize(bin *image.Gray, boxes []geometry.Box, pad int) []Glyph {
	sorted := SortByX(boxes)
	bounds := geometry.FromRect(bin.Bounds())

	glyphs := make([]Glyph, 0, len(sorted))
	for _, b := range sorted {
		g := Glyph{Box: b}
		if clipped := b.Intersect(bounds); !clipped.Empty() {
			g.Image = Pad(preprocess.Crop(bin, clipped), pad)
		}
		glyphs = append(glyphs, g)
	}
	return glyphs
}

// Pad returns a copy of img enlarged by pad background pixels on all four
// sides. The original content sits at offset (pad, pad). Negative pad is treated as 0.
func Pad(img *image.Gray, pad int) *image.Gray {
	pad = max(0, pad)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// Background is 0, so the new canvas is already border-filled.
	out := image.NewGray(image.Rect(0, 0, w+2*pad, h+2*pad))
	for y := 0; y < h; y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		dst := out.PixOffset(pad, pad+y)
		copy(out.Pix[dst:dst+w], img.Pix[src:src+w])
	}
	return out
}
