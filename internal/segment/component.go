// Package segment isolates glyph boxes in a binary CAPTCHA bitmap.
//
// The pipeline is Extract (connected components) → Merge (fold fragments
// into glyph-sized regions) → Split (divide wide regions by K), driven by
// Search, which adjusts K until the box count matches the target.
package segment

import (
	"image"

	"captcha-reader/internal/preprocess"
	"captcha-reader/pkg/geometry"

	"gocv.io/x/gocv"
)

// Column layout of the stats Mat produced by connectedComponentsWithStats.
const (
	statLeft   = 0
	statTop    = 1
	statWidth  = 2
	statHeight = 3
	statArea   = 4
)

// Component is one 8-connected foreground region.
type Component struct {
	Box  geometry.Box
	Area int
}

// Height returns the vertical extent of the component.
func (c Component) Height() int {
	return c.Box.Height()
}

// Extract labels the 8-connected foreground regions of a binary image.
// Components are returned in label order, which follows the raster position
// of each region's first pixel. The background label is skipped.
func Extract(bin *image.Gray) []Component {
	if bin == nil || bin.Bounds().Empty() {
		return nil
	}

	src := preprocess.GrayToMat(bin)
	defer src.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(src, &labels, &stats, &centroids)
	if n <= 1 {
		return nil
	}

	comps := make([]Component, 0, n-1)
	for i := 1; i < n; i++ {
		x := int(stats.GetIntAt(i, statLeft))
		y := int(stats.GetIntAt(i, statTop))
		w := int(stats.GetIntAt(i, statWidth))
		h := int(stats.GetIntAt(i, statHeight))
		comps = append(comps, Component{
			Box:  geometry.NewBox(x, y, w, h),
			Area: int(stats.GetIntAt(i, statArea)),
		})
	}
	return comps
}
