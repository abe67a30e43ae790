package solver

import (
	"fmt"
	"image"

	"captcha-reader/internal/preprocess"
	"captcha-reader/pkg/colorutil"
	"captcha-reader/pkg/geometry"

	"gocv.io/x/gocv"
)

// RenderBoxes draws boxes over a binary bitmap, one palette color per box,
// and returns the overlay as PNG.
func RenderBoxes(bin *image.Gray, boxes []geometry.Box) ([]byte, error) {
	gray := preprocess.GrayToMat(bin)
	defer gray.Close()

	overlay := gocv.NewMat()
	defer overlay.Close()
	gocv.CvtColor(gray, &overlay, gocv.ColorGrayToBGR)

	for i, b := range boxes {
		// gocv draws both corners inclusively
		rect := image.Rect(b.XMin, b.YMin, b.XMax-1, b.YMax-1)
		gocv.Rectangle(&overlay, rect, colorutil.BoxColor(i), 1)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, overlay)
	if err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// Overlay renders the trace's final boxes, or its primaries when the
// search did not converge.
func (t *Trace) Overlay() ([]byte, error) {
	boxes := t.Boxes
	if len(boxes) == 0 {
		boxes = t.Primaries
	}
	return RenderBoxes(t.Binary, boxes)
}
