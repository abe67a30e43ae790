// Package colorutil provides shared color utilities for the captcha reader.
package colorutil

import (
	"image/color"
)

// Colors for debug overlays and OCR canvases.
var (
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

var palette = []color.RGBA{Cyan, Magenta, Green, Yellow}

// BoxColor returns the overlay color for the i-th box.
func BoxColor(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// Luma converts 8-bit RGB to gray using the BT.601 weights OpenCV uses for BGR2GRAY.
func Luma(r, g, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if y > 255 {
		y = 255
	}
	return uint8(y + 0.5)
}
