// Package preprocess turns raw CAPTCHA images into cropped, binary, noise-reduced bitmaps.
//
// Binary images are *image.Gray values whose pixels are either Background (0)
// or Foreground (255). Foreground is the bright class chosen by Otsu's method.
package preprocess

import (
	"image"

	"captcha-reader/pkg/geometry"

	"gocv.io/x/gocv"
)

// Pixel levels of a binary image.
const (
	Background uint8 = 0
	Foreground uint8 = 255
)

// Options controls the morphological cleanup step.
type Options struct {
	// Structuring element size. A wide, one pixel tall element breaks the
	// thin links that fuse neighbouring glyphs while leaving stroke height alone.
	ErodeWidth  int `json:"erode_width"`
	ErodeHeight int `json:"erode_height"`

	// Number of erosion passes; 0 disables erosion.
	ErodeIterations int `json:"erode_iterations"`

	// Invert makes the dark class the foreground, for dark-on-light CAPTCHAs.
	Invert bool `json:"invert,omitempty"`
}

// DefaultOptions returns the 3x1, single pass erosion the classifier was trained on.
func DefaultOptions() Options {
	return Options{
		ErodeWidth:      3,
		ErodeHeight:     1,
		ErodeIterations: 1,
	}
}

// WithErosion returns a copy of opts with a custom structuring element.
func (o Options) WithErosion(width, height, iterations int) Options {
	o.ErodeWidth = width
	o.ErodeHeight = height
	o.ErodeIterations = iterations
	return o
}

// Preprocess converts img to gray, binarizes it with Otsu's threshold,
// erodes it and crops it to the foreground.
// An image without foreground is returned uncropped (and all background).
func Preprocess(img image.Image, opts Options) *image.Gray {
	gray := toGrayMat(img)
	defer gray.Close()

	binary := binarizeMat(gray, opts.Invert)
	defer binary.Close()

	erodeMat(&binary, opts)

	cropped, _ := CropForeground(MatToGray(binary))
	return cropped
}

// Binarize applies Otsu's global threshold to a gray image, bright class as foreground.
// A gray image with a single intensity level has no contrast to split and
// yields an all-background image.
func Binarize(gray *image.Gray, invert bool) *image.Gray {
	src := GrayToMat(gray)
	defer src.Close()

	binary := binarizeMat(src, invert)
	defer binary.Close()

	return MatToGray(binary)
}

// Erode applies the configured erosion to a binary image.
func Erode(binary *image.Gray, opts Options) *image.Gray {
	mat := GrayToMat(binary)
	defer mat.Close()

	erodeMat(&mat, opts)
	return MatToGray(mat)
}

func binarizeMat(gray gocv.Mat, invert bool) gocv.Mat {
	minVal, maxVal, _, _ := gocv.MinMaxLoc(gray)
	if minVal == maxVal {
		return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), gray.Rows(), gray.Cols(), gocv.MatTypeCV8UC1)
	}

	mode := gocv.ThresholdBinary
	if invert {
		mode = gocv.ThresholdBinaryInv
	}
	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, float32(Foreground), mode|gocv.ThresholdOtsu)
	return binary
}

func erodeMat(mat *gocv.Mat, opts Options) {
	if opts.ErodeIterations <= 0 || opts.ErodeWidth <= 0 || opts.ErodeHeight <= 0 {
		return
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: opts.ErodeWidth, Y: opts.ErodeHeight})
	defer kernel.Close()

	for i := 0; i < opts.ErodeIterations; i++ {
		gocv.Erode(*mat, mat, kernel)
	}
}

// CropForeground crops a binary image to the tight bounds of its foreground
// pixels and returns the crop together with those bounds in source coordinates.
// Without foreground the image is returned as is with its full extent.
func CropForeground(binary *image.Gray) (*image.Gray, geometry.Box) {
	bounds := binary.Bounds()
	box, ok := ForegroundBounds(binary)
	if !ok {
		return binary, geometry.FromRect(bounds)
	}
	return Crop(binary, box), box
}

// ForegroundBounds returns the bounding box of all foreground pixels.
func ForegroundBounds(binary *image.Gray) (geometry.Box, bool) {
	bounds := binary.Bounds()
	xMin, yMin := bounds.Max.X, bounds.Max.Y
	xMax, yMax := bounds.Min.X-1, bounds.Min.Y-1

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if binary.GrayAt(x, y).Y != Foreground {
				continue
			}
			xMin = min(xMin, x)
			xMax = max(xMax, x)
			yMin = min(yMin, y)
			yMax = max(yMax, y)
		}
	}
	if xMax < xMin {
		return geometry.Box{}, false
	}
	return geometry.Box{XMin: xMin, YMin: yMin, XMax: xMax + 1, YMax: yMax + 1}, true
}

// Crop copies the part of img inside box (clamped to img) into a new image anchored at (0,0).
func Crop(img *image.Gray, box geometry.Box) *image.Gray {
	box = box.Intersect(geometry.FromRect(img.Bounds()))
	out := image.NewGray(image.Rect(0, 0, box.Width(), box.Height()))
	for y := 0; y < box.Height(); y++ {
		srcOff := img.PixOffset(box.XMin, box.YMin+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+box.Width()], img.Pix[srcOff:srcOff+box.Width()])
	}
	return out
}
