package preprocess

import (
	"image"

	"gocv.io/x/gocv"
)

// ImageToMat converts a Go image to an OpenCV Mat.
// Gray images become single-channel Mats, everything else BGR.
func ImageToMat(img image.Image) gocv.Mat {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		return GrayToMat(g)
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// 16-bit to 8-bit, BGR order for OpenCV
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}

// GrayToMat copies a gray image into a CV_8UC1 Mat.
func GrayToMat(g *image.Gray) gocv.Mat {
	bounds := g.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mat.SetUCharAt(y, x, g.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
		}
	}
	return mat
}

// MatToGray copies a single-channel Mat into a gray image anchored at (0,0).
func MatToGray(mat gocv.Mat) *image.Gray {
	h, w := mat.Rows(), mat.Cols()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := range row {
			row[x] = mat.GetUCharAt(y, x)
		}
	}
	return out
}

// toGrayMat returns a single-channel Mat for img, converting colour with OpenCV.
func toGrayMat(img image.Image) gocv.Mat {
	src := ImageToMat(img)
	if src.Channels() == 1 {
		return src
	}
	defer src.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray
}

// ToGray converts img to an 8-bit gray image anchored at (0,0).
func ToGray(img image.Image) *image.Gray {
	mat := toGrayMat(img)
	defer mat.Close()
	return MatToGray(mat)
}
