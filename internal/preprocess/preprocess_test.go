package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"captcha-reader/pkg/geometry"
)

func fillGray(img *image.Gray, r image.Rectangle, v uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

func countForeground(img *image.Gray) int {
	n := 0
	for _, p := range img.Pix {
		if p == Foreground {
			n++
		}
	}
	return n
}

func TestBinarizeSplitsBrightFromDark(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 20, 10))
	fillGray(gray, gray.Bounds(), 30)
	fillGray(gray, image.Rect(5, 2, 9, 8), 220)

	bin := Binarize(gray, false)
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			want := Background
			if (image.Point{x, y}).In(image.Rect(5, 2, 9, 8)) {
				want = Foreground
			}
			if got := bin.GrayAt(x, y).Y; got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}

	inv := Binarize(gray, true)
	if countForeground(inv) != 20*10-4*6 {
		t.Fatalf("inverted binarization should make the dark class foreground, got %d", countForeground(inv))
	}
}

func TestBinarizeUniformYieldsBackground(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	fillGray(gray, gray.Bounds(), 180)

	bin := Binarize(gray, false)
	if n := countForeground(bin); n != 0 {
		t.Fatalf("expected all background, got %d foreground pixels", n)
	}
}

func TestBinarizeIsIdempotentOnBinaryInput(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 16, 8))
	fillGray(gray, image.Rect(2, 1, 6, 7), 250)
	fillGray(gray, image.Rect(9, 0, 14, 5), 240)

	once := Binarize(gray, false)
	twice := Binarize(once, false)
	if !bytes.Equal(once.Pix, twice.Pix) {
		t.Fatalf("binarizing a binary image changed it")
	}

	cropped, _ := CropForeground(once)
	again, box := CropForeground(cropped)
	if !bytes.Equal(cropped.Pix, again.Pix) || box != geometry.FromRect(cropped.Bounds()) {
		t.Fatalf("cropping a cropped image changed it: %v", box)
	}
}

func TestErodeRemovesThinVerticalLinks(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 20, 10))
	fillGray(bin, image.Rect(2, 2, 7, 8), Foreground) // 5 wide block
	fillGray(bin, image.Rect(12, 0, 13, 10), Foreground) // 1 px vertical line

	out := Erode(bin, DefaultOptions())
	if got := out.GrayAt(12, 5).Y; got != Background {
		t.Fatalf("1 px line should be eroded away")
	}
	box, ok := ForegroundBounds(out)
	if !ok {
		t.Fatalf("block should survive erosion")
	}
	if box != (geometry.Box{XMin: 3, YMin: 2, XMax: 6, YMax: 8}) {
		t.Fatalf("expected block to shrink horizontally only, got %v", box)
	}
}

func TestErodeDisabled(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 5, 5))
	fillGray(bin, image.Rect(2, 0, 3, 5), Foreground)
	out := Erode(bin, DefaultOptions().WithErosion(3, 1, 0))
	if !bytes.Equal(bin.Pix, out.Pix) {
		t.Fatalf("zero iterations should leave the image unchanged")
	}
}

func TestCropForegroundWithoutForeground(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 7, 3))
	out, box := CropForeground(bin)
	if out != bin {
		t.Fatalf("expected the original image back")
	}
	if box != geometry.NewBox(0, 0, 7, 3) {
		t.Fatalf("expected full extent, got %v", box)
	}
}

func TestPreprocessCropsColorImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 30, B: 60, A: 255})
		}
	}
	for y := 4; y < 15; y++ {
		for x := 10; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 230, B: 200, A: 255})
		}
	}

	out := Preprocess(img, DefaultOptions())
	// Erosion trims one column on each side of the 6 px wide block.
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 11 {
		t.Fatalf("expected 4x11 crop, got %v", out.Bounds())
	}
	if countForeground(out) != 4*11 {
		t.Fatalf("crop should be all foreground, got %d", countForeground(out))
	}
}

func TestPreprocessBlankImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 30, 12))
	out := Preprocess(img, DefaultOptions())
	if out.Bounds().Dx() != 30 || out.Bounds().Dy() != 12 {
		t.Fatalf("blank image should keep its extent, got %v", out.Bounds())
	}
	if countForeground(out) != 0 {
		t.Fatalf("blank image should have no foreground")
	}
}

func TestDecode(t *testing.T) {
	if _, _, err := Decode(nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, _, err := Decode([]byte("not an image")); err == nil {
		t.Fatalf("expected error for garbage bytes")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, format, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "png" || img.Bounds().Dx() != 3 {
		t.Fatalf("unexpected decode result %s %v", format, img.Bounds())
	}
}

func TestToGray(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 9, 7))
	img.Set(5, 5, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(8, 6, color.RGBA{A: 255})

	g := ToGray(img)
	if g.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds = %v, want anchored 4x2", g.Bounds())
	}
	if g.GrayAt(0, 0).Y != 255 || g.GrayAt(3, 1).Y != 0 {
		t.Fatalf("corners = %d, %d", g.GrayAt(0, 0).Y, g.GrayAt(3, 1).Y)
	}
}
