package glyph

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"captcha-reader/internal/preprocess"
	"captcha-reader/pkg/geometry"
)

func randomBinary(w, h int, seed int64) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		if rng.Intn(2) == 1 {
			img.Pix[i] = preprocess.Foreground
		}
	}
	return img
}

func TestPadSizeInteriorAndBorder(t *testing.T) {
	for _, tc := range []struct{ w, h, pad int }{{1, 1, 2}, {7, 3, 2}, {5, 9, 0}, {4, 4, 5}} {
		src := randomBinary(tc.w, tc.h, int64(tc.w*100+tc.h))
		out := Pad(src, tc.pad)

		if out.Bounds().Dx() != tc.w+2*tc.pad || out.Bounds().Dy() != tc.h+2*tc.pad {
			t.Fatalf("%dx%d pad %d: got %v", tc.w, tc.h, tc.pad, out.Bounds())
		}
		for y := 0; y < out.Bounds().Dy(); y++ {
			for x := 0; x < out.Bounds().Dx(); x++ {
				inside := x >= tc.pad && x < tc.pad+tc.w && y >= tc.pad && y < tc.pad+tc.h
				got := out.GrayAt(x, y).Y
				if inside {
					if want := src.GrayAt(x-tc.pad, y-tc.pad).Y; got != want {
						t.Fatalf("interior (%d,%d) = %d, want %d", x, y, got, want)
					}
				} else if got != preprocess.Background {
					t.Fatalf("border (%d,%d) = %d, want background", x, y, got)
				}
			}
		}
	}
}

func TestPadSubImage(t *testing.T) {
	src := randomBinary(10, 10, 7)
	sub := src.SubImage(image.Rect(3, 4, 6, 9)).(*image.Gray)
	out := Pad(sub, 1)
	if out.Bounds().Dx() != 5 || out.Bounds().Dy() != 7 {
		t.Fatalf("unexpected size %v", out.Bounds())
	}
	if out.GrayAt(1, 1).Y != src.GrayAt(3, 4).Y {
		t.Fatalf("sub-image origin not honoured")
	}
}

func TestNormalizeSortsLeftToRight(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 40, 10))
	boxes := []geometry.Box{
		geometry.NewBox(30, 0, 5, 10),
		geometry.NewBox(0, 0, 5, 10),
		geometry.NewBox(20, 0, 5, 10),
		geometry.NewBox(10, 0, 5, 10),
	}
	glyphs := Normalize(bin, boxes, DefaultPadding)
	if len(glyphs) != 4 {
		t.Fatalf("expected 4 glyphs, got %d", len(glyphs))
	}
	for i := 1; i < len(glyphs); i++ {
		if glyphs[i-1].Box.XMin > glyphs[i].Box.XMin {
			t.Fatalf("glyphs out of order: %v before %v", glyphs[i-1].Box, glyphs[i].Box)
		}
	}
	if boxes[0].XMin != 30 {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestNormalizeCropsContent(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 20, 8))
	bin.SetGray(12, 3, color.Gray{Y: preprocess.Foreground})

	glyphs := Normalize(bin, []geometry.Box{geometry.NewBox(10, 2, 4, 4)}, 2)
	img := glyphs[0].Image
	if img == nil {
		t.Fatalf("expected a crop")
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Fatalf("expected 8x8 padded glyph, got %v", img.Bounds())
	}
	if img.GrayAt(2+2, 2+1).Y != preprocess.Foreground {
		t.Fatalf("foreground pixel not at its padded position")
	}
}

func TestNormalizeEmptyBoxHasNoImage(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 20, 8))
	glyphs := Normalize(bin, []geometry.Box{
		{XMin: 5, YMin: 0, XMax: 5, YMax: 8},
		geometry.NewBox(50, 0, 4, 4),
		geometry.NewBox(0, 0, 4, 4),
	}, 2)
	if len(glyphs) != 3 {
		t.Fatalf("boxes must never be dropped, got %d", len(glyphs))
	}
	if glyphs[1].Image != nil || glyphs[2].Image != nil {
		t.Fatalf("zero-width and out-of-bounds boxes should have no image")
	}
	if glyphs[0].Image == nil {
		t.Fatalf("valid box should be cropped")
	}
}
