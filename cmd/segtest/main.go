// Command segtest runs preprocessing and the K search on a CAPTCHA image
// and prints every stage. No classifier is needed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"captcha-reader/internal/preprocess"
	"captcha-reader/internal/segment"
	"captcha-reader/internal/solver"
	"captcha-reader/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to CAPTCHA image (PNG, JPEG, GIF, BMP, TIFF or WebP)")
	k := flag.Int("k", solver.DefaultInitialK, "Initial K")
	target := flag.Int("target", 4, "Expected number of glyphs")
	maxIter := flag.Int("max-iter", 50, "K search iteration limit")
	erode := flag.Int("erode", 1, "Erosion iterations (0 disables)")
	invert := flag.Bool("invert", false, "Treat the dark class as foreground")
	overlay := flag.String("overlay", "", "Write a box overlay PNG to this path")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: segtest -image <path> [-k 22] [-target 4] [-max-iter 50] [-erode 1] [-invert] [-overlay out.png]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	opts := solver.DefaultOptions()
	opts.Preprocess = opts.Preprocess.WithErosion(3, 1, *erode)
	opts.Preprocess.Invert = *invert
	opts.Segment.TargetCount = *target
	opts.Segment.MaxIterations = *maxIter

	fmt.Printf("Parameters:\n")
	fmt.Printf("  Initial K: %d, target: %d, max iterations: %d\n", *k, *target, *maxIter)
	fmt.Printf("  Erosion: %dx%d x%d, invert: %v\n",
		opts.Preprocess.ErodeWidth, opts.Preprocess.ErodeHeight, opts.Preprocess.ErodeIterations, *invert)
	fmt.Printf("  Height ratio: %.2f, padding: %d\n", opts.Segment.HeightRatio, opts.Padding)

	trace, err := solver.New(nil, opts).Analyze(data, *k)
	if trace == nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}

	b := trace.Binary.Bounds()
	fmt.Printf("\nLoaded %s image, binary crop %dx%d\n", trace.Format, b.Dx(), b.Dy())
	if _, ok := preprocess.ForegroundBounds(trace.Binary); !ok {
		fmt.Println("  no foreground after thresholding")
	}

	comps := segment.Extract(trace.Binary)
	fmt.Printf("\n%d connected components:\n", len(comps))
	fmt.Printf("%-4s %-22s %6s %6s\n", "#", "Box", "Height", "Area")
	for i, c := range comps {
		fmt.Printf("%-4d %-22s %6d %6d\n", i, c.Box, c.Height(), c.Area)
	}

	fmt.Printf("\n%d boxes after merge:\n", len(trace.Primaries))
	for i, p := range trace.Primaries {
		fmt.Printf("  %d: %s width %d, %d letters at K=%d\n",
			i, p, p.Width(), segment.LetterCount(p.Width(), trace.K), trace.K)
	}

	fmt.Printf("\nK search: K=%d after %d iterations, extent %s\n",
		trace.K, trace.Iterations, geometry.BoundingBox(trace.Boxes))
	for i, g := range trace.Glyphs {
		size := "empty"
		if g.Image != nil {
			size = fmt.Sprintf("%dx%d", g.Image.Bounds().Dx(), g.Image.Bounds().Dy())
		}
		fmt.Printf("  glyph %d: %s (%s)\n", i, g.Box, size)
	}
	if err != nil {
		fmt.Printf("  %v\n", err)
	}

	if *overlay != "" {
		png, oerr := trace.Overlay()
		if oerr != nil {
			fmt.Fprintf(os.Stderr, "Failed to render overlay: %v\n", oerr)
			os.Exit(1)
		}
		if werr := os.WriteFile(*overlay, png, 0o644); werr != nil {
			fmt.Fprintf(os.Stderr, "Failed to write overlay: %v\n", werr)
			os.Exit(1)
		}
		fmt.Printf("\nOverlay written to %s\n", *overlay)
	}

	fmt.Printf("\n%s\n", strings.Repeat("-", 40))
	if errors.Is(err, solver.ErrKSearch) {
		fmt.Println(solver.SentinelKSearchFail)
		os.Exit(2)
	}
	fmt.Printf("Segmented into %d glyphs\n", len(trace.Glyphs))
}
