// Package solver runs the full CAPTCHA pipeline: decode, preprocess,
// K search, glyph normalization and per-glyph classification.
package solver

import (
	"errors"
	"fmt"
	"image"
	"log"
	"strings"

	"captcha-reader/internal/classifier"
	"captcha-reader/internal/glyph"
	"captcha-reader/internal/preprocess"
	"captcha-reader/internal/segment"
	"captcha-reader/pkg/geometry"

	"github.com/google/uuid"
)

// Errors returned by Recognize. Each maps to one sentinel string.
var (
	ErrModelNotLoaded = errors.New("classifier not loaded")
	ErrDecode         = errors.New("image decode failed")
	ErrKSearch        = errors.New("k search failed")
)

// Sentinel strings returned by Solve in place of a prediction.
const (
	SentinelModelNotLoaded = "MODEL_NOT_LOADED"
	SentinelPreprocessFail = "PREPROCESS_FAIL"
	SentinelKSearchFail    = "K_SEARCH_FAIL"
)

// DefaultInitialK is the starting K that fits the target CAPTCHA's glyph width.
const DefaultInitialK = 22

// Options configures a Solver.
type Options struct {
	InitialK   int                `json:"initial_k"`
	Padding    int                `json:"padding"`
	Preprocess preprocess.Options `json:"preprocess"`
	Segment    segment.Options    `json:"segment"`
}

// DefaultOptions returns the settings the classifier was trained against.
func DefaultOptions() Options {
	return Options{
		InitialK:   DefaultInitialK,
		Padding:    glyph.DefaultPadding,
		Preprocess: preprocess.DefaultOptions(),
		Segment:    segment.DefaultOptions(),
	}
}

// Prediction is the result of one successful Recognize call.
type Prediction struct {
	Text       string         `json:"text"`
	K          int            `json:"k"`
	Iterations int            `json:"iterations"`
	Boxes      []geometry.Box `json:"boxes"`
}

// Solver recognizes CAPTCHA images with an injected classifier.
// It holds no per-call state and is safe for concurrent use when the
// classifier is.
type Solver struct {
	classifier classifier.Classifier
	opts       Options
}

// New creates a Solver. A nil classifier is accepted; Recognize then
// fails with ErrModelNotLoaded.
func New(c classifier.Classifier, opts Options) *Solver {
	return &Solver{classifier: c, opts: opts}
}

// Options returns the solver's configuration.
func (s *Solver) Options() Options {
	return s.opts
}

// Recognize decodes data and returns the predicted text. initialK <= 0
// selects the configured default. Glyphs the classifier rejects become
// classifier.Placeholder; the call still succeeds.
func (s *Solver) Recognize(data []byte, initialK int) (Prediction, error) {
	if s.classifier == nil {
		return Prediction{}, ErrModelNotLoaded
	}

	id := uuid.NewString()[:8]
	trace, err := s.Analyze(data, initialK)
	if err != nil {
		log.Printf("Solver[%s]: %v", id, err)
		return Prediction{}, err
	}

	labels := make([]string, len(trace.Glyphs))
	for i, g := range trace.Glyphs {
		label, err := s.classifier.Classify(g.Image)
		if err != nil {
			log.Printf("Solver[%s]: glyph %d at %s: %v", id, i, g.Box, err)
			label = classifier.Placeholder
		}
		labels[i] = label
	}

	text := strings.Join(labels, "")
	log.Printf("Solver[%s]: %q (K=%d, %d iterations)", id, text, trace.K, trace.Iterations)

	return Prediction{
		Text:       text,
		K:          trace.K,
		Iterations: trace.Iterations,
		Boxes:      trace.Boxes,
	}, nil
}

// Solve is Recognize with failures reported as sentinel strings.
func (s *Solver) Solve(data []byte, initialK int) string {
	p, err := s.Recognize(data, initialK)
	if err != nil {
		return Sentinel(err)
	}
	return p.Text
}

// Sentinel maps a Recognize error to its sentinel string and returns ""
// for nil. Errors from outside the pipeline map to PREPROCESS_FAIL.
func Sentinel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrModelNotLoaded):
		return SentinelModelNotLoaded
	case errors.Is(err, ErrKSearch):
		return SentinelKSearchFail
	default:
		return SentinelPreprocessFail
	}
}

// Trace holds the intermediate results of the segmentation stages.
type Trace struct {
	Format     string         // decoder that read the input
	Binary     *image.Gray    // preprocessed, cropped bitmap
	Primaries  []geometry.Box // merged boxes before splitting
	Boxes      []geometry.Box // final boxes, left to right
	K          int
	Iterations int
	Glyphs     []glyph.Glyph
}

// Analyze runs every stage up to classification. It needs no classifier.
// On ErrKSearch the returned trace is still filled in with the last attempt.
func (s *Solver) Analyze(data []byte, initialK int) (*Trace, error) {
	if initialK <= 0 {
		initialK = s.opts.InitialK
	}

	img, format, err := preprocess.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	bin := preprocess.Preprocess(img, s.opts.Preprocess)
	trace := &Trace{
		Format:    format,
		Binary:    bin,
		Primaries: segment.Merge(segment.Extract(bin), s.opts.Segment.HeightRatio),
	}

	result, err := segment.SearchK(func(k int) []geometry.Box {
		return segment.Split(trace.Primaries, k)
	}, initialK, s.opts.Segment.TargetCount, s.opts.Segment.MaxIterations)
	trace.K = result.K
	trace.Iterations = result.Iterations
	trace.Boxes = glyph.SortByX(result.Boxes)
	if err != nil {
		return trace, fmt.Errorf("%w: %w", ErrKSearch, err)
	}

	trace.Glyphs = glyph.Normalize(bin, trace.Boxes, s.opts.Padding)
	return trace, nil
}
