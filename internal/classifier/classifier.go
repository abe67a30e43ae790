// Package classifier maps single glyph images to labels of a fixed alphabet.
//
// The pipeline depends only on the Classifier interface. Tensor models
// (ONNX, linear) are wrapped by an Adapter that resamples and normalizes
// glyphs; Tesseract classifies glyph images directly.
package classifier

import (
	"errors"
	"image"
	"io"
	"strings"
)

// Placeholder is the label substituted for glyphs that could not be classified.
const Placeholder = "?"

// ErrEmptyGlyph is returned for nil or zero-area glyph images.
var ErrEmptyGlyph = errors.New("empty glyph image")

// Classifier labels one binary glyph image.
// Implementations document whether Classify may be called concurrently;
// wrap the ones that can't with Serialize.
type Classifier interface {
	Classify(glyph *image.Gray) (string, error)
}

// Close releases native resources held by c, if any.
func Close(c Classifier) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Alphabet is the ordered label set a model was trained on.
// Model output index i maps to Alphabet[i].
type Alphabet []string

// DefaultLetters is the 26-letter lowercase alphabet of the target CAPTCHA.
const DefaultLetters = "abcdefghijklmnopqrstuvwxyz"

// DefaultAlphabet returns a–z.
func DefaultAlphabet() Alphabet {
	return ParseAlphabet(DefaultLetters)
}

// ParseAlphabet makes one label per rune of s.
func ParseAlphabet(s string) Alphabet {
	a := make(Alphabet, 0, len(s))
	for _, r := range s {
		a = append(a, string(r))
	}
	return a
}

// Label returns the label for a model output index, or Placeholder when
// the index is outside the alphabet.
func (a Alphabet) Label(i int) string {
	if i < 0 || i >= len(a) {
		return Placeholder
	}
	return a[i]
}

// Index returns the position of label, or -1.
func (a Alphabet) Index(label string) int {
	for i, l := range a {
		if l == label {
			return i
		}
	}
	return -1
}

// String joins the labels, e.g. for use as an OCR whitelist.
func (a Alphabet) String() string {
	return strings.Join(a, "")
}
