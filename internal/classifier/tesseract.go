package classifier

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"captcha-reader/pkg/colorutil"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// tesseractHeight is the glyph height Tesseract reads single characters best at.
const tesseractHeight = 64

// TesseractClassifier recognizes glyphs with Tesseract in single character mode.
// It needs no trained model file but is much less accurate than the CNN.
// A gosseract client is not safe for concurrent use.
type TesseractClassifier struct {
	client   *gosseract.Client
	alphabet Alphabet
}

// NewTesseractClassifier creates a client restricted to the alphabet.
func NewTesseractClassifier(alphabet Alphabet) (*TesseractClassifier, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// CAPTCHA strings aren't words, keep the dictionary out of it
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := client.SetWhitelist(alphabet.String() + strings.ToUpper(alphabet.String())); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}

	return &TesseractClassifier{client: client, alphabet: alphabet}, nil
}

// Close releases OCR resources.
func (t *TesseractClassifier) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// Classify returns the first recognized character that belongs to the
// alphabet, or Placeholder when Tesseract finds none.
func (t *TesseractClassifier) Classify(glyph *image.Gray) (string, error) {
	if glyph == nil || glyph.Bounds().Empty() {
		return "", ErrEmptyGlyph
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, prepareForTesseract(glyph)); err != nil {
		return "", fmt.Errorf("failed to encode glyph: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return t.match(text), nil
}

func (t *TesseractClassifier) match(text string) string {
	for _, r := range strings.TrimSpace(text) {
		s := string(r)
		if i := t.alphabet.Index(s); i >= 0 {
			return t.alphabet.Label(i)
		}
		if i := t.alphabet.Index(strings.ToLower(s)); i >= 0 {
			return t.alphabet.Label(i)
		}
	}
	return Placeholder
}

// prepareForTesseract turns a light-on-dark glyph into dark-on-light,
// upscales it and centers it on a white margin.
func prepareForTesseract(glyph *image.Gray) image.Image {
	inverted := imaging.Invert(glyph)
	scaled := imaging.Resize(inverted, 0, tesseractHeight, imaging.Lanczos)

	b := scaled.Bounds()
	margin := tesseractHeight / 4
	canvas := imaging.New(b.Dx()+2*margin, b.Dy()+2*margin, colorutil.White)
	return imaging.PasteCenter(canvas, scaled)
}
