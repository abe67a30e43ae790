package classifier

import (
	"fmt"
	"image"
	"log"

	"captcha-reader/pkg/colorutil"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
)

// InputShape is the fixed CHW input a tensor model expects.
type InputShape struct {
	Channels int `json:"channels"`
	Height   int `json:"height"`
	Width    int `json:"width"`
}

// DefaultInputShape is the 1×64×64 grayscale input of the character CNN.
func DefaultInputShape() InputShape {
	return InputShape{Channels: 1, Height: 64, Width: 64}
}

// Size returns the number of values in one input tensor.
func (s InputShape) Size() int {
	return s.Channels * s.Height * s.Width
}

// Model scores one normalized CHW tensor, returning one score per class.
type Model interface {
	Predict(input []float32) ([]float32, error)
}

// Adapter turns a tensor Model into a Classifier. It is safe for
// concurrent use when the model is.
type Adapter struct {
	model    Model
	alphabet Alphabet
	shape    InputShape
}

// NewAdapter binds model to alphabet and input shape.
func NewAdapter(model Model, alphabet Alphabet, shape InputShape) *Adapter {
	return &Adapter{model: model, alphabet: alphabet, shape: shape}
}

// Classify resamples the glyph, runs the model and maps the best scoring
// index to a label. An index outside the alphabet yields Placeholder, not an error.
func (a *Adapter) Classify(glyph *image.Gray) (string, error) {
	input, err := a.Tensor(glyph)
	if err != nil {
		return "", err
	}

	scores, err := a.model.Predict(input)
	if err != nil {
		return "", fmt.Errorf("model prediction failed: %w", err)
	}
	if len(scores) == 0 {
		return "", fmt.Errorf("model returned no scores")
	}

	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = float64(s)
	}
	idx := floats.MaxIdx(values)
	if idx >= len(a.alphabet) {
		log.Printf("Classifier: index %d outside alphabet of %d labels", idx, len(a.alphabet))
	}
	return a.alphabet.Label(idx), nil
}

// Close releases the model's resources, if it holds any.
func (a *Adapter) Close() error {
	if closer, ok := a.model.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Tensor resamples glyph to the input shape with bilinear filtering and
// normalizes intensities from [0,255] to [-1,1], i.e. (v/255 - 0.5) / 0.5.
// Gray values are replicated across channels.
func (a *Adapter) Tensor(glyph *image.Gray) ([]float32, error) {
	if glyph == nil || glyph.Bounds().Empty() {
		return nil, ErrEmptyGlyph
	}
	if a.shape.Size() <= 0 {
		return nil, fmt.Errorf("invalid input shape %+v", a.shape)
	}

	resized := imaging.Resize(glyph, a.shape.Width, a.shape.Height, imaging.Linear)

	plane := a.shape.Width * a.shape.Height
	out := make([]float32, a.shape.Size())
	for y := 0; y < a.shape.Height; y++ {
		for x := 0; x < a.shape.Width; x++ {
			p := resized.Pix[y*resized.Stride+x*4:]
			v := float32(colorutil.Luma(p[0], p[1], p[2])) / 255
			v = (v - 0.5) / 0.5
			for c := 0; c < a.shape.Channels; c++ {
				out[c*plane+y*a.shape.Width+x] = v
			}
		}
	}
	return out, nil
}
