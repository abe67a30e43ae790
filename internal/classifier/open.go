package classifier

import (
	"fmt"
	"log"
)

// Backend names a classifier implementation.
type Backend string

const (
	BackendONNX      Backend = "onnx"
	BackendLinear    Backend = "linear"
	BackendTesseract Backend = "tesseract"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendONNX, BackendLinear, BackendTesseract:
		return b, nil
	default:
		return "", fmt.Errorf("unknown classifier backend %q", s)
	}
}

// Options selects and configures a backend.
type Options struct {
	Backend     Backend
	ModelPath   string // .onnx or linear JSON weights
	RuntimePath string // ONNX Runtime shared library
	Alphabet    Alphabet
	Shape       InputShape
}

// Open constructs the configured classifier. Call it once at startup and
// share the result; release it with Close. Backends that aren't safe for
// concurrent use come back wrapped in Serialize.
func Open(opts Options) (Classifier, error) {
	if len(opts.Alphabet) == 0 {
		opts.Alphabet = DefaultAlphabet()
	}
	if opts.Shape.Size() <= 0 {
		opts.Shape = DefaultInputShape()
	}

	switch opts.Backend {
	case BackendONNX:
		model, err := NewONNXModel(opts.ModelPath, opts.RuntimePath, opts.Shape)
		if err != nil {
			return nil, err
		}
		log.Printf("Classifier: loaded ONNX model %s (%d labels)", opts.ModelPath, len(opts.Alphabet))
		return Serialize(NewAdapter(model, opts.Alphabet, opts.Shape)), nil

	case BackendLinear:
		model, err := LoadLinearModel(opts.ModelPath)
		if err != nil {
			return nil, err
		}
		if model.Classes() != len(opts.Alphabet) {
			log.Printf("Classifier: linear model has %d classes for %d labels", model.Classes(), len(opts.Alphabet))
		}
		log.Printf("Classifier: loaded linear model %s", opts.ModelPath)
		return NewAdapter(model, opts.Alphabet, opts.Shape), nil

	case BackendTesseract:
		t, err := NewTesseractClassifier(opts.Alphabet)
		if err != nil {
			return nil, err
		}
		log.Printf("Classifier: using Tesseract with whitelist %q", opts.Alphabet.String())
		return Serialize(t), nil

	default:
		return nil, fmt.Errorf("unknown classifier backend %q", opts.Backend)
	}
}
