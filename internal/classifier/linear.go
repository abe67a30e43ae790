package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// LinearModel is a softmax-regression model: scores = W·x + b.
// It is read-only after construction and safe for concurrent use.
type LinearModel struct {
	weights *mat.Dense    // classes × inputs
	bias    *mat.VecDense // classes
}

// linearFile is the JSON layout of an exported linear model.
// Weights are row-major, one row per class.
type linearFile struct {
	Classes int       `json:"classes"`
	Inputs  int       `json:"inputs"`
	Weights []float64 `json:"weights"`
	Bias    []float64 `json:"bias"`
}

// NewLinearModel builds a model from row-major weights and per-class biases.
func NewLinearModel(classes, inputs int, weights, bias []float64) (*LinearModel, error) {
	if classes <= 0 || inputs <= 0 {
		return nil, fmt.Errorf("invalid linear model size %dx%d", classes, inputs)
	}
	if len(weights) != classes*inputs {
		return nil, fmt.Errorf("weights: got %d values, want %d", len(weights), classes*inputs)
	}
	if len(bias) != classes {
		return nil, fmt.Errorf("bias: got %d values, want %d", len(bias), classes)
	}
	return &LinearModel{
		weights: mat.NewDense(classes, inputs, append([]float64(nil), weights...)),
		bias:    mat.NewVecDense(classes, append([]float64(nil), bias...)),
	}, nil
}

// LoadLinearModel reads a model exported as JSON.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read linear model: %w", err)
	}
	var f linearFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse linear model %s: %w", path, err)
	}
	return NewLinearModel(f.Classes, f.Inputs, f.Weights, f.Bias)
}

// Classes returns the number of output classes.
func (m *LinearModel) Classes() int {
	r, _ := m.weights.Dims()
	return r
}

// Predict returns the class scores for one input vector.
func (m *LinearModel) Predict(input []float32) ([]float32, error) {
	classes, inputs := m.weights.Dims()
	if len(input) != inputs {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), inputs)
	}

	x := make([]float64, inputs)
	for i, v := range input {
		x[i] = float64(v)
	}

	var scores mat.VecDense
	scores.MulVec(m.weights, mat.NewVecDense(inputs, x))
	scores.AddVec(&scores, m.bias)

	out := make([]float32, classes)
	for i := range out {
		out[i] = float32(scores.AtVec(i))
	}
	return out, nil
}
