package classifier

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime loads the ONNX Runtime shared library once per process.
// An empty libPath keeps the library's default search path.
func initRuntime(libPath string) error {
	ortOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ONNXModel runs an exported character CNN through ONNX Runtime.
// Calls to Predict are not synchronized; Open wraps it in Serialize.
type ONNXModel struct {
	session *ort.DynamicAdvancedSession
	options *ort.SessionOptions
	shape   ort.Shape
}

// NewONNXModel loads modelPath, using the first input and output of the graph.
func NewONNXModel(modelPath, libPath string, in InputShape) (*ONNXModel, error) {
	if err := initRuntime(libPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info from %s: %w", modelPath, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has no inputs or outputs", modelPath)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	_ = options.SetIntraOpNumThreads(1)
	_ = options.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ONNXModel{
		session: session,
		options: options,
		shape:   ort.NewShape(1, int64(in.Channels), int64(in.Height), int64(in.Width)),
	}, nil
}

// Predict runs one forward pass over a 1×C×H×W tensor.
func (m *ONNXModel) Predict(input []float32) ([]float32, error) {
	tensor, err := ort.NewTensor(m.shape, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer tensor.Destroy()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{tensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("model produced no output")
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unsupported output type %T", outputs[0])
	}
	return append([]float32(nil), out.GetData()...), nil
}

// Close destroys the session and its options.
func (m *ONNXModel) Close() error {
	var err error
	if m.session != nil {
		err = m.session.Destroy()
		m.session = nil
	}
	if m.options != nil {
		if oerr := m.options.Destroy(); err == nil {
			err = oerr
		}
		m.options = nil
	}
	return err
}
