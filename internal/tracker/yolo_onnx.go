//go:build onnx

package tracker

import (
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var ortRuntime struct {
	once sync.Once
	err  error
}

func initRuntime(library string) error {
	ortRuntime.once.Do(func() {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		ortRuntime.err = ort.InitializeEnvironment()
	})
	return ortRuntime.err
}

// onnxNetwork owns one session with fixed input and output tensors. Run
// reuses the tensors, so calls are serialized.
type onnxNetwork struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func openNetwork(c YOLOConfig) (Network, error) {
	if c.Model == "" {
		return nil, errors.New("no model file configured")
	}
	if err := initRuntime(c.Library); err != nil {
		return nil, errors.Wrap(err, "initialize onnxruntime")
	}

	size := int64(c.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, size, size, 3))
	if err != nil {
		return nil, errors.Wrap(err, "create input tensor")
	}
	grid := c.grid()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(grid.Rows), int64(grid.Cols),
		int64(grid.Boxes()), int64(5+grid.Classes)))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "create output tensor")
	}

	session, err := ort.NewAdvancedSession(c.Model,
		[]string{c.InputName}, []string{c.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrapf(err, "open model %s", c.Model)
	}
	return &onnxNetwork{session: session, input: input, output: output}, nil
}

func (n *onnxNetwork) Infer(in []float32) ([]float32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	dst := n.input.GetData()
	if len(in) != len(dst) {
		return nil, errors.Errorf("input has %d values, model expects %d", len(in), len(dst))
	}
	copy(dst, in)
	if err := n.session.Run(); err != nil {
		return nil, err
	}
	return append([]float32(nil), n.output.GetData()...), nil
}

func (n *onnxNetwork) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	err := n.session.Destroy()
	n.input.Destroy()
	n.output.Destroy()
	return err
}
