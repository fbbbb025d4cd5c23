//go:build !onnx

package tracker

func openNetwork(YOLOConfig) (Network, error) {
	return nil, ErrRuntimeUnavailable
}
