// Package tracker dispatches frames to the particle detectors.
//
// Every detector implements the single-method Detector interface and is
// selected by a Kind from a Registry populated at startup. Each kind has its
// own typed configuration struct; DecodeConfig builds one from a JSON option
// bag laid over the kind's defaults and validates it.
//
// A detection call returns a Result: the ordered Feature table, the columns
// that detector fills, and the processed image (threshold mask, edge map or
// a copy of the input). Detectors never modify the input frame and keep no
// per-frame state; the YOLO detector holds its loaded networks until
// Registry.Close.
//
// The YOLO detector runs an ONNX model through onnxruntime and is only
// functional in builds tagged onnx; other builds report
// ErrRuntimeUnavailable at the model stage.
//
// Failures are reported as *StageError values naming the detector and the
// stage that failed.
package tracker
