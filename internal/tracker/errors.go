package tracker

import "fmt"

// Stage names the part of a detection call that failed.
type Stage string

const (
	StageConfig      Stage = "config"
	StageInput       Stage = "input"
	StageLabel       Stage = "label"
	StageOrientation Stage = "orientation"
	StageBlob        Stage = "blob"
	StageHough       Stage = "hough"
	StageModel       Stage = "model"
)

// StageError reports which detector stage failed.
type StageError struct {
	Detector Kind
	Stage    Stage
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s detector: %s stage: %v", e.Detector, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageError(kind Kind, stage Stage, err error) error {
	return &StageError{Detector: kind, Stage: stage, Err: err}
}
