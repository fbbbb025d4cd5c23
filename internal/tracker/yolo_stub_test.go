//go:build !onnx

package tracker

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYOLODetector_WithoutRuntime(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	_, err := reg.Detect(YOLO, 0, blockFrame(), DefaultYOLOConfig())
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageModel, se.Stage)
	assert.True(t, errors.Is(err, ErrRuntimeUnavailable))
	assert.NoError(t, reg.Close())
}
