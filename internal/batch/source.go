package batch

import (
	"fmt"
	"path/filepath"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/pkg/errors"
)

// Source is an indexed sequence of frames.
type Source interface {
	Len() int
	// Name identifies frame i in logs and reports.
	Name(i int) string
	Frame(i int) (*imaging.Frame, error)
}

// Files reads one frame per image file. Frames are decoded through Cache when
// it is set.
type Files struct {
	Paths []string
	Cache *imaging.FrameCache
}

func (s Files) Len() int { return len(s.Paths) }

func (s Files) Name(i int) string { return filepath.Base(s.Paths[i]) }

func (s Files) Frame(i int) (*imaging.Frame, error) {
	if i < 0 || i >= len(s.Paths) {
		return nil, errors.Errorf("frame %d out of range [0, %d)", i, len(s.Paths))
	}
	if s.Cache != nil {
		return s.Cache.Load(s.Paths[i])
	}
	img, err := imaging.DecodeFile(s.Paths[i])
	if err != nil {
		return nil, err
	}
	return imaging.FromImage(img), nil
}

// Frames is an in-memory frame sequence.
type Frames []*imaging.Frame

func (s Frames) Len() int { return len(s) }

func (s Frames) Name(i int) string { return fmt.Sprintf("frame-%d", i) }

func (s Frames) Frame(i int) (*imaging.Frame, error) {
	if i < 0 || i >= len(s) {
		return nil, errors.Errorf("frame %d out of range [0, %d)", i, len(s))
	}
	return s[i], nil
}
