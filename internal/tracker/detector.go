package tracker

import (
	"io"
	"sync"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Detector finds particles in one frame.
//
// Implementations must not modify f and must return Features whose Frame
// equals frameIndex, in discovery order.
type Detector interface {
	Detect(frameIndex int, f *imaging.Frame, cfg Config) (*Result, error)
}

// Result is the output of one detection call.
type Result struct {
	Features []Feature
	// Processed is the intermediate image the detector worked on: the
	// threshold mask, the edge map, or a copy of the input for detectors
	// without an intermediate stage. It is never nil on success.
	Processed *imaging.Frame
	Columns   []Column
}

// Table returns the features as a column table.
func (r *Result) Table() Table { return NewTable(r.Columns, r.Features) }

// Info describes a registered detector.
type Info struct {
	Kind        Kind     `json:"kind"`
	Description string   `json:"description"`
	Columns     []Column `json:"columns"`
	Defaults    Config   `json:"defaults"`
}

// Registry maps detector kinds to implementations.
type Registry struct {
	mu        sync.RWMutex
	detectors map[Kind]Detector
}

// NewRegistry returns a registry holding every built-in detector.
func NewRegistry(log zerolog.Logger) *Registry {
	r := &Registry{detectors: make(map[Kind]Detector)}
	r.Register(ConnectedComponent, NewComponentDetector(log))
	r.Register(Ellipsoid, NewEllipsoidDetector(log))
	r.Register(Janus, NewJanusDetector(log))
	r.Register(DifferenceOfGaussians, NewDoGDetector(log))
	r.Register(HoughCircles, NewHoughDetector(log))
	r.Register(YOLO, NewYOLODetector(log))
	return r
}

// Register installs d for kind, replacing any previous detector.
func (r *Registry) Register(kind Kind, d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors[kind] = d
}

// Get returns the detector for kind.
func (r *Registry) Get(kind Kind) (Detector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
	return d, nil
}

// Kinds returns the registered kinds in the order of Kinds().
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.detectors))
	for _, k := range Kinds() {
		if _, ok := r.detectors[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Describe lists the registered detectors with their columns and defaults.
func (r *Registry) Describe() []Info {
	kinds := r.Kinds()
	infos := make([]Info, 0, len(kinds))
	for _, k := range kinds {
		def, _ := DefaultConfig(k)
		infos = append(infos, Info{Kind: k, Description: k.Description(), Columns: k.Columns(), Defaults: def})
	}
	return infos
}

// Detect looks up kind and runs it.
func (r *Registry) Detect(kind Kind, frameIndex int, f *imaging.Frame, cfg Config) (*Result, error) {
	d, err := r.Get(kind)
	if err != nil {
		return nil, err
	}
	return d.Detect(frameIndex, f, cfg)
}

// Close releases resources held by detectors that own any, such as loaded
// models.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var first error
	for _, k := range Kinds() {
		c, ok := r.detectors[k].(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func checkFrame(kind Kind, f *imaging.Frame) error {
	if err := f.Validate(); err != nil {
		return stageError(kind, StageInput, err)
	}
	return nil
}
