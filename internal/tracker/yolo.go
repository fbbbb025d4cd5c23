package tracker

import (
	"fmt"
	"math"
	"sync"

	"github.com/ironsheep/particle-tracker-mcp/internal/detection"
	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrRuntimeUnavailable is returned when the binary was built without an
// inference runtime.
var ErrRuntimeUnavailable = errors.New("ONNX runtime not available; rebuild with -tags onnx")

// Network runs a loaded model on one input tensor.
type Network interface {
	// Infer takes InputSize*InputSize*3 values laid out height, width,
	// channel and returns the raw grid output.
	Infer(input []float32) ([]float32, error)
	Close() error
}

// YOLODetector finds particles as boxes predicted by a YOLOv2-style network.
// Networks are opened on first use and kept until Close.
type YOLODetector struct {
	log  zerolog.Logger
	open func(YOLOConfig) (Network, error)

	mu   sync.Mutex
	nets map[string]Network
}

// NewYOLODetector returns the YOLO detector backed by onnxruntime.
func NewYOLODetector(log zerolog.Logger) *YOLODetector {
	return newYOLODetector(log, openNetwork)
}

func newYOLODetector(log zerolog.Logger, open func(YOLOConfig) (Network, error)) *YOLODetector {
	return &YOLODetector{
		log:  log.With().Str("detector", YOLO.String()).Logger(),
		open: open,
		nets: make(map[string]Network),
	}
}

// Detect implements Detector. cfg must be a YOLOConfig. Features are ordered
// by grid cell; the processed image is a copy of the input.
func (d *YOLODetector) Detect(frameIndex int, f *imaging.Frame, cfg Config) (*Result, error) {
	c, err := configFor[YOLOConfig](YOLO, cfg)
	if err != nil {
		return nil, err
	}
	if err := checkFrame(YOLO, f); err != nil {
		return nil, err
	}
	grid := c.grid()
	if err := grid.Validate(); err != nil {
		return nil, stageError(YOLO, StageConfig, err)
	}

	net, err := d.network(c)
	if err != nil {
		return nil, stageError(YOLO, StageModel, err)
	}
	out, err := net.Infer(yoloInput(f, c.InputSize))
	if err != nil {
		return nil, stageError(YOLO, StageModel, errors.Wrap(err, "inference"))
	}
	boxes, err := detection.DecodeYOLO(out, grid, c.ObjThreshold, c.NMSThreshold)
	if err != nil {
		return nil, stageError(YOLO, StageModel, err)
	}
	if len(boxes) > c.MaxFeatures {
		boxes = boxes[:c.MaxFeatures]
	}

	w, h := float64(f.Width), float64(f.Height)
	features := make([]Feature, 0, len(boxes))
	for _, b := range boxes {
		xmin, xmax := clampUnit(b.XMin)*w, clampUnit(b.XMax)*w
		ymin, ymax := clampUnit(b.YMin)*h, clampUnit(b.YMax)*h
		features = append(features, Feature{
			Frame:    frameIndex,
			X:        (xmin + xmax) / 2,
			Y:        (ymin + ymax) / 2,
			XMin:     xmin,
			YMin:     ymin,
			XMax:     xmax,
			YMax:     ymax,
			Width:    xmax - xmin,
			Height:   ymax - ymin,
			ClassIdx: b.Class,
			Geometry: GeometryBox,
		})
	}

	d.log.Debug().Int("frame", frameIndex).Int("features", len(features)).Msg("frame processed")

	return &Result{Features: features, Processed: f.Clone(), Columns: YOLO.Columns()}, nil
}

// Close releases every opened network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for key, net := range d.nets {
		if err := net.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close model %s", key)
		}
		delete(d.nets, key)
	}
	return first
}

func (d *YOLODetector) network(c YOLOConfig) (Network, error) {
	key := fmt.Sprintf("%s|%s|%s|%d|%d|%d|%d",
		c.Model, c.InputName, c.OutputName, c.InputSize, c.GridSize, len(c.Anchors)/2, len(c.Labels))

	d.mu.Lock()
	defer d.mu.Unlock()
	if net, ok := d.nets[key]; ok {
		return net, nil
	}
	net, err := d.open(c)
	if err != nil {
		return nil, err
	}
	d.log.Info().Str("model", c.Model).Int("input_size", c.InputSize).Int("grid", c.GridSize).Msg("model loaded")
	d.nets[key] = net
	return net, nil
}

func (c YOLOConfig) grid() detection.YOLOGrid {
	return detection.YOLOGrid{Rows: c.GridSize, Cols: c.GridSize, Anchors: c.Anchors, Classes: len(c.Labels)}
}

// yoloInput resizes f to size x size, scales it by its maximum into [0, 1]
// and repeats the grey value over three channels.
func yoloInput(f *imaging.Frame, size int) []float32 {
	r := imaging.Resize(f, size, size)
	scale := 0.0
	if m := f.Max(); m > 0 {
		scale = 1 / m
	}
	out := make([]float32, 0, len(r.Pix)*3)
	for _, v := range r.Pix {
		s := float32(v * scale)
		out = append(out, s, s, s)
	}
	return out
}

func clampUnit(v float64) float64 { return math.Min(math.Max(v, 0), 1) }
