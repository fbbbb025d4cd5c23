package tracker

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Config is the typed option set of one detector kind. Implementations are
// plain value structs; a Config is never modified after construction.
type Config interface {
	Kind() Kind
}

// ComponentConfig configures the connected-component detector.
type ComponentConfig struct {
	// Threshold is the absolute intensity a pixel must exceed.
	Threshold   float64 `json:"threshold" validate:"gte=0"`
	MinArea     int     `json:"min_area" validate:"gte=0"`
	MaxArea     int     `json:"max_area" validate:"gtefield=MinArea"`
	MaxFeatures int     `json:"max_features" validate:"gte=0"`
	Invert      bool    `json:"invert"`
	// MaxEccentricity and MinSphericity are ignored when zero.
	MaxEccentricity float64 `json:"max_eccentricity" validate:"gte=0,lte=1"`
	MinSphericity   float64 `json:"min_sphericity" validate:"gte=0,lte=1"`
}

func (ComponentConfig) Kind() Kind { return ConnectedComponent }

// DefaultComponentConfig returns the connected-component defaults.
func DefaultComponentConfig() ComponentConfig {
	return ComponentConfig{Threshold: 100, MinArea: 10, MaxArea: 1000, MaxFeatures: 100}
}

// EllipsoidConfig configures the ellipsoid detector.
type EllipsoidConfig struct {
	Threshold   float64 `json:"threshold" validate:"gte=0"`
	MinArea     int     `json:"min_area" validate:"gte=0"`
	MaxArea     int     `json:"max_area" validate:"gtefield=MinArea"`
	MaxFeatures int     `json:"max_features" validate:"gte=0"`
	Invert      bool    `json:"invert"`
	// FlipX offsets the cosine weight of the direction measure.
	FlipX float64 `json:"flip_x" validate:"gte=-10,lte=10"`
}

func (EllipsoidConfig) Kind() Kind { return Ellipsoid }

// DefaultEllipsoidConfig returns the ellipsoid defaults.
func DefaultEllipsoidConfig() EllipsoidConfig {
	return EllipsoidConfig{Threshold: 100, MinArea: 10, MaxArea: 1000, MaxFeatures: 100}
}

// JanusConfig configures the Janus particle detector.
type JanusConfig struct {
	Threshold       float64 `json:"threshold" validate:"gte=0"`
	MinArea         int     `json:"min_area" validate:"gte=0"`
	MaxArea         int     `json:"max_area" validate:"gtefield=MinArea"`
	MaxFeatures     int     `json:"max_features" validate:"gte=0"`
	MaxEccentricity float64 `json:"max_eccentricity" validate:"gte=0,lte=1"`
	MinSphericity   float64 `json:"min_sphericity" validate:"gte=0,lte=1"`

	SeparateClosePairs  bool    `json:"separate_close_pairs"`
	MinAreaPair         int     `json:"min_area_pair" validate:"gte=0"`
	MaxAreaPair         int     `json:"max_area_pair" validate:"gtefield=MinAreaPair"`
	MinEccentricityPair float64 `json:"min_eccentricity_pair" validate:"gte=0,lte=1"`

	CrescentRatio   float64 `json:"crescent_ratio" validate:"gte=0,lte=1"`
	MinDistBoundary int     `json:"min_dist_boundary" validate:"gte=0"`
	Steps           int     `json:"steps" validate:"gte=2,lte=100"`
}

func (JanusConfig) Kind() Kind { return Janus }

// DefaultJanusConfig returns the Janus defaults.
func DefaultJanusConfig() JanusConfig {
	return JanusConfig{
		Threshold:           50,
		MinArea:             20,
		MaxArea:             500,
		MaxFeatures:         100,
		MaxEccentricity:     0.6,
		MinAreaPair:         500,
		MaxAreaPair:         2000,
		MinEccentricityPair: 0.7,
		CrescentRatio:       0.5,
		MinDistBoundary:     15,
		Steps:               5,
	}
}

// DoGConfig configures the difference-of-Gaussians detector.
type DoGConfig struct {
	// Threshold is the minimum response on the frame scaled to a maximum of 1.
	Threshold   float64 `json:"threshold" validate:"gte=0,lte=1"`
	MaxSigma    float64 `json:"max_sigma" validate:"gt=1,lte=256"`
	MaxFeatures int     `json:"max_features" validate:"gte=0"`
}

func (DoGConfig) Kind() Kind { return DifferenceOfGaussians }

// DefaultDoGConfig returns the difference-of-Gaussians defaults.
func DefaultDoGConfig() DoGConfig {
	return DoGConfig{Threshold: 0.1, MaxSigma: 10, MaxFeatures: 1000}
}

// HoughConfig configures the Hough circle detector.
type HoughConfig struct {
	Sigma         float64 `json:"sigma" validate:"gte=0"`
	LowThreshold  float64 `json:"low_threshold" validate:"gte=0,lte=1"`
	HighThreshold float64 `json:"high_threshold" validate:"gtefield=LowThreshold,lte=1"`
	MinRadius     int     `json:"min_radius" validate:"gte=1"`
	MaxRadius     int     `json:"max_radius" validate:"gtfield=MinRadius"`
	// Threshold is the minimum normalized vote; zero picks half the
	// strongest vote per radius.
	Threshold   float64 `json:"threshold" validate:"gte=0,lte=1"`
	MaxFeatures int     `json:"max_features" validate:"gte=0"`
}

func (HoughConfig) Kind() Kind { return HoughCircles }

// DefaultHoughConfig returns the Hough defaults.
func DefaultHoughConfig() HoughConfig {
	return HoughConfig{Sigma: 1, LowThreshold: 0.1, HighThreshold: 0.2, MinRadius: 5, MaxRadius: 30, MaxFeatures: 100}
}

// YOLOConfig configures the YOLO box detector. The network layout fields
// describe how the model was trained and must match it.
type YOLOConfig struct {
	// Model is the path of the ONNX model file.
	Model   string `json:"model"`
	// Library is the onnxruntime shared library; empty uses the platform
	// default search.
	Library string `json:"library,omitempty"`

	InputSize  int       `json:"input_size" validate:"gte=32,lte=4096"`
	GridSize   int       `json:"grid_size" validate:"gte=1,ltefield=InputSize"`
	Anchors    []float64 `json:"anchors" validate:"min=2,dive,gt=0"`
	Labels     []string  `json:"labels" validate:"min=1,dive,required"`
	InputName  string    `json:"input_name" validate:"required"`
	OutputName string    `json:"output_name" validate:"required"`

	ObjThreshold float64 `json:"obj_threshold" validate:"gte=0,lte=1"`
	NMSThreshold float64 `json:"nms_threshold" validate:"gte=0,lte=1"`
	MaxFeatures  int     `json:"max_features" validate:"gte=0"`
}

func (YOLOConfig) Kind() Kind { return YOLO }

// DefaultYOLOConfig returns a 416x416 YOLOv2 layout with a 13x13 grid, the
// five VOC anchors and a single "particle" class. Model is left empty.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		InputSize:    416,
		GridSize:     13,
		Anchors:      []float64{1.08, 1.19, 3.42, 4.41, 6.63, 11.38, 9.42, 5.11, 16.62, 10.52},
		Labels:       []string{"particle"},
		InputName:    "input_1",
		OutputName:   "output",
		ObjThreshold: 0.3,
		NMSThreshold: 0.3,
		MaxFeatures:  100,
	}
}

// DefaultConfig returns the default configuration for kind.
func DefaultConfig(kind Kind) (Config, error) {
	switch kind {
	case ConnectedComponent:
		return DefaultComponentConfig(), nil
	case Ellipsoid:
		return DefaultEllipsoidConfig(), nil
	case Janus:
		return DefaultJanusConfig(), nil
	case DifferenceOfGaussians:
		return DefaultDoGConfig(), nil
	case HoughCircles:
		return DefaultHoughConfig(), nil
	case YOLO:
		return DefaultYOLOConfig(), nil
	}
	return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
}

// DecodeConfig lays the JSON object raw over the defaults of kind and
// validates the result. Empty or null input yields the defaults. Unknown keys
// are rejected.
func DecodeConfig(kind Kind, raw json.RawMessage) (Config, error) {
	switch kind {
	case ConnectedComponent:
		return decodeInto(DefaultComponentConfig(), raw)
	case Ellipsoid:
		return decodeInto(DefaultEllipsoidConfig(), raw)
	case Janus:
		return decodeInto(DefaultJanusConfig(), raw)
	case DifferenceOfGaussians:
		return decodeInto(DefaultDoGConfig(), raw)
	case HoughCircles:
		return decodeInto(DefaultHoughConfig(), raw)
	case YOLO:
		return decodeInto(DefaultYOLOConfig(), raw)
	}
	return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
}

func decodeInto[T Config](cfg T, raw json.RawMessage) (Config, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, stageError(cfg.Kind(), StageConfig, errors.Wrap(err, "decode options"))
		}
	}
	if err := Validate(cfg); err != nil {
		return nil, stageError(cfg.Kind(), StageConfig, err)
	}
	return cfg, nil
}

// configFor extracts the concrete configuration a detector expects and
// validates it.
func configFor[T Config](kind Kind, cfg Config) (T, error) {
	c, ok := cfg.(T)
	if !ok {
		return c, stageError(kind, StageConfig, errors.Errorf("configuration is %T, want %T", cfg, c))
	}
	if err := Validate(c); err != nil {
		return c, stageError(kind, StageConfig, err)
	}
	return c, nil
}
