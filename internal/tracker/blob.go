package tracker

import (
	"github.com/ironsheep/particle-tracker-mcp/internal/detection"
	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/rs/zerolog"
)

// DoGDetector finds Gaussian spots with a difference-of-Gaussians scale
// space.
type DoGDetector struct {
	log zerolog.Logger
}

// NewDoGDetector returns the difference-of-Gaussians detector.
func NewDoGDetector(log zerolog.Logger) *DoGDetector {
	return &DoGDetector{log: log.With().Str("detector", DifferenceOfGaussians.String()).Logger()}
}

// Detect implements Detector. cfg must be a DoGConfig. Features are ordered
// by descending scale-space response; the processed image is a copy of the
// input.
func (d *DoGDetector) Detect(frameIndex int, f *imaging.Frame, cfg Config) (*Result, error) {
	c, err := configFor[DoGConfig](DifferenceOfGaussians, cfg)
	if err != nil {
		return nil, err
	}
	if err := checkFrame(DifferenceOfGaussians, f); err != nil {
		return nil, err
	}

	opt := detection.DefaultDoGOptions()
	opt.MaxSigma = c.MaxSigma
	opt.Threshold = c.Threshold
	blobs := detection.DoG(f, opt)
	if len(blobs) > c.MaxFeatures {
		blobs = blobs[:c.MaxFeatures]
	}

	features := make([]Feature, 0, len(blobs))
	for _, b := range blobs {
		features = append(features, Feature{
			Frame:        frameIndex,
			X:            b.Col,
			Y:            b.Row,
			Radius:       b.Radius(),
			Area:         b.Area(),
			MaxIntensity: detection.DiskMax(f, b.Row, b.Col, b.Radius()),
			Geometry:     GeometryCircle,
		})
	}

	d.log.Debug().Int("frame", frameIndex).Int("features", len(features)).Msg("frame processed")

	return &Result{Features: features, Processed: f.Clone(), Columns: DifferenceOfGaussians.Columns()}, nil
}

// HoughDetector finds circles with a Hough transform over Canny edges.
type HoughDetector struct {
	log zerolog.Logger
}

// NewHoughDetector returns the Hough circle detector.
func NewHoughDetector(log zerolog.Logger) *HoughDetector {
	return &HoughDetector{log: log.With().Str("detector", HoughCircles.String()).Logger()}
}

// Detect implements Detector. cfg must be a HoughConfig. Features are ordered
// by descending vote; the processed image is the edge map.
func (d *HoughDetector) Detect(frameIndex int, f *imaging.Frame, cfg Config) (*Result, error) {
	c, err := configFor[HoughConfig](HoughCircles, cfg)
	if err != nil {
		return nil, err
	}
	if err := checkFrame(HoughCircles, f); err != nil {
		return nil, err
	}

	circles, edges := detection.HoughCircles(f, detection.HoughOptions{
		Canny: imaging.CannyOptions{
			Sigma: c.Sigma,
			Low:   c.LowThreshold,
			High:  c.HighThreshold,
		},
		MinRadius:  c.MinRadius,
		MaxRadius:  c.MaxRadius,
		Threshold:  c.Threshold,
		MaxCircles: c.MaxFeatures,
	})

	features := make([]Feature, 0, len(circles))
	for _, circle := range circles {
		features = append(features, Feature{
			Frame:    frameIndex,
			X:        float64(circle.Center.X),
			Y:        float64(circle.Center.Y),
			Radius:   float64(circle.Radius),
			Geometry: GeometryCircle,
		})
	}

	d.log.Debug().
		Int("frame", frameIndex).
		Int("edge_pixels", edges.Count()).
		Int("features", len(features)).
		Msg("frame processed")

	return &Result{
		Features:  features,
		Processed: edges.ToFrame(),
		Columns:   HoughCircles.Columns(),
	}, nil
}
