package tracker

import (
	"github.com/ironsheep/particle-tracker-mcp/internal/detection"
	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// JanusDetector tracks two-faced particles. Besides the region shape it
// reports the polar angle phi of the bright face and how far that face wraps
// around the particle. Regions that look like two touching particles are
// split across their major axis and each half is tracked on its own.
type JanusDetector struct {
	log zerolog.Logger
}

// NewJanusDetector returns the Janus detector.
func NewJanusDetector(log zerolog.Logger) *JanusDetector {
	return &JanusDetector{log: log.With().Str("detector", Janus.String()).Logger()}
}

// Detect implements Detector. cfg must be a JanusConfig.
func (d *JanusDetector) Detect(frameIndex int, f *imaging.Frame, cfg Config) (*Result, error) {
	c, err := configFor[JanusConfig](Janus, cfg)
	if err != nil {
		return nil, err
	}
	if err := checkFrame(Janus, f); err != nil {
		return nil, err
	}

	mask := detection.Binarize(f, c.Threshold, false)
	regions := detection.Components(mask, f)

	single := detection.Gate{
		MinArea:         c.MinArea,
		MaxArea:         c.MaxArea,
		MaxEccentricity: c.MaxEccentricity,
		MinSphericity:   c.MinSphericity,
	}
	pair := detection.PairGate{
		Enabled:         c.SeparateClosePairs,
		MinArea:         c.MinAreaPair,
		MaxArea:         c.MaxAreaPair,
		MinEccentricity: c.MinEccentricityPair,
	}
	guard := detection.BoundaryGuard{Margin: c.MinDistBoundary, Width: f.Width, Height: f.Height}
	est := detection.Estimator{Threshold: c.Threshold, Steps: c.Steps}

	features := make([]Feature, 0)
	pairs := 0
	for i := range regions {
		if len(features) >= c.MaxFeatures {
			break
		}
		r := &regions[i]

		switch detection.Classify(r, single, pair, guard) {
		case detection.Single:
			patch := f.Crop(r.BBox)
			feat, err := d.track(frameIndex, est, patch, r)
			if err != nil {
				if !errors.Is(err, detection.ErrZeroIntensity) {
					return nil, stageError(Janus, StageOrientation, err)
				}
				d.log.Warn().Err(err).Int("frame", frameIndex).Int("label", r.Label).Msg("skipping region")
				continue
			}
			feat.MaxIntensity = r.MaxIntensity
			feat.MeanIntensity = r.MeanIntensity
			feat.SummedIntensity = float64(r.Area) * r.MeanIntensity
			feat.CrescentWidth = detection.CrescentWidth(patch, c.CrescentRatio)
			features = append(features, feat)

		case detection.Pair:
			pairs++
			patch := f.Crop(r.BBox)
			pivotX := r.Centroid.Col - float64(r.BBox.Min.X)
			pivotY := r.Centroid.Row - float64(r.BBox.Min.Y)
			a, b := detection.Separate(patch, pivotX, pivotY, r.Orientation)
			for _, half := range []*imaging.Frame{a, b} {
				if len(features) >= c.MaxFeatures {
					break
				}
				feat, err := d.track(frameIndex, est, half, r)
				if err != nil {
					if !errors.Is(err, detection.ErrZeroIntensity) {
						return nil, stageError(Janus, StageOrientation, err)
					}
					d.log.Warn().Err(err).Int("frame", frameIndex).Int("label", r.Label).Msg("skipping empty pair half")
					continue
				}
				area, sum := halfIntensity(half, r)
				feat.ClosePair = true
				feat.Area = float64(area)
				feat.MaxIntensity = half.Max()
				feat.SummedIntensity = sum
				if area > 0 {
					feat.MeanIntensity = sum / float64(area)
				}
				feat.CrescentWidth = detection.CrescentWidth(half, c.CrescentRatio)
				features = append(features, feat)
			}
		}
	}

	d.log.Debug().
		Int("frame", frameIndex).
		Int("regions", len(regions)).
		Int("pairs", pairs).
		Int("features", len(features)).
		Msg("frame processed")

	return &Result{
		Features:  features,
		Processed: mask.ToFrame(),
		Columns:   Janus.Columns(),
	}, nil
}

// track estimates position and polar angle on patch, a crop of f at r.BBox,
// and fills the shape fields from r.
func (d *JanusDetector) track(frameIndex int, est detection.Estimator, patch *imaging.Frame, r *detection.Region) (Feature, error) {
	x, y, phi, err := est.Estimate(patch)
	if err != nil {
		return Feature{}, err
	}
	return Feature{
		Frame:           frameIndex,
		X:               x + float64(r.BBox.Min.X),
		Y:               y + float64(r.BBox.Min.Y),
		Phi:             phi,
		Orientation:     r.Orientation,
		MinorAxisLength: r.MinorAxisLength,
		MajorAxisLength: r.MajorAxisLength,
		Area:            float64(r.Area),
		Eccentricity:    r.Eccentricity,
		Geometry:        GeometryOrientation,
	}, nil
}

// halfIntensity counts and sums the pixels of r that fall in half, one side
// of a pair split cropped at r.BBox. Region pixels lie above a non-negative
// threshold, so the zeroed side never contributes.
func halfIntensity(half *imaging.Frame, r *detection.Region) (area int, sum float64) {
	for _, p := range r.Pixels {
		v := half.At(p.X-r.BBox.Min.X, p.Y-r.BBox.Min.Y)
		if v != 0 {
			area++
			sum += v
		}
	}
	return area, sum
}
