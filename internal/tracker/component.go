package tracker

import (
	"math"

	"github.com/ironsheep/particle-tracker-mcp/internal/detection"
	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/rs/zerolog"
)

// ComponentDetector reports every thresholded region that passes the area
// and optional shape bounds.
type ComponentDetector struct {
	log zerolog.Logger
}

// NewComponentDetector returns the connected-component detector.
func NewComponentDetector(log zerolog.Logger) *ComponentDetector {
	return &ComponentDetector{log: log.With().Str("detector", ConnectedComponent.String()).Logger()}
}

// Detect implements Detector. cfg must be a ComponentConfig.
func (d *ComponentDetector) Detect(frameIndex int, f *imaging.Frame, cfg Config) (*Result, error) {
	c, err := configFor[ComponentConfig](ConnectedComponent, cfg)
	if err != nil {
		return nil, err
	}
	if err := checkFrame(ConnectedComponent, f); err != nil {
		return nil, err
	}

	mask := detection.Binarize(f, c.Threshold, c.Invert)
	regions := detection.Components(mask, f)
	gate := detection.Gate{
		MinArea:         c.MinArea,
		MaxArea:         c.MaxArea,
		MaxEccentricity: c.MaxEccentricity,
		MinSphericity:   c.MinSphericity,
	}
	accepted := detection.Filter(regions, gate, c.MaxFeatures)

	features := make([]Feature, 0, len(accepted))
	for i := range accepted {
		features = append(features, regionFeature(frameIndex, &accepted[i]))
	}

	d.log.Debug().
		Int("frame", frameIndex).
		Int("regions", len(regions)).
		Int("features", len(features)).
		Msg("frame processed")

	return &Result{
		Features:  features,
		Processed: mask.ToFrame(),
		Columns:   ConnectedComponent.Columns(),
	}, nil
}

// regionFeature copies the region statistics into a feature.
func regionFeature(frameIndex int, r *detection.Region) Feature {
	return Feature{
		Frame:              frameIndex,
		X:                  r.Centroid.Col,
		Y:                  r.Centroid.Row,
		XWeighted:          r.WeightedCentroid.Col,
		YWeighted:          r.WeightedCentroid.Row,
		Orientation:        r.Orientation,
		MinorAxisLength:    r.MinorAxisLength,
		MajorAxisLength:    r.MajorAxisLength,
		Area:               float64(r.Area),
		Eccentricity:       r.Eccentricity,
		EquivalentDiameter: r.EquivalentDiameter,
		FilledArea:         float64(r.FilledArea),
		MaxIntensity:       r.MaxIntensity,
		MeanIntensity:      r.MeanIntensity,
		SummedIntensity:    r.SummedIntensity,
		Geometry:           GeometryEllipse,
	}
}

// EllipsoidDetector is the connected-component detector extended with a
// direction measure for ellipsoidal particles that are brighter on one side.
type EllipsoidDetector struct {
	log zerolog.Logger
}

// NewEllipsoidDetector returns the ellipsoid detector.
func NewEllipsoidDetector(log zerolog.Logger) *EllipsoidDetector {
	return &EllipsoidDetector{log: log.With().Str("detector", Ellipsoid.String()).Logger()}
}

// Detect implements Detector. cfg must be an EllipsoidConfig.
func (d *EllipsoidDetector) Detect(frameIndex int, f *imaging.Frame, cfg Config) (*Result, error) {
	c, err := configFor[EllipsoidConfig](Ellipsoid, cfg)
	if err != nil {
		return nil, err
	}
	if err := checkFrame(Ellipsoid, f); err != nil {
		return nil, err
	}

	mask := detection.Binarize(f, c.Threshold, c.Invert)
	regions := detection.Components(mask, f)
	accepted := detection.Filter(regions, detection.Gate{MinArea: c.MinArea, MaxArea: c.MaxArea}, c.MaxFeatures)

	features := make([]Feature, 0, len(accepted))
	for i := range accepted {
		feat := regionFeature(frameIndex, &accepted[i])
		feat.DirectionMeasure = DirectionMeasure(&accepted[i], f, c.FlipX)
		feat.Geometry = GeometryDirectedEllipse
		features = append(features, feat)
	}

	d.log.Debug().
		Int("frame", frameIndex).
		Int("regions", len(regions)).
		Int("features", len(features)).
		Msg("frame processed")

	return &Result{
		Features:  features,
		Processed: mask.ToFrame(),
		Columns:   Ellipsoid.Columns(),
	}, nil
}

// DirectionMeasure is the signed brightness asymmetry of r across its minor
// axis. Each region pixel is weighted by cos(u/(L/4)) + flipX, where u is its
// offset along the major axis and L the major axis length, and the weight is
// negated on the negative side of the minor axis. The result is the mean of
// weight times intensity over the bounding box, so a positive value means the
// particle is brighter towards +(cos θ, -sin θ) in (x, y).
func DirectionMeasure(r *detection.Region, f *imaging.Frame, flipX float64) float64 {
	if r.MajorAxisLength == 0 {
		return 0
	}
	b := r.BBox
	cx := r.Centroid.Col
	cy := r.Centroid.Row
	scale := r.MajorAxisLength / 4
	sin, cos := math.Sincos(r.Orientation + math.Pi/2)

	var sum float64
	for _, p := range r.Pixels {
		x := float64(p.X) - cx
		y := float64(p.Y) - cy
		along := x*cos - y*sin
		across := x*sin + y*cos
		w := math.Cos(along/scale) + flipX
		if across < 0 {
			w = -w
		}
		sum += w * f.At(p.X, p.Y)
	}
	return sum / float64(b.Dx()*b.Dy())
}
