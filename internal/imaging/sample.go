package imaging

import (
	"image"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample is the intensity at one pixel.
type Sample struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Value float64 `json:"value"`
	// Relative is Value divided by the frame maximum, 0 when the maximum is
	// not positive.
	Relative float64 `json:"relative"`
}

// SamplePoints reads the intensity at each point. Any point outside the frame
// is an error.
func SamplePoints(f *Frame, points []image.Point) ([]Sample, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	peak := f.Max()
	out := make([]Sample, len(points))
	for i, p := range points {
		if !p.In(f.Bounds()) {
			return nil, errors.Errorf("point (%d,%d) outside the %dx%d frame", p.X, p.Y, f.Width, f.Height)
		}
		v := f.At(p.X, p.Y)
		out[i] = Sample{X: p.X, Y: p.Y, Value: v}
		if peak > 0 {
			out[i].Relative = v / peak
		}
	}
	return out, nil
}

// RegionStats summarizes the intensities inside a rectangle. The quantiles
// help pick a detection threshold.
type RegionStats struct {
	Region image.Rectangle `json:"region"`
	Pixels int             `json:"pixels"`
	Min    float64         `json:"min"`
	Max    float64         `json:"max"`
	Mean   float64         `json:"mean"`
	StdDev float64         `json:"std_dev"`
	Median float64         `json:"median"`
	P99    float64         `json:"p99"`
	// Histogram counts pixels in equal-width bins over [Min, Max].
	Histogram []float64 `json:"histogram,omitempty"`
}

// Stats computes RegionStats over r clipped to the frame, with bins histogram
// bins when bins > 0.
func Stats(f *Frame, r image.Rectangle, bins int) (*RegionStats, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	clipped := r.Intersect(f.Bounds())
	if clipped.Empty() {
		return nil, errors.Errorf("region %v outside the %dx%d frame", r, f.Width, f.Height)
	}

	values := f.Crop(clipped).Pix
	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	s := &RegionStats{
		Region: clipped,
		Pixels: len(values),
		Min:    values[0],
		Max:    values[len(values)-1],
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, values, nil),
	}
	if bins > 0 {
		s.Histogram = histogram(values, bins)
	}
	return s, nil
}

// histogram bins sorted values into n equal-width bins over their range.
// The top edge is inclusive.
func histogram(sorted []float64, n int) []float64 {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		h := make([]float64, n)
		h[0] = float64(len(sorted))
		return h
	}
	dividers := floats.Span(make([]float64, n+1), lo, hi)
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	return stat.Histogram(nil, dividers, sorted, nil)
}
