package detection

import (
	"math"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ErrZeroIntensity is returned when a patch has no intensity left to weigh.
var ErrZeroIntensity = errors.New("patch has zero total intensity")

// DefaultSteps is the number of threshold levels used by Estimator.
const DefaultSteps = 5

// ThresholdMode selects how ThresholdPatch treats pixels.
type ThresholdMode int

const (
	// Normal zeroes pixels below the level and keeps the rest.
	Normal ThresholdMode = iota
	// Both zeroes pixels below the level and sets the rest to 1.
	Both
)

// ThresholdPatch returns a thresholded copy of patch.
func ThresholdPatch(patch *imaging.Frame, level float64, mode ThresholdMode) *imaging.Frame {
	out := patch.Clone()
	for i, v := range out.Pix {
		switch {
		case v < level:
			out.Pix[i] = 0
		case mode == Both:
			out.Pix[i] = 1
		}
	}
	return out
}

// CenterOfMass returns the intensity-weighted mean column (x) and row (y).
func CenterOfMass(f *imaging.Frame) (x, y float64, err error) {
	var sx, sy, norm float64
	for row := 0; row < f.Height; row++ {
		for col := 0; col < f.Width; col++ {
			v := f.Pix[row*f.Width+col]
			sx += v * float64(col)
			sy += v * float64(row)
			norm += v
		}
	}
	if norm == 0 {
		return 0, 0, ErrZeroIntensity
	}
	return sx / norm, sy / norm, nil
}

// Estimator finds the polar orientation of an asymmetric particle from the
// drift of its centre of mass as the threshold rises towards the peak.
type Estimator struct {
	// Threshold is the background level separating particle from frame.
	Threshold float64
	// Steps is the number of threshold levels, including the base level.
	Steps int
}

// Estimate returns the particle position (x, y) in patch coordinates and its
// polar angle phi in (-π, π], measured with atan2(dy, dx) in image
// coordinates (x right, y down).
//
// The position is the centre of the patch binarized at Threshold. The angle
// is the mean direction from that centre to the intensity-weighted centres at
// Steps-1 evenly spaced levels between Threshold and the patch maximum.
// The patch is never modified.
func (e Estimator) Estimate(patch *imaging.Frame) (x, y, phi float64, err error) {
	steps := e.Steps
	if steps < 2 {
		steps = DefaultSteps
	}

	x, y, err = CenterOfMass(ThresholdPatch(patch, e.Threshold, Both))
	if err != nil {
		return 0, 0, 0, err
	}

	levels := floats.Span(make([]float64, steps+1), e.Threshold, patch.Max())[1:steps]
	angles := make([]float64, 0, len(levels))
	for _, level := range levels {
		cx, cy, err := CenterOfMass(ThresholdPatch(patch, level, Normal))
		if err != nil {
			return 0, 0, 0, errors.Wrapf(err, "threshold level %.4g", level)
		}
		angles = append(angles, math.Atan2(cy-y, cx-x))
	}

	return x, y, meanAngle(UnwrapAngles(angles)), nil
}

// UnwrapAngles returns a copy of angles with values on the far side of ±π
// shifted by 2π so they can be averaged. The first angle beyond ±3π/4 fixes
// which side is kept; later angles of the opposite sign are moved to it. This
// assumes the spread of the angles is small.
func UnwrapAngles(angles []float64) []float64 {
	out := append([]float64(nil), angles...)
	const trigger = 3 * math.Pi / 4
	side := 0
	for i, a := range out {
		if side == 0 {
			switch {
			case a > trigger:
				side = 1
			case a < -trigger:
				side = -1
			}
		}
		switch {
		case side == 1 && a <= 0:
			out[i] += 2 * math.Pi
		case side == -1 && a >= 0:
			out[i] -= 2 * math.Pi
		}
	}
	return out
}

// meanAngle averages unwrapped angles and folds the result into (-π, π].
func meanAngle(angles []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	phi := floats.Sum(angles) / float64(len(angles))
	for phi > math.Pi {
		phi -= 2 * math.Pi
	}
	for phi <= -math.Pi {
		phi += 2 * math.Pi
	}
	return phi
}
