package tracker

import "github.com/pkg/errors"

// Kind identifies a detector variant.
type Kind string

const (
	ConnectedComponent    Kind = "connected-component"
	Ellipsoid             Kind = "ellipsoid"
	Janus                 Kind = "janus"
	DifferenceOfGaussians Kind = "difference-of-gaussians"
	HoughCircles          Kind = "hough-circles"
	YOLO                  Kind = "yolo"
)

// Kinds lists every detector variant in a stable order.
func Kinds() []Kind {
	return []Kind{ConnectedComponent, Ellipsoid, Janus, DifferenceOfGaussians, HoughCircles, YOLO}
}

// ErrUnknownKind is returned for names outside the closed set of kinds.
var ErrUnknownKind = errors.New("unknown detector kind")

// ParseKind validates a detector name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

func (k Kind) String() string { return string(k) }

// Description is a one-line summary of the detector.
func (k Kind) Description() string {
	switch k {
	case ConnectedComponent:
		return "Threshold, label connected regions and report their shape and intensity statistics"
	case Ellipsoid:
		return "Connected regions plus the brightness asymmetry across each region's minor axis"
	case Janus:
		return "Two-faced particles: position and polar angle from stepped thresholds, with touching pairs split"
	case DifferenceOfGaussians:
		return "Gaussian spots found in a difference-of-Gaussians scale space"
	case HoughCircles:
		return "Circles found by a Hough transform over Canny edges"
	case YOLO:
		return "Bounding boxes from a YOLO network in ONNX format (needs a build with -tags onnx)"
	}
	return ""
}

// Columns returns the ordered feature columns the detector fills.
func (k Kind) Columns() []Column {
	switch k {
	case ConnectedComponent:
		return []Column{ColFrame, ColX, ColY, ColXWeighted, ColYWeighted, ColOrientation,
			ColMinorAxisLength, ColMajorAxisLength, ColEccentricity, ColArea,
			ColEquivalentDiameter, ColFilledArea, ColMaxIntensity, ColMeanIntensity}
	case Ellipsoid:
		return []Column{ColFrame, ColX, ColY, ColXWeighted, ColYWeighted, ColOrientation,
			ColMinorAxisLength, ColMajorAxisLength, ColEccentricity, ColArea,
			ColEquivalentDiameter, ColFilledArea, ColMaxIntensity, ColMeanIntensity,
			ColDirectionMeasure}
	case Janus:
		return []Column{ColFrame, ColX, ColY, ColPhi, ColOrientation,
			ColMinorAxisLength, ColMajorAxisLength, ColArea, ColEccentricity,
			ColMaxIntensity, ColMeanIntensity, ColSummedIntensity, ColCrescentWidth, ColClosePair}
	case DifferenceOfGaussians:
		return []Column{ColFrame, ColX, ColY, ColRadius, ColArea, ColMaxIntensity}
	case HoughCircles:
		return []Column{ColFrame, ColX, ColY, ColRadius}
	case YOLO:
		return []Column{ColFrame, ColX, ColY, ColXMin, ColYMin, ColXMax, ColYMax,
			ColWidth, ColHeight, ColClassIdx}
	}
	return nil
}
