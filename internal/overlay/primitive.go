package overlay

import (
	"math"

	"github.com/ironsheep/particle-tracker-mcp/internal/tracker"
	"gonum.org/v1/gonum/floats"
)

// OutlineSamples is the number of points on an ellipse or circle outline.
const OutlineSamples = 25

// DefaultOrientationLength is the length of a Janus orientation marker.
const DefaultOrientationLength = 10

// Kind is the shape of a primitive.
type Kind string

const (
	KindPolyline  Kind = "polyline"
	KindCircle    Kind = "circle"
	KindEllipse   Kind = "ellipse"
	KindSegment   Kind = "segment"
	KindRectangle Kind = "rectangle"
)

// Role tells what a primitive depicts.
type Role string

const (
	RoleOutline     Role = "outline"
	RoleMajorAxis   Role = "major_axis"
	RoleMinorAxis   Role = "minor_axis"
	RoleOrientation Role = "orientation"
	RoleDirection   Role = "direction"
)

// Point is a position in frame coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Primitive is one drawable shape derived from a feature.
type Primitive struct {
	Kind Kind `json:"kind"`
	Role Role `json:"role"`
	// Feature is the index of the source feature in the Build input.
	Feature int `json:"feature"`

	Points  []Point `json:"points"`
	Connect []bool  `json:"connect,omitempty"`

	Center    Point   `json:"center"`
	Radius    float64 `json:"radius,omitempty"`
	SemiMajor float64 `json:"semi_major,omitempty"`
	SemiMinor float64 `json:"semi_minor,omitempty"`
	Rotation  float64 `json:"rotation,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
}

// Options configures Build.
type Options struct {
	// OrientationLength is the marker length for orientation-only features;
	// zero means DefaultOrientationLength.
	OrientationLength float64 `json:"orientation_length" validate:"gte=0"`
}

// Build derives the overlay primitives of features. Features without a
// drawable geometry contribute nothing. The result is never nil.
func Build(features []tracker.Feature, opt Options) []Primitive {
	length := opt.OrientationLength
	if length == 0 {
		length = DefaultOrientationLength
	}

	prims := make([]Primitive, 0, 3*len(features))
	for i := range features {
		f := &features[i]
		switch f.Geometry {
		case tracker.GeometryEllipse:
			prims = append(prims, ellipse(i, f)...)
		case tracker.GeometryDirectedEllipse:
			prims = append(prims, ellipse(i, f)...)
			prims = append(prims, direction(i, f))
		case tracker.GeometryCircle:
			prims = append(prims, circle(i, f))
		case tracker.GeometryOrientation:
			prims = append(prims, orientation(i, f, length))
		case tracker.GeometryBox:
			prims = append(prims, rectangle(i, f))
		}
	}
	return prims
}

func samples() []float64 {
	return floats.Span(make([]float64, OutlineSamples), 0, 2*math.Pi)
}

func connectFlags(n int) []bool {
	c := make([]bool, n)
	for i := 0; i < n-1; i++ {
		c[i] = true
	}
	return c
}

// ellipse returns the outline and both axes. The major axis runs along
// (sin θ, cos θ) and the minor axis along (cos θ, -sin θ).
func ellipse(idx int, f *tracker.Feature) []Primitive {
	x0, y0 := f.X, f.Y
	a, b := 0.5*f.MajorAxisLength, 0.5*f.MinorAxisLength
	sin, cos := math.Sincos(f.Orientation)

	ts := samples()
	pts := make([]Point, len(ts))
	for i, t := range ts {
		st, ct := math.Sincos(t)
		pts[i] = Point{
			X: x0 + a*ct*sin + b*st*cos,
			Y: y0 + a*ct*cos - b*st*sin,
		}
	}
	center := Point{X: x0, Y: y0}

	return []Primitive{
		{
			Kind:      KindEllipse,
			Role:      RoleOutline,
			Feature:   idx,
			Points:    pts,
			Connect:   connectFlags(len(pts)),
			Center:    center,
			SemiMajor: a,
			SemiMinor: b,
			Rotation:  f.Orientation,
		},
		{
			Kind:    KindSegment,
			Role:    RoleMajorAxis,
			Feature: idx,
			Points:  []Point{center, {X: x0 + a*sin, Y: y0 + a*cos}},
			Center:  center,
		},
		{
			Kind:    KindSegment,
			Role:    RoleMinorAxis,
			Feature: idx,
			Points:  []Point{center, {X: x0 + b*cos, Y: y0 - b*sin}},
			Center:  center,
		},
	}
}

// direction marks the bright end of the minor axis.
func direction(idx int, f *tracker.Feature) Primitive {
	b := 0.5 * f.MinorAxisLength
	if f.DirectionMeasure < 0 {
		b = -b
	}
	sin, cos := math.Sincos(f.Orientation)
	center := Point{X: f.X, Y: f.Y}
	return Primitive{
		Kind:    KindSegment,
		Role:    RoleDirection,
		Feature: idx,
		Points:  []Point{center, {X: f.X + b*cos, Y: f.Y - b*sin}},
		Center:  center,
	}
}

func circle(idx int, f *tracker.Feature) Primitive {
	ts := samples()
	pts := make([]Point, len(ts))
	for i, t := range ts {
		st, ct := math.Sincos(t)
		pts[i] = Point{X: f.X + f.Radius*ct, Y: f.Y + f.Radius*st}
	}
	return Primitive{
		Kind:    KindCircle,
		Role:    RoleOutline,
		Feature: idx,
		Points:  pts,
		Connect: connectFlags(len(pts)),
		Center:  Point{X: f.X, Y: f.Y},
		Radius:  f.Radius,
	}
}

func orientation(idx int, f *tracker.Feature, length float64) Primitive {
	sin, cos := math.Sincos(f.Phi)
	center := Point{X: f.X, Y: f.Y}
	return Primitive{
		Kind:    KindSegment,
		Role:    RoleOrientation,
		Feature: idx,
		Points:  []Point{center, {X: f.X + length*cos, Y: f.Y + length*sin}},
		Center:  center,
	}
}

// rectangle traces the bounding box clockwise from the top-left corner and
// back.
func rectangle(idx int, f *tracker.Feature) Primitive {
	pts := []Point{
		{X: f.XMin, Y: f.YMin},
		{X: f.XMax, Y: f.YMin},
		{X: f.XMax, Y: f.YMax},
		{X: f.XMin, Y: f.YMax},
		{X: f.XMin, Y: f.YMin},
	}
	return Primitive{
		Kind:    KindRectangle,
		Role:    RoleOutline,
		Feature: idx,
		Points:  pts,
		Connect: connectFlags(len(pts)),
		Center:  Point{X: f.X, Y: f.Y},
		Width:   f.Width,
		Height:  f.Height,
	}
}
