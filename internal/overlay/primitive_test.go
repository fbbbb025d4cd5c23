package overlay

import (
	"math"
	"testing"

	"github.com/ironsheep/particle-tracker-mcp/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Empty(t *testing.T) {
	prims := Build(nil, Options{})
	assert.NotNil(t, prims)
	assert.Empty(t, prims)

	prims = Build([]tracker.Feature{{X: 1, Y: 1}}, Options{})
	assert.Empty(t, prims, "features without geometry draw nothing")
}

func TestBuild_Ellipse(t *testing.T) {
	f := tracker.Feature{
		X: 20, Y: 30,
		MajorAxisLength: 10, MinorAxisLength: 4,
		Orientation: 0,
		Geometry:    tracker.GeometryEllipse,
	}
	prims := Build([]tracker.Feature{f}, Options{})
	require.Len(t, prims, 3)

	outline := prims[0]
	assert.Equal(t, KindEllipse, outline.Kind)
	assert.Equal(t, RoleOutline, outline.Role)
	require.Len(t, outline.Points, OutlineSamples)
	require.Len(t, outline.Connect, OutlineSamples)
	for i, c := range outline.Connect {
		assert.Equal(t, i < OutlineSamples-1, c, "connect flag %d", i)
	}
	assert.InDelta(t, outline.Points[0].X, outline.Points[OutlineSamples-1].X, 1e-9)
	assert.InDelta(t, outline.Points[0].Y, outline.Points[OutlineSamples-1].Y, 1e-9)

	// orientation 0: the major axis runs along rows
	assert.InDelta(t, 20, outline.Points[0].X, 1e-9)
	assert.InDelta(t, 35, outline.Points[0].Y, 1e-9)
	for _, p := range outline.Points {
		dx, dy := (p.X-20)/2, (p.Y-30)/5
		assert.InDelta(t, 1, dx*dx+dy*dy, 1e-9)
	}

	major, minor := prims[1], prims[2]
	assert.Equal(t, RoleMajorAxis, major.Role)
	assert.InDelta(t, 20, major.Points[1].X, 1e-9)
	assert.InDelta(t, 35, major.Points[1].Y, 1e-9)
	assert.Equal(t, RoleMinorAxis, minor.Role)
	assert.InDelta(t, 22, minor.Points[1].X, 1e-9)
	assert.InDelta(t, 30, minor.Points[1].Y, 1e-9)
}

func TestBuild_Box(t *testing.T) {
	f := tracker.Feature{
		X: 20, Y: 15, XMin: 10, YMin: 10, XMax: 30, YMax: 20, Width: 20, Height: 10,
		Geometry: tracker.GeometryBox,
	}
	prims := Build([]tracker.Feature{f}, Options{})
	require.Len(t, prims, 1)

	box := prims[0]
	assert.Equal(t, KindRectangle, box.Kind)
	assert.Equal(t, RoleOutline, box.Role)
	assert.Equal(t, []Point{{10, 10}, {30, 10}, {30, 20}, {10, 20}, {10, 10}}, box.Points)
	assert.Equal(t, []bool{true, true, true, true, false}, box.Connect)
	assert.Equal(t, Point{X: 20, Y: 15}, box.Center)
	assert.Equal(t, 20.0, box.Width)
	assert.Equal(t, 10.0, box.Height)
}

func TestBuild_RotatedEllipseAxes(t *testing.T) {
	f := tracker.Feature{
		X: 0, Y: 0,
		MajorAxisLength: 8, MinorAxisLength: 2,
		Orientation: math.Pi / 2,
		Geometry:    tracker.GeometryEllipse,
	}
	prims := Build([]tracker.Feature{f}, Options{})
	require.Len(t, prims, 3)

	// orientation π/2: the major axis runs along columns
	assert.InDelta(t, 4, prims[1].Points[1].X, 1e-9)
	assert.InDelta(t, 0, prims[1].Points[1].Y, 1e-9)
	assert.InDelta(t, 0, prims[2].Points[1].X, 1e-9)
	assert.InDelta(t, -1, prims[2].Points[1].Y, 1e-9)
}

func TestBuild_DirectedEllipse(t *testing.T) {
	base := tracker.Feature{
		X: 10, Y: 10,
		MajorAxisLength: 10, MinorAxisLength: 6,
		Geometry: tracker.GeometryDirectedEllipse,
	}
	pos, neg := base, base
	pos.DirectionMeasure = 2
	neg.DirectionMeasure = -2

	prims := Build([]tracker.Feature{pos, neg}, Options{})
	require.Len(t, prims, 8)

	assert.Equal(t, RoleDirection, prims[3].Role)
	assert.Equal(t, 0, prims[3].Feature)
	assert.InDelta(t, 13, prims[3].Points[1].X, 1e-9)

	assert.Equal(t, RoleDirection, prims[7].Role)
	assert.Equal(t, 1, prims[7].Feature)
	assert.InDelta(t, 7, prims[7].Points[1].X, 1e-9)
}

func TestBuild_Circle(t *testing.T) {
	f := tracker.Feature{X: 5, Y: 6, Radius: 3, Geometry: tracker.GeometryCircle}
	prims := Build([]tracker.Feature{f}, Options{})
	require.Len(t, prims, 1)

	c := prims[0]
	assert.Equal(t, KindCircle, c.Kind)
	assert.Equal(t, 3.0, c.Radius)
	require.Len(t, c.Points, OutlineSamples)
	for _, p := range c.Points {
		assert.InDelta(t, 3, math.Hypot(p.X-5, p.Y-6), 1e-9)
	}
	assert.False(t, c.Connect[OutlineSamples-1])
}

func TestBuild_Orientation(t *testing.T) {
	f := tracker.Feature{X: 10, Y: 10, Phi: math.Pi / 2, Geometry: tracker.GeometryOrientation}

	prims := Build([]tracker.Feature{f}, Options{})
	require.Len(t, prims, 1)
	seg := prims[0]
	assert.Equal(t, KindSegment, seg.Kind)
	assert.Equal(t, RoleOrientation, seg.Role)
	assert.InDelta(t, 10, seg.Points[1].X, 1e-9)
	assert.InDelta(t, 20, seg.Points[1].Y, 1e-9)

	prims = Build([]tracker.Feature{f}, Options{OrientationLength: 4})
	assert.InDelta(t, 14, prims[0].Points[1].Y, 1e-9)
}
