package detection

import (
	"image"
	"math"
	"testing"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addBlock paints a size x size square of value centred on (cx, cy).
func addBlock(f *imaging.Frame, cx, cy, size int, value float64) {
	half := size / 2
	for y := cy - half; y < cy-half+size; y++ {
		for x := cx - half; x < cx-half+size; x++ {
			f.Set(x, y, value)
		}
	}
}

func TestLabel_SingleBlock(t *testing.T) {
	f := imaging.NewFrame(64, 64)
	addBlock(f, 32, 32, 9, 200)

	regions := Label(f, 100, false)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, 1, r.Label)
	assert.Equal(t, 81, r.Area)
	assert.InDelta(t, 32, r.Centroid.Row, 1e-9)
	assert.InDelta(t, 32, r.Centroid.Col, 1e-9)
	assert.InDelta(t, 32, r.WeightedCentroid.Row, 1e-9)
	assert.Equal(t, image.Rect(28, 28, 37, 37), r.BBox)
	assert.Equal(t, 200.0, r.MaxIntensity)
	assert.Equal(t, 200.0, r.MinIntensity)
	assert.Equal(t, 200.0, r.MeanIntensity)
	assert.Equal(t, 81*200.0, r.SummedIntensity)
	assert.Equal(t, 81, r.FilledArea)
	assert.InDelta(t, math.Sqrt(4*81/math.Pi), r.EquivalentDiameter, 1e-9)
	assert.InDelta(t, 0, r.Eccentricity, 1e-9)
	assert.InDelta(t, r.MajorAxisLength, r.MinorAxisLength, 1e-9)
	assert.Len(t, r.Pixels, 81)
}

func TestLabel_Empty(t *testing.T) {
	f := imaging.NewFrame(16, 16)
	regions := Label(f, 10, false)
	assert.NotNil(t, regions)
	assert.Empty(t, regions)
}

func TestLabel_Invert(t *testing.T) {
	f := imaging.NewFrame(10, 10)
	for i := range f.Pix {
		f.Pix[i] = 100
	}
	addBlock(f, 5, 5, 3, 0)

	regions := Label(f, 50, true)
	require.Len(t, regions, 1)
	assert.Equal(t, 9, regions[0].Area)
}

func TestLabel_EightConnectivity(t *testing.T) {
	f := imaging.NewFrame(8, 8)
	f.Set(2, 2, 10)
	f.Set(3, 3, 10)
	f.Set(4, 4, 10)

	regions := Label(f, 5, false)
	require.Len(t, regions, 1, "diagonal neighbours belong to one region")
	assert.Equal(t, 3, regions[0].Area)
}

func TestLabel_OrderedByFirstPixel(t *testing.T) {
	f := imaging.NewFrame(40, 40)
	addBlock(f, 30, 10, 3, 50) // first pixel at row 9
	addBlock(f, 5, 20, 5, 90)  // first pixel at row 18

	regions := Label(f, 10, false)
	require.Len(t, regions, 2)
	assert.Equal(t, 9, regions[0].Area)
	assert.Equal(t, 25, regions[1].Area)
	assert.Equal(t, 2, regions[1].Label)
}

func TestLabel_ElongatedRegion(t *testing.T) {
	f := imaging.NewFrame(30, 10)
	for y := 4; y < 7; y++ {
		for x := 5; x < 20; x++ {
			f.Set(x, y, 1)
		}
	}

	regions := Label(f, 0, false)
	require.Len(t, regions, 1)
	r := regions[0]

	assert.InDelta(t, math.Pi/2, math.Abs(r.Orientation), 1e-9, "horizontal bar lies across the row axis")
	assert.InDelta(t, 4*math.Sqrt((15*15-1)/12.0), r.MajorAxisLength, 1e-9)
	assert.InDelta(t, 4*math.Sqrt((3*3-1)/12.0), r.MinorAxisLength, 1e-9)
	assert.Greater(t, r.Eccentricity, 0.95)
	assert.Less(t, r.Sphericity(), 0.25)
}

func TestLabel_DiagonalOrientationSign(t *testing.T) {
	// a line running down and to the right: rows and columns grow together
	f := imaging.NewFrame(20, 20)
	for i := 2; i < 18; i++ {
		f.Set(i, i, 1)
		f.Set(i+1, i, 1)
	}
	regions := Label(f, 0, false)
	require.Len(t, regions, 1)

	o := regions[0].Orientation
	// major-axis direction in (x, y) is (sin o, cos o)
	assert.InDelta(t, math.Pi/4, math.Abs(o), 0.1)
	assert.Greater(t, math.Sin(o)*math.Cos(o), 0.0)
}

func TestLabel_FilledArea(t *testing.T) {
	f := imaging.NewFrame(20, 20)
	for y := 5; y < 12; y++ {
		for x := 5; x < 12; x++ {
			if y == 5 || y == 11 || x == 5 || x == 11 {
				f.Set(x, y, 1)
			}
		}
	}

	regions := Label(f, 0, false)
	require.Len(t, regions, 1)
	assert.Equal(t, 24, regions[0].Area)
	assert.Equal(t, 49, regions[0].FilledArea)
}

func TestLabel_WeightedCentroid(t *testing.T) {
	f := imaging.NewFrame(10, 5)
	f.Set(2, 2, 1)
	f.Set(3, 2, 3)

	regions := Label(f, 0, false)
	require.Len(t, regions, 1)
	assert.InDelta(t, 2.5, regions[0].Centroid.Col, 1e-9)
	assert.InDelta(t, 2.75, regions[0].WeightedCentroid.Col, 1e-9)
}

func TestLabel_Idempotent(t *testing.T) {
	f := imaging.NewFrame(50, 50)
	addBlock(f, 10, 10, 5, 80)
	addBlock(f, 30, 35, 7, 120)
	before := f.Clone()

	first := Label(f, 40, false)
	second := Label(f, 40, false)
	assert.Equal(t, first, second)
	assert.Equal(t, before.Pix, f.Pix, "labeling must not modify the frame")
}

func TestSphericity_SinglePixel(t *testing.T) {
	r := Region{Area: 1}
	assert.Equal(t, 1.0, r.Sphericity())
}
