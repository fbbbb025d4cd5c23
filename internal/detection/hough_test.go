package detection

import (
	"math"
	"testing"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diskFrame(width, height int, cx, cy, radius, value float64) *imaging.Frame {
	f := imaging.NewFrame(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= radius*radius {
				f.Set(x, y, value)
			}
		}
	}
	return f
}

func TestHoughCircles_Disk(t *testing.T) {
	f := diskFrame(100, 100, 50, 50, 10, 200)

	circles, edges := HoughCircles(f, HoughOptions{
		Canny:      imaging.DefaultCannyOptions(),
		MinRadius:  8,
		MaxRadius:  13,
		MaxCircles: 1,
	})
	require.Len(t, circles, 1)
	c := circles[0]
	assert.InDelta(t, 50, c.Center.X, 2)
	assert.InDelta(t, 50, c.Center.Y, 2)
	assert.InDelta(t, 10, float64(c.Radius), 1.5)
	assert.Greater(t, c.Votes, 0.0)
	assert.Greater(t, edges.Count(), 0)
}

func TestHoughCircles_Empty(t *testing.T) {
	circles, edges := HoughCircles(imaging.NewFrame(40, 40), HoughOptions{
		Canny:      imaging.DefaultCannyOptions(),
		MinRadius:  3,
		MaxRadius:  8,
		MaxCircles: 10,
	})
	assert.Empty(t, circles)
	assert.Equal(t, 0, edges.Count())
}

func TestHoughCircles_TwoDisks(t *testing.T) {
	f := diskFrame(120, 60, 30, 30, 9, 100)
	g := diskFrame(120, 60, 90, 30, 9, 100)
	for i := range f.Pix {
		f.Pix[i] += g.Pix[i]
	}

	circles, _ := HoughCircles(f, HoughOptions{
		Canny:      imaging.DefaultCannyOptions(),
		MinRadius:  7,
		MaxRadius:  12,
		MaxCircles: 2,
	})
	require.Len(t, circles, 2)
	xs := []int{circles[0].Center.X, circles[1].Center.X}
	if xs[0] > xs[1] {
		xs[0], xs[1] = xs[1], xs[0]
	}
	assert.InDelta(t, 30, xs[0], 2)
	assert.InDelta(t, 90, xs[1], 2)
}

func TestCirclePerimeter(t *testing.T) {
	for _, r := range []int{1, 5, 12} {
		pts := circlePerimeter(r)
		seen := map[[2]int]bool{}
		for _, p := range pts {
			key := [2]int{p.X, p.Y}
			assert.False(t, seen[key], "duplicate offset %v", p)
			seen[key] = true
			d := math.Hypot(float64(p.X), float64(p.Y))
			assert.InDelta(t, float64(r), d, 1, "offset %v off radius %d", p, r)
		}
	}
}

func TestFilterDuplicateCircles(t *testing.T) {
	circles := []Circle{
		{Radius: 10, Votes: 0.9},
		{Radius: 10, Votes: 0.8},
		{Radius: 10, Votes: 0.7},
	}
	circles[1].Center.X = 3
	circles[2].Center.X = 40

	out := filterDuplicateCircles(circles)
	require.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Votes)
	assert.Equal(t, 40, out[1].Center.X)

	assert.Empty(t, filterDuplicateCircles(nil))
}
