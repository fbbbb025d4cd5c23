package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
)

// Circle is a circle found by the Hough transform.
type Circle struct {
	Center image.Point `json:"center"`
	Radius int         `json:"radius"`
	// Votes is the fraction of the circle perimeter covered by edge pixels.
	Votes float64 `json:"votes"`
}

// HoughOptions controls HoughCircles.
type HoughOptions struct {
	Canny imaging.CannyOptions
	// Radii are searched in [MinRadius, MaxRadius).
	MinRadius int
	MaxRadius int
	// Threshold is the minimum normalized vote for a peak. Zero means half
	// the strongest vote at each radius.
	Threshold float64
	// MaxCircles caps the number of returned circles.
	MaxCircles int
}

// HoughCircles detects circles in f and returns them strongest first,
// together with the edge mask they were voted from.
//
// # Algorithm (Hough Circle Transform)
//
//  1. Edge Detection: Canny with the configured smoothing and hysteresis
//  2. Accumulator Voting: For each radius, every edge pixel votes for all
//     centres on the rasterized circle of that radius around it. Votes are
//     divided by the number of perimeter pixels
//  3. Peak Detection: 3x3 local maxima of each accumulator above the
//     threshold
//  4. Ranking: Peaks sorted by vote, strongest first
//  5. Duplicate Removal: A circle whose centre lies within the mean radius
//     of a stronger circle is dropped
//
// # Performance
//
// Time complexity is O(edges × Σ perimeter(r)) over the searched radii.
func HoughCircles(f *imaging.Frame, opt HoughOptions) ([]Circle, *imaging.Mask) {
	width, height := f.Width, f.Height
	edges := imaging.Canny(f, opt.Canny)

	var edgePoints []image.Point
	for i, e := range edges.Bits {
		if e {
			edgePoints = append(edgePoints, image.Point{X: i % width, Y: i / width})
		}
	}

	circles := make([]Circle, 0)
	if len(edgePoints) == 0 {
		return circles, edges
	}

	for radius := opt.MinRadius; radius < opt.MaxRadius; radius++ {
		if radius <= 0 {
			continue
		}
		perimeter := circlePerimeter(radius)
		accumulator := make([]float64, width*height)
		for _, p := range edgePoints {
			for _, d := range perimeter {
				cx, cy := p.X+d.X, p.Y+d.Y
				if cx >= 0 && cx < width && cy >= 0 && cy < height {
					accumulator[cy*width+cx]++
				}
			}
		}
		scale := 1 / float64(len(perimeter))
		peak := 0.0
		for i := range accumulator {
			accumulator[i] *= scale
			peak = math.Max(peak, accumulator[i])
		}
		if peak == 0 {
			continue
		}

		threshold := opt.Threshold
		if threshold == 0 {
			threshold = 0.5 * peak
		}

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := accumulator[y*width+x]
				if v <= threshold || !isLocalMax(accumulator, width, height, x, y) {
					continue
				}
				circles = append(circles, Circle{
					Center: image.Point{X: x, Y: y},
					Radius: radius,
					Votes:  v,
				})
			}
		}
	}

	sort.SliceStable(circles, func(i, j int) bool {
		return circles[i].Votes > circles[j].Votes
	})

	filtered := filterDuplicateCircles(circles)
	if opt.MaxCircles >= 0 && len(filtered) > opt.MaxCircles {
		filtered = filtered[:opt.MaxCircles]
	}
	return filtered, edges
}

// isLocalMax reports whether no 8-neighbour of (x, y) holds a larger vote.
func isLocalMax(acc []float64, width, height, x, y int) bool {
	v := acc[y*width+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			if acc[ny*width+nx] > v {
				return false
			}
		}
	}
	return true
}

// circlePerimeter returns the offsets of the midpoint-rasterized circle of
// the given radius, each offset once.
func circlePerimeter(radius int) []image.Point {
	seen := make(map[image.Point]bool)
	var pts []image.Point
	add := func(x, y int) {
		p := image.Point{X: x, Y: y}
		if !seen[p] {
			seen[p] = true
			pts = append(pts, p)
		}
	}

	x, y := radius, 0
	d := 1 - radius
	for x >= y {
		add(x, y)
		add(y, x)
		add(-y, x)
		add(-x, y)
		add(-x, -y)
		add(-y, -x)
		add(y, -x)
		add(x, -y)
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
	return pts
}

// filterDuplicateCircles removes circles with overlapping centers.
//
// Two circles are considered duplicates if the distance between their centers
// is less than the average of their radii. Only the first circle (the
// stronger one, given sorted input) is kept.
func filterDuplicateCircles(circles []Circle) []Circle {
	filtered := make([]Circle, 0, len(circles))
	for _, c := range circles {
		isDuplicate := false
		for _, f := range filtered {
			dx := c.Center.X - f.Center.X
			dy := c.Center.Y - f.Center.Y
			dist := math.Sqrt(float64(dx*dx + dy*dy))
			if dist < float64(c.Radius+f.Radius)/2 {
				isDuplicate = true
				break
			}
		}
		if !isDuplicate {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
