package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"gonum.org/v1/gonum/stat"
)

// Centroid is a sub-pixel position. Row grows downward, Col rightward.
type Centroid struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// Region is one 8-connected component of a binarized frame together with the
// shape and intensity statistics used by the detectors.
//
// Shape statistics follow the usual image-moment conventions: Orientation is
// the angle in radians between the row axis and the major axis, in
// [-π/2, π/2], and the axis lengths are those of the ellipse with the same
// normalized second central moments.
type Region struct {
	// Label is the 1-based component number in discovery order.
	Label int `json:"label"`

	Area int `json:"area"`

	Centroid         Centroid `json:"centroid"`
	WeightedCentroid Centroid `json:"weighted_centroid"`

	Orientation     float64 `json:"orientation"`
	MinorAxisLength float64 `json:"minor_axis_length"`
	MajorAxisLength float64 `json:"major_axis_length"`
	Eccentricity    float64 `json:"eccentricity"`

	// BBox spans columns [Min.X, Max.X) and rows [Min.Y, Max.Y).
	BBox image.Rectangle `json:"bbox"`

	MaxIntensity       float64 `json:"max_intensity"`
	MeanIntensity      float64 `json:"mean_intensity"`
	MinIntensity       float64 `json:"min_intensity"`
	SummedIntensity    float64 `json:"summed_intensity"`
	EquivalentDiameter float64 `json:"equivalent_diameter"`

	// FilledArea counts the region pixels plus any holes enclosed by it.
	FilledArea int `json:"filled_area"`

	// Pixels lists the member pixels in row-major order.
	Pixels []image.Point `json:"-"`
}

// Sphericity is the minor/major axis ratio, 1 for a disk. A region with a
// zero major axis (a single pixel) reports 1.
func (r *Region) Sphericity() float64 {
	if r.MajorAxisLength == 0 {
		return 1
	}
	return r.MinorAxisLength / r.MajorAxisLength
}

// Binarize marks pixels strictly above threshold, complemented when invert is
// set.
func Binarize(f *imaging.Frame, threshold float64, invert bool) *imaging.Mask {
	return imaging.Threshold(f, threshold, invert)
}

// Label binarizes f and returns its connected regions. It is a shorthand for
// Components(Binarize(f, threshold, invert), f).
func Label(f *imaging.Frame, threshold float64, invert bool) []Region {
	return Components(Binarize(f, threshold, invert), f)
}

// Components labels the 8-connected foreground components of m and measures
// each against the intensity frame, which must share m's geometry.
//
// Regions are returned ordered by the row-major position of their first
// pixel. An empty mask yields an empty slice.
func Components(m *imaging.Mask, intensity *imaging.Frame) []Region {
	width, height := m.Width, m.Height
	visited := make([]bool, width*height)
	regions := make([]Region, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !m.Bits[i] || visited[i] {
				continue
			}
			pixels := floodFill(m, visited, x, y)
			regions = append(regions, measure(len(regions)+1, pixels, intensity))
		}
	}
	return regions
}

// floodFill collects the 8-connected component containing (startX, startY)
// using an explicit stack.
func floodFill(m *imaging.Mask, visited []bool, startX, startY int) []image.Point {
	width, height := m.Width, m.Height
	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY*width+startX] = true
	var pixels []image.Point

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pixels = append(pixels, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				j := ny*width + nx
				if m.Bits[j] && !visited[j] {
					visited[j] = true
					stack = append(stack, image.Point{X: nx, Y: ny})
				}
			}
		}
	}

	sort.Slice(pixels, func(a, b int) bool {
		if pixels[a].Y != pixels[b].Y {
			return pixels[a].Y < pixels[b].Y
		}
		return pixels[a].X < pixels[b].X
	})
	return pixels
}

func measure(label int, pixels []image.Point, intensity *imaging.Frame) Region {
	n := len(pixels)
	rows := make([]float64, n)
	cols := make([]float64, n)
	values := make([]float64, n)
	bbox := image.Rectangle{Min: pixels[0], Max: pixels[0].Add(image.Pt(1, 1))}
	for i, p := range pixels {
		rows[i] = float64(p.Y)
		cols[i] = float64(p.X)
		values[i] = intensity.At(p.X, p.Y)
		bbox = bbox.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
	}

	r := Region{
		Label:  label,
		Area:   n,
		BBox:   bbox,
		Pixels: pixels,
	}
	r.Centroid = Centroid{Row: stat.Mean(rows, nil), Col: stat.Mean(cols, nil)}

	var sum float64
	r.MaxIntensity, r.MinIntensity = values[0], values[0]
	for _, v := range values {
		sum += v
		r.MaxIntensity = math.Max(r.MaxIntensity, v)
		r.MinIntensity = math.Min(r.MinIntensity, v)
	}
	r.SummedIntensity = sum
	r.MeanIntensity = sum / float64(n)
	if sum > 0 {
		r.WeightedCentroid = Centroid{Row: stat.Mean(rows, values), Col: stat.Mean(cols, values)}
	} else {
		r.WeightedCentroid = r.Centroid
	}

	// normalized second central moments: rr along rows, cc along columns
	var rr, cc, rc float64
	for i := range pixels {
		dr := rows[i] - r.Centroid.Row
		dc := cols[i] - r.Centroid.Col
		rr += dr * dr
		cc += dc * dc
		rc += dr * dc
	}
	rr /= float64(n)
	cc /= float64(n)
	rc /= float64(n)
	r.Orientation, r.MajorAxisLength, r.MinorAxisLength, r.Eccentricity = ellipseFromMoments(rr, cc, rc)

	r.EquivalentDiameter = math.Sqrt(4 * float64(n) / math.Pi)
	r.FilledArea = filledArea(pixels, bbox)
	return r
}

// ellipseFromMoments derives the equivalent ellipse from normalized central
// moments. The inertia tensor is [[cc, -rc], [-rc, rr]].
func ellipseFromMoments(rr, cc, rc float64) (orientation, major, minor, ecc float64) {
	a, b, c := cc, -rc, rr
	if a-c == 0 {
		if b < 0 {
			orientation = -math.Pi / 4
		} else {
			orientation = math.Pi / 4
		}
	} else {
		orientation = 0.5 * math.Atan2(-2*b, c-a)
	}

	mid := (a + c) / 2
	spread := math.Sqrt(((a-c)/2)*((a-c)/2) + b*b)
	l1 := math.Max(mid+spread, 0)
	l2 := math.Max(mid-spread, 0)
	major = 4 * math.Sqrt(l1)
	minor = 4 * math.Sqrt(l2)
	if l1 > 0 {
		ecc = math.Sqrt(1 - l2/l1)
	}
	return orientation, major, minor, ecc
}

// filledArea counts the region pixels plus background pixels inside bbox that
// cannot reach the bbox border through 4-connected background.
func filledArea(pixels []image.Point, bbox image.Rectangle) int {
	w, h := bbox.Dx(), bbox.Dy()
	inside := make([]bool, w*h)
	for _, p := range pixels {
		inside[(p.Y-bbox.Min.Y)*w+p.X-bbox.Min.X] = true
	}

	outside := make([]bool, w*h)
	var stack []image.Point
	seed := func(x, y int) {
		i := y*w + x
		if !inside[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, image.Point{X: x, Y: y})
		}
	}
	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range [4]image.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
			q := p.Add(d)
			if q.X >= 0 && q.X < w && q.Y >= 0 && q.Y < h {
				seed(q.X, q.Y)
			}
		}
	}

	reached := 0
	for _, o := range outside {
		if o {
			reached++
		}
	}
	return w*h - reached
}
