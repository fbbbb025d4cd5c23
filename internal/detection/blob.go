package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
)

// Blob is a scale-space extremum: a roughly Gaussian spot of width Sigma
// centred at (Row, Col).
type Blob struct {
	Row      float64
	Col      float64
	Sigma    float64
	Response float64
}

// Radius is the radius of the disk matching the blob, σ√2.
func (b Blob) Radius() float64 { return b.Sigma * math.Sqrt2 }

// Area is the area of the matching disk, π(σ√2)².
func (b Blob) Area() float64 { return 2 * math.Pi * b.Sigma * b.Sigma }

// DoGOptions controls DoG.
type DoGOptions struct {
	MinSigma   float64
	MaxSigma   float64
	SigmaRatio float64
	// Threshold is the minimum scale-normalized response on the frame
	// scaled to a maximum of 1.
	Threshold float64
	// Overlap is the disk overlap fraction above which the smaller of two
	// blobs is dropped.
	Overlap float64
}

// DefaultDoGOptions returns sigma 1 to 50 in steps of 1.6, threshold 0.02
// and overlap 0.5.
func DefaultDoGOptions() DoGOptions {
	return DoGOptions{MinSigma: 1, MaxSigma: 50, SigmaRatio: 1.6, Threshold: 0.02, Overlap: 0.5}
}

// Sigmas returns the scale ladder minSigma·ratioⁱ for i = 0..k where
// k = ⌊log(max/min)/log(ratio) + 1⌋.
func (o DoGOptions) Sigmas() []float64 {
	k := int(math.Log(o.MaxSigma/o.MinSigma)/math.Log(o.SigmaRatio) + 1)
	if k < 1 {
		k = 1
	}
	s := make([]float64, k+1)
	for i := range s {
		s[i] = o.MinSigma * math.Pow(o.SigmaRatio, float64(i))
	}
	return s
}

// DoG finds blobs with the difference-of-Gaussians approximation of the
// scale-normalized Laplacian.
//
// # Algorithm
//
//  1. Scale the frame to a maximum of 1; an all-zero frame has no blobs
//  2. Blur at every sigma of the ladder and take (G(σᵢ) - G(σᵢ₊₁))·σᵢ
//  3. Keep points of the (row, col, scale) stack that equal the maximum of
//     their 3x3x3 neighbourhood (edges replicated) and exceed Threshold
//  4. Visit blobs by descending response and drop the smaller of any pair
//     whose disks overlap by more than Overlap
func DoG(f *imaging.Frame, opt DoGOptions) []Blob {
	if f.Max() <= 0 {
		return nil
	}
	norm := f.Normalized()
	sigmas := opt.Sigmas()

	blurred := make([]*imaging.Frame, len(sigmas))
	for i, s := range sigmas {
		blurred[i] = imaging.GaussianBlur(norm, s)
	}
	stack := make([]*imaging.Frame, len(sigmas)-1)
	for i := range stack {
		d := imaging.NewFrame(f.Width, f.Height)
		for j := range d.Pix {
			d.Pix[j] = (blurred[i].Pix[j] - blurred[i+1].Pix[j]) * sigmas[i]
		}
		stack[i] = d
	}

	blobs := scaleSpacePeaks(stack, sigmas, opt.Threshold)
	return pruneBlobs(blobs, opt.Overlap)
}

func scaleSpacePeaks(stack []*imaging.Frame, sigmas []float64, threshold float64) []Blob {
	w, h, n := stack[0].Width, stack[0].Height, len(stack)
	at := func(x, y, s int) float64 {
		return stack[clampIndex(s, n)].Pix[clampIndex(y, h)*w+clampIndex(x, w)]
	}

	var blobs []Blob
	for s := 0; s < n; s++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := stack[s].Pix[y*w+x]
				if v <= threshold {
					continue
				}
				if isCubeMax(at, x, y, s, v) {
					blobs = append(blobs, Blob{Row: float64(y), Col: float64(x), Sigma: sigmas[s], Response: v})
				}
			}
		}
	}

	sort.SliceStable(blobs, func(i, j int) bool { return blobs[i].Response > blobs[j].Response })
	return blobs
}

func isCubeMax(at func(x, y, s int) float64, x, y, s int, v float64) bool {
	for ds := -1; ds <= 1; ds++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if at(x+dx, y+dy, s+ds) > v {
					return false
				}
			}
		}
	}
	return true
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// pruneBlobs drops the smaller blob of every pair overlapping by more than
// overlap. On equal sigmas the earlier blob is dropped.
func pruneBlobs(blobs []Blob, overlap float64) []Blob {
	dropped := make([]bool, len(blobs))
	for i := range blobs {
		for j := i + 1; j < len(blobs); j++ {
			if dropped[i] || dropped[j] {
				continue
			}
			if blobOverlap(blobs[i], blobs[j]) <= overlap {
				continue
			}
			if blobs[i].Sigma > blobs[j].Sigma {
				dropped[j] = true
			} else {
				dropped[i] = true
			}
		}
	}

	out := make([]Blob, 0, len(blobs))
	for i, b := range blobs {
		if !dropped[i] {
			out = append(out, b)
		}
	}
	return out
}

// blobOverlap returns the area of intersection of the two blob disks as a
// fraction of the smaller disk.
func blobOverlap(a, b Blob) float64 {
	big := math.Max(a.Sigma, b.Sigma) * math.Sqrt2
	r1 := a.Radius() / big
	r2 := b.Radius() / big
	d := math.Hypot(a.Row-b.Row, a.Col-b.Col) / big

	if d > r1+r2 {
		return 0
	}
	if d <= math.Abs(r1-r2) {
		return 1
	}
	return diskOverlap(d, r1, r2)
}

// diskOverlap is the lens area of two disks at distance d over the area of
// the smaller disk.
func diskOverlap(d, r1, r2 float64) float64 {
	ratio1 := clampUnit((d*d + r1*r1 - r2*r2) / (2 * d * r1))
	ratio2 := clampUnit((d*d + r2*r2 - r1*r1) / (2 * d * r2))
	a := -d + r2 + r1
	b := d - r2 + r1
	c := d + r2 - r1
	e := d + r2 + r1
	area := r1*r1*math.Acos(ratio1) + r2*r2*math.Acos(ratio2) - 0.5*math.Sqrt(math.Abs(a*b*c*e))
	small := math.Min(r1, r2)
	return area / (math.Pi * small * small)
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// DiskMax returns the largest intensity of f strictly inside the disk of the
// given radius around (row, col). If the disk covers no pixel centre the
// nearest pixel is used.
func DiskMax(f *imaging.Frame, row, col, radius float64) float64 {
	best := math.Inf(-1)
	y0 := clampIndex(int(math.Floor(row-radius)), f.Height)
	y1 := clampIndex(int(math.Ceil(row+radius)), f.Height)
	x0 := clampIndex(int(math.Floor(col-radius)), f.Width)
	x1 := clampIndex(int(math.Ceil(col+radius)), f.Width)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dy, dx := float64(y)-row, float64(x)-col
			if dx*dx+dy*dy < radius*radius {
				best = math.Max(best, f.At(x, y))
			}
		}
	}
	if math.IsInf(best, -1) {
		return f.At(clampIndex(int(math.Round(col)), f.Width), clampIndex(int(math.Round(row)), f.Height))
	}
	return best
}
