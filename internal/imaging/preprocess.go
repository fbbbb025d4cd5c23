package imaging

import (
	"image"
	"sort"

	"github.com/pkg/errors"
)

// Preprocess describes the optional per-frame conditioning applied before
// detection. The zero value leaves frames untouched.
type Preprocess struct {
	// Binning averages Binning x Binning blocks into one pixel when > 1.
	Binning int `json:"software_binning,omitempty" validate:"gte=0,lte=64"`
	// Median applies a Median x Median median filter when > 1.
	Median int `json:"median,omitempty" validate:"gte=0,lte=31"`
	// SubtractMean subtracts the series mean frame and clips at zero.
	SubtractMean bool `json:"subtract_mean,omitempty"`
	// ROI restricts processing to a rectangle in binned coordinates.
	ROI *ROI `json:"roi,omitempty"`
}

// ROI is a region of interest given by its top-left corner and size.
type ROI struct {
	X int `json:"x" validate:"gte=0"`
	Y int `json:"y" validate:"gte=0"`
	W int `json:"w" validate:"gt=0"`
	H int `json:"h" validate:"gt=0"`
}

// Rect returns the ROI as an image rectangle.
func (r ROI) Rect() image.Rectangle { return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H) }

// Active reports whether any step is enabled.
func (p Preprocess) Active() bool {
	return p.Binning > 1 || p.Median > 1 || p.SubtractMean || p.ROI != nil
}

// Apply runs the enabled steps in order: binning, median, background
// subtraction, ROI. background is required when SubtractMean is set and must
// already be binned.
func (p Preprocess) Apply(f *Frame, background *Frame) (*Frame, error) {
	out := f
	if p.Binning > 1 {
		out = Bin(out, p.Binning)
	}
	if p.Median > 1 {
		out = Median(out, p.Median)
	}
	if p.SubtractMean {
		if background == nil {
			return nil, errors.New("background subtraction requested without a mean frame")
		}
		var err error
		out, err = SubtractBackground(out, background)
		if err != nil {
			return nil, err
		}
	}
	if p.ROI != nil {
		r := p.ROI.Rect().Intersect(out.Bounds())
		if r.Empty() {
			return nil, errors.Errorf("roi %v lies outside the %dx%d frame", p.ROI.Rect(), out.Width, out.Height)
		}
		out = out.Crop(r)
	}
	if out == f {
		out = f.Clone()
	}
	return out, nil
}

// Bin averages n x n blocks. Trailing rows and columns that do not fill a
// block are dropped.
func Bin(f *Frame, n int) *Frame {
	if n <= 1 {
		return f.Clone()
	}
	out := NewFrame(f.Width/n, f.Height/n)
	area := float64(n * n)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			var sum float64
			for dy := 0; dy < n; dy++ {
				row := f.Pix[(y*n+dy)*f.Width+x*n:]
				for dx := 0; dx < n; dx++ {
					sum += row[dx]
				}
			}
			out.Pix[y*out.Width+x] = sum / area
		}
	}
	return out
}

// Median applies a size x size median filter with mirrored borders. For even
// sizes the window starts size/2 pixels before the centre and the upper
// median is taken.
func Median(f *Frame, size int) *Frame {
	if size <= 1 {
		return f.Clone()
	}
	out := NewFrame(f.Width, f.Height)
	window := make([]float64, size*size)
	off := size / 2
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := 0
			for dy := 0; dy < size; dy++ {
				sy := reflect(y-off+dy, f.Height)
				for dx := 0; dx < size; dx++ {
					window[i] = f.Pix[sy*f.Width+reflect(x-off+dx, f.Width)]
					i++
				}
			}
			sort.Float64s(window)
			out.Pix[y*f.Width+x] = window[len(window)/2]
		}
	}
	return out
}

// MeanFrame averages equally sized frames.
func MeanFrame(frames []*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return nil, errors.Wrap(ErrEmptyFrame, "no frames to average")
	}
	mean := NewFrame(frames[0].Width, frames[0].Height)
	for i, f := range frames {
		if f.Width != mean.Width || f.Height != mean.Height {
			return nil, errors.Errorf("frame %d is %dx%d, want %dx%d", i, f.Width, f.Height, mean.Width, mean.Height)
		}
		for j, v := range f.Pix {
			mean.Pix[j] += v
		}
	}
	n := float64(len(frames))
	for j := range mean.Pix {
		mean.Pix[j] /= n
	}
	return mean, nil
}

// SubtractBackground returns f - bg with negative values clipped to zero.
func SubtractBackground(f, bg *Frame) (*Frame, error) {
	d, err := f.Subtract(bg)
	if err != nil {
		return nil, err
	}
	for i, v := range d.Pix {
		if v < 0 {
			d.Pix[i] = 0
		}
	}
	return d, nil
}
