package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ErrEmptyFrame is returned when a frame has no pixels or a malformed buffer.
var ErrEmptyFrame = errors.New("empty frame")

// Frame is a grayscale intensity grid stored row-major.
//
// Intensities keep the native range of the source (0-255 for 8-bit, 0-65535
// for 16-bit images). Detectors treat a Frame they receive as read-only and
// work on copies.
type Frame struct {
	Width  int
	Height int
	Pix    []float64
}

// NewFrame allocates a zero-valued frame.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// FromImage converts an image to a Frame.
//
// *image.Gray and *image.Gray16 are read at their native depth. 16-bit
// colour images (*image.RGBA64, *image.NRGBA64) are reduced to 16-bit
// luminance. Any other colour model is reduced to 8-bit luminance. Both
// use ITU-R BT.601 weights.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				f.Pix[y*f.Width+x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				f.Pix[y*f.Width+x] = float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.RGBA64, *image.NRGBA64:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				f.Pix[y*f.Width+x] = float64(g.Y)
			}
		}
	default:
		gray := imaging.Grayscale(img)
		for y := 0; y < f.Height; y++ {
			row := gray.Pix[y*gray.Stride:]
			for x := 0; x < f.Width; x++ {
				f.Pix[y*f.Width+x] = float64(row[x*4])
			}
		}
	}
	return f
}

// Validate reports whether the frame can be processed.
func (f *Frame) Validate() error {
	if f == nil {
		return errors.Wrap(ErrEmptyFrame, "nil frame")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Wrapf(ErrEmptyFrame, "size %dx%d", f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height {
		return errors.Wrapf(ErrEmptyFrame, "buffer holds %d samples, want %d", len(f.Pix), f.Width*f.Height)
	}
	return nil
}

// At returns the intensity at column x, row y.
func (f *Frame) At(x, y int) float64 { return f.Pix[y*f.Width+x] }

// Set stores v at column x, row y.
func (f *Frame) Set(x, y int, v float64) { f.Pix[y*f.Width+x] = v }

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, f.Height) }

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := &Frame{Width: f.Width, Height: f.Height, Pix: make([]float64, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// Max returns the largest intensity, or 0 for an empty frame.
func (f *Frame) Max() float64 {
	if len(f.Pix) == 0 {
		return 0
	}
	return floats.Max(f.Pix)
}

// Min returns the smallest intensity, or 0 for an empty frame.
func (f *Frame) Min() float64 {
	if len(f.Pix) == 0 {
		return 0
	}
	return floats.Min(f.Pix)
}

// Sum returns the total intensity.
func (f *Frame) Sum() float64 { return floats.Sum(f.Pix) }

// Crop copies the part of f inside r. r is clipped to the frame.
func (f *Frame) Crop(r image.Rectangle) *Frame {
	r = r.Intersect(f.Bounds())
	c := NewFrame(r.Dx(), r.Dy())
	for y := 0; y < c.Height; y++ {
		src := f.Pix[(r.Min.Y+y)*f.Width+r.Min.X:]
		copy(c.Pix[y*c.Width:(y+1)*c.Width], src[:c.Width])
	}
	return c
}

// Subtract returns f - o pixelwise. Both frames must share dimensions.
func (f *Frame) Subtract(o *Frame) (*Frame, error) {
	if f.Width != o.Width || f.Height != o.Height {
		return nil, errors.Errorf("frame size mismatch: %dx%d vs %dx%d", f.Width, f.Height, o.Width, o.Height)
	}
	d := f.Clone()
	floats.Sub(d.Pix, o.Pix)
	return d, nil
}

// Normalized returns a copy scaled so the maximum is 1. A frame whose
// maximum is not positive is returned as a zero copy.
func (f *Frame) Normalized() *Frame {
	c := f.Clone()
	m := f.Max()
	if m <= 0 {
		for i := range c.Pix {
			c.Pix[i] = 0
		}
		return c
	}
	floats.Scale(1/m, c.Pix)
	return c
}

// ToGray renders the frame for display, stretching [min, max] onto 0-255.
func (f *Frame) ToGray() *image.Gray {
	out := image.NewGray(f.Bounds())
	lo, hi := f.Min(), f.Max()
	span := hi - lo
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			var v float64
			if span > 0 {
				v = (f.At(x, y) - lo) / span * 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(v))})
		}
	}
	return out
}

// Mask is a binary image with the geometry of a Frame.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an all-false mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// At reports whether column x, row y is set.
func (m *Mask) At(x, y int) bool { return m.Bits[y*m.Width+x] }

// Set assigns column x, row y.
func (m *Mask) Set(x, y int, v bool) { m.Bits[y*m.Width+x] = v }

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// ToFrame converts the mask to a 0/1 intensity frame.
func (m *Mask) ToFrame() *Frame {
	f := NewFrame(m.Width, m.Height)
	for i, b := range m.Bits {
		if b {
			f.Pix[i] = 1
		}
	}
	return f
}

// Threshold binarizes f by pixel > level, complemented when invert is set.
func Threshold(f *Frame, level float64, invert bool) *Mask {
	m := NewMask(f.Width, f.Height)
	for i, v := range f.Pix {
		m.Bits[i] = (v > level) != invert
	}
	return m
}
