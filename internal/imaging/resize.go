package imaging

import "math"

// Resize resamples f to width x height with bilinear interpolation. Pixel
// centres are aligned (source = (dest + 0.5) * scale - 0.5) and samples
// beyond the border repeat the edge pixel. Non-positive sizes yield an empty
// frame.
func Resize(f *Frame, width, height int) *Frame {
	out := NewFrame(width, height)
	if out.Width == 0 || out.Height == 0 || f.Width == 0 || f.Height == 0 {
		return out
	}
	if width == f.Width && height == f.Height {
		return f.Clone()
	}

	sx := float64(f.Width) / float64(width)
	sy := float64(f.Height) / float64(height)
	for y := 0; y < height; y++ {
		fy := math.Max((float64(y)+0.5)*sy-0.5, 0)
		y0 := clamp(int(fy), 0, f.Height-1)
		y1 := clamp(y0+1, 0, f.Height-1)
		wy := fy - float64(y0)
		for x := 0; x < width; x++ {
			fx := math.Max((float64(x)+0.5)*sx-0.5, 0)
			x0 := clamp(int(fx), 0, f.Width-1)
			x1 := clamp(x0+1, 0, f.Width-1)
			wx := fx - float64(x0)

			top := f.At(x0, y0)*(1-wx) + f.At(x1, y0)*wx
			bottom := f.At(x0, y1)*(1-wx) + f.At(x1, y1)*wx
			out.Pix[y*width+x] = top*(1-wy) + bottom*wy
		}
	}
	return out
}
