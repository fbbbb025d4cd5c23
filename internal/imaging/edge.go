package imaging

import (
	"image"
	"math"
)

// CannyOptions controls edge detection.
type CannyOptions struct {
	// Sigma is the standard deviation of the pre-smoothing Gaussian.
	Sigma float64
	// Low and High are hysteresis thresholds on the Sobel gradient magnitude
	// of the frame scaled to a maximum of 1.
	Low  float64
	High float64
}

// DefaultCannyOptions mirrors the common defaults: sigma 1, 10% / 20%.
func DefaultCannyOptions() CannyOptions {
	return CannyOptions{Sigma: 1, Low: 0.1, High: 0.2}
}

// Canny detects edges in f and returns them as a mask.
//
// # Algorithm
//
//  1. Scale the frame so its maximum is 1 and smooth it with a Gaussian of
//     the configured sigma
//  2. Sobel gradients, magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//  3. Non-maximum suppression along the quantized gradient direction
//  4. Hysteresis: pixels at or above High seed edges, which grow through
//     8-connected pixels at or above Low
//
// The outermost ring of pixels is never marked.
func Canny(f *Frame, opt CannyOptions) *Mask {
	width, height := f.Width, f.Height
	blurred := GaussianBlur(f.Normalized(), opt.Sigma)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := blurred.At(clamp(x+kx, 0, width-1), clamp(y+ky, 0, height-1))
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	mag := func(x, y int) float64 { return magnitude[y*width+x] }

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			angle := direction[y*width+x]
			m := mag(x, y)
			if m == 0 {
				continue
			}

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = mag(x-1, y), mag(x+1, y)
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = mag(x-1, y-1), mag(x+1, y+1)
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = mag(x, y-1), mag(x, y+1)
			default:
				n1, n2 = mag(x+1, y-1), mag(x-1, y+1)
			}

			if m >= n1 && m >= n2 {
				suppressed[y*width+x] = m
			}
		}
	}

	edges := NewMask(width, height)
	stack := make([]image.Point, 0, 64)
	for i, v := range suppressed {
		if v > 0 && v >= opt.High && !edges.Bits[i] {
			edges.Bits[i] = true
			stack = append(stack, image.Point{X: i % width, Y: i / width})
		}
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if !edges.Bits[j] && suppressed[j] >= opt.Low && suppressed[j] > 0 {
					edges.Bits[j] = true
					stack = append(stack, image.Point{X: nx, Y: ny})
				}
			}
		}
	}
	return edges
}
