package imaging

import "math"

// gaussTruncate is the kernel half-width in standard deviations.
const gaussTruncate = 4.0

// GaussianKernel returns a normalized 1-D Gaussian kernel with radius
// int(4*sigma + 0.5). A non-positive sigma yields the identity kernel.
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(gaussTruncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		k[i+radius] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianBlur smooths f with a separable Gaussian of the given sigma.
// Borders use half-sample symmetric reflection (d c b a | a b c d).
func GaussianBlur(f *Frame, sigma float64) *Frame {
	k := GaussianKernel(sigma)
	if len(k) == 1 {
		return f.Clone()
	}
	r := len(k) / 2

	tmp := NewFrame(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Width : (y+1)*f.Width]
		for x := 0; x < f.Width; x++ {
			var acc float64
			for i, w := range k {
				acc += w * row[reflect(x+i-r, f.Width)]
			}
			tmp.Pix[y*f.Width+x] = acc
		}
	}

	out := NewFrame(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			var acc float64
			for i, w := range k {
				acc += w * tmp.Pix[reflect(y+i-r, f.Height)*f.Width+x]
			}
			out.Pix[y*f.Width+x] = acc
		}
	}
	return out
}

// reflect maps an out-of-range index back into [0, n) by mirroring about the
// outer pixel edges.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// clamp constrains val to [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
