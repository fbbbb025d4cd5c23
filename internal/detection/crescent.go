package detection

import (
	"math"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const crescentBins = 10

// CrescentWidth measures how far the bright cap of a Janus particle wraps
// around it. The disk inscribed in patch is split into ten angular sectors
// about the patch centre; the result is the fraction of sectors whose mean
// intensity exceeds ratio times the brightest sector mean. Empty sectors
// count as zero intensity.
func CrescentWidth(patch *imaging.Frame, ratio float64) float64 {
	edges := floats.Span(make([]float64, crescentBins+1), -math.Pi, math.Pi)
	bins := make([][]float64, crescentBins)

	cx, cy := float64(patch.Width)/2, float64(patch.Height)/2
	radius := float64(patch.Width+patch.Height) / 4
	for row := 0; row < patch.Height; row++ {
		for col := 0; col < patch.Width; col++ {
			dx, dy := float64(col)-cx, float64(row)-cy
			if math.Hypot(dx, dy) >= radius {
				continue
			}
			theta := math.Atan2(dx, dy)
			for i := 0; i < crescentBins; i++ {
				if theta > edges[i] && theta < edges[i+1] {
					bins[i] = append(bins[i], patch.At(col, row))
					break
				}
			}
		}
	}

	means := make([]float64, crescentBins)
	for i, b := range bins {
		if len(b) > 0 {
			means[i] = stat.Mean(b, nil)
		}
	}
	cut := ratio * floats.Max(means)
	bright := 0
	for _, m := range means {
		if m > cut {
			bright++
		}
	}
	return float64(bright) / crescentBins
}
