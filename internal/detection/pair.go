package detection

import (
	"math"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
)

// Separate splits patch along the line through pivot whose normal is
// (sin angle, cos angle) in (x, y). Pixels on the positive side go to a, the
// rest to b, so a + b equals patch and a*b is zero everywhere.
//
// pivot is given as (x, y) = (column, row) in patch coordinates. Passing a
// region's orientation as angle cuts across its major axis.
func Separate(patch *imaging.Frame, pivotX, pivotY, angle float64) (a, b *imaging.Frame) {
	sin, cos := math.Sincos(angle)
	a = patch.Clone()
	b = imaging.NewFrame(patch.Width, patch.Height)
	for row := 0; row < patch.Height; row++ {
		for col := 0; col < patch.Width; col++ {
			if sin*(float64(col)-pivotX)+cos*(float64(row)-pivotY) > 0 {
				continue
			}
			i := row*patch.Width + col
			b.Pix[i] = a.Pix[i]
			a.Pix[i] = 0
		}
	}
	return a, b
}
