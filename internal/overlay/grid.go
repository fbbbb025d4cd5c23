package overlay

import (
	"image"
	"image/color"
	"strconv"
)

var (
	gridColor  = color.RGBA{R: 255, G: 255, B: 0, A: 96}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelBG    = color.RGBA{R: 0, G: 0, B: 0, A: 180}
)

// drawGrid draws lines every spacing frame pixels and labels each crossing
// with its frame coordinates.
func drawGrid(img *image.RGBA, spacing int, scale float64, origin image.Point) {
	b := img.Bounds()
	step := float64(spacing) * scale
	if step < 1 {
		return
	}

	for k := 1; ; k++ {
		x := int(float64(k) * step)
		if x >= b.Dx() {
			break
		}
		for y := 0; y < b.Dy(); y++ {
			blend(img, x, y, gridColor)
		}
	}
	for k := 1; ; k++ {
		y := int(float64(k) * step)
		if y >= b.Dy() {
			break
		}
		for x := 0; x < b.Dx(); x++ {
			blend(img, x, y, gridColor)
		}
	}

	for ky := 1; int(float64(ky)*step) < b.Dy(); ky++ {
		for kx := 1; int(float64(kx)*step) < b.Dx(); kx++ {
			label := strconv.Itoa(origin.X+kx*spacing) + "," + strconv.Itoa(origin.Y+ky*spacing)
			drawLabel(img, int(float64(kx)*step)+2, int(float64(ky)*step)+2, label)
		}
	}
}

// glyphs is a 3x5 pixel font covering digits and the comma.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

// drawLabel writes text with its top-left corner at (x, y) on a dark box.
func drawLabel(img *image.RGBA, x, y int, text string) {
	const charWidth, labelHeight = 4, 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < len(text)*charWidth; dx++ {
			blend(img, x+dx, y+dy, labelBG)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, px := range line {
					if px == '1' {
						blend(img, cx+col, y+row, labelColor)
					}
				}
			}
		}
		cx += charWidth
	}
}
