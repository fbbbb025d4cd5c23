package overlay

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	dimaging "github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
)

// RenderOptions controls rasterization.
type RenderOptions struct {
	// Scale resizes the (cropped) frame before drawing; zero means 1.
	Scale float64 `json:"scale" validate:"gte=0,lte=16"`
	// Color is a hex colour (#rrggbb or #rrggbbaa) used for every primitive.
	// Empty picks a distinct colour per feature.
	Color string `json:"color,omitempty"`
	// Region crops the frame before scaling.
	Region *imaging.ROI `json:"region,omitempty"`
	// Grid draws labelled grid lines every Grid frame pixels when positive.
	Grid int `json:"grid,omitempty" validate:"gte=0"`
}

// Rendered is an encoded overlay image.
type Rendered struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Draw rasterizes f (stretched to 8 bits) and prims onto a new RGBA canvas.
func Draw(f *imaging.Frame, prims []Primitive, opt RenderOptions) (*image.RGBA, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	scale := opt.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 0 {
		return nil, errors.Errorf("invalid scale %g", scale)
	}

	var src image.Image = f.ToGray()
	var origin image.Point
	if opt.Region != nil {
		r := opt.Region.Rect().Intersect(f.Bounds())
		if r.Empty() {
			return nil, errors.Errorf("region %v outside frame bounds %v", opt.Region.Rect(), f.Bounds())
		}
		src = dimaging.Crop(src, r)
		origin = r.Min
	}
	if scale != 1 {
		w := int(float64(src.Bounds().Dx()) * scale)
		h := int(float64(src.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, errors.Errorf("scale %g leaves an empty image", scale)
		}
		src = dimaging.Resize(src, w, h, dimaging.NearestNeighbor)
	}
	canvas := clone.AsRGBA(src)

	var fixed *color.RGBA
	if opt.Color != "" {
		c, err := parseColor(opt.Color)
		if err != nil {
			return nil, err
		}
		fixed = &c
	}

	project := func(p Point) image.Point {
		return image.Point{
			X: int(math.Round((p.X-float64(origin.X)+0.5)*scale - 0.5)),
			Y: int(math.Round((p.Y-float64(origin.Y)+0.5)*scale - 0.5)),
		}
	}
	for _, p := range prims {
		c := featureColor(p.Feature)
		if fixed != nil {
			c = *fixed
		}
		drawPrimitive(canvas, p, project, c)
	}

	if opt.Grid > 0 {
		drawGrid(canvas, opt.Grid, scale, origin)
	}
	return canvas, nil
}

// Render draws f and prims and returns the PNG as base64.
func Render(f *imaging.Frame, prims []Primitive, opt RenderOptions) (*Rendered, error) {
	canvas, err := Draw(f, prims, opt)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, canvas); err != nil {
		return nil, errors.Wrap(err, "encode overlay")
	}
	return &Rendered{
		Width:       canvas.Bounds().Dx(),
		Height:      canvas.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Save draws f and prims and writes the result as a PNG file.
func Save(path string, f *imaging.Frame, prims []Primitive, opt RenderOptions) error {
	canvas, err := Draw(f, prims, opt)
	if err != nil {
		return err
	}
	return errors.Wrapf(imgio.Save(path, canvas, imgio.PNGEncoder()), "save overlay %s", path)
}

// parseColor accepts #rrggbb, #rgb and #rrggbbaa.
func parseColor(s string) (color.RGBA, error) {
	hex := strings.TrimSpace(s)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	alpha := uint8(255)
	if len(hex) == 9 {
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, errors.Wrapf(err, "invalid colour %q", s)
		}
		alpha = uint8(a)
		hex = hex[:7]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "invalid colour %q", s)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

// featureColor spreads hues by the golden angle so neighbouring features
// differ.
func featureColor(i int) color.RGBA {
	hue := math.Mod(float64(i)*137.508, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 1).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func drawPrimitive(img *image.RGBA, p Primitive, project func(Point) image.Point, c color.RGBA) {
	switch {
	case len(p.Points) == 1:
		q := project(p.Points[0])
		blend(img, q.X, q.Y, c)
	case len(p.Connect) == len(p.Points):
		for i := 0; i < len(p.Points)-1; i++ {
			if p.Connect[i] {
				drawLine(img, project(p.Points[i]), project(p.Points[i+1]), c)
			}
		}
	default:
		for i := 0; i < len(p.Points)-1; i++ {
			drawLine(img, project(p.Points[i]), project(p.Points[i+1]), c)
		}
	}
}

// drawLine walks from a to b one pixel per step along the longer axis.
func drawLine(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		blend(img, a.X, a.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(float64(a.X) + t*float64(dx)))
		y := int(math.Round(float64(a.Y) + t*float64(dy)))
		blend(img, x, y, c)
	}
}

// blend composites c over the pixel at (x, y); points off the canvas are
// ignored.
func blend(img *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	if c.A == 255 {
		img.SetRGBA(x, y, c)
		return
	}
	dst := img.RGBAAt(x, y)
	a := uint32(c.A)
	mix := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a)) / 255)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: mix(c.R, dst.R),
		G: mix(c.G, dst.G),
		B: mix(c.B, dst.B),
		A: 255,
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
