package imaging

import (
	"math"
	"testing"
)

func TestResize(t *testing.T) {
	t.Run("constant frame stays constant", func(t *testing.T) {
		f := NewFrame(7, 5)
		for i := range f.Pix {
			f.Pix[i] = 42
		}
		out := Resize(f, 16, 16)
		if out.Width != 16 || out.Height != 16 {
			t.Fatalf("size %dx%d, want 16x16", out.Width, out.Height)
		}
		for i, v := range out.Pix {
			if math.Abs(v-42) > 1e-9 {
				t.Fatalf("pixel %d = %v, want 42", i, v)
			}
		}
	})

	t.Run("upsampling interpolates between centres", func(t *testing.T) {
		f := NewFrame(2, 1)
		f.Set(0, 0, 0)
		f.Set(1, 0, 100)
		out := Resize(f, 4, 1)
		want := []float64{0, 25, 75, 100}
		for x, w := range want {
			if math.Abs(out.At(x, 0)-w) > 1e-9 {
				t.Errorf("At(%d,0) = %v, want %v", x, out.At(x, 0), w)
			}
		}
	})

	t.Run("downsampling averages neighbours", func(t *testing.T) {
		f := NewFrame(4, 4)
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				f.Set(x, y, float64(10*x))
			}
		}
		out := Resize(f, 2, 2)
		if math.Abs(out.At(0, 0)-5) > 1e-9 || math.Abs(out.At(1, 1)-25) > 1e-9 {
			t.Errorf("got %v, %v; want 5, 25", out.At(0, 0), out.At(1, 1))
		}
	})

	t.Run("same size copies", func(t *testing.T) {
		f := NewFrame(3, 3)
		f.Set(1, 1, 9)
		out := Resize(f, 3, 3)
		out.Set(1, 1, 0)
		if f.At(1, 1) != 9 {
			t.Error("Resize aliased its input")
		}
	})

	t.Run("empty target", func(t *testing.T) {
		if out := Resize(NewFrame(3, 3), 0, 4); len(out.Pix) != 0 {
			t.Errorf("got %d pixels, want 0", len(out.Pix))
		}
	})
}
