package imaging

import "testing"

func TestBin(t *testing.T) {
	f := NewFrame(5, 4)
	for i := range f.Pix {
		f.Pix[i] = float64(i)
	}

	b := Bin(f, 2)
	if b.Width != 2 || b.Height != 2 {
		t.Fatalf("binned size %dx%d, want 2x2", b.Width, b.Height)
	}
	// top-left block: 0, 1, 5, 6
	if b.At(0, 0) != 3 {
		t.Errorf("At(0,0) = %v, want 3", b.At(0, 0))
	}
	// bottom-right block: 12, 13, 17, 18
	if b.At(1, 1) != 15 {
		t.Errorf("At(1,1) = %v, want 15", b.At(1, 1))
	}
}

func TestMedianRemovesHotPixel(t *testing.T) {
	f := NewFrame(7, 7)
	for i := range f.Pix {
		f.Pix[i] = 10
	}
	f.Set(3, 3, 5000)

	m := Median(f, 3)
	if m.At(3, 3) != 10 {
		t.Errorf("hot pixel survived: %v", m.At(3, 3))
	}
	if f.At(3, 3) != 5000 {
		t.Error("Median modified its input")
	}
}

func TestSubtractBackgroundClips(t *testing.T) {
	f := &Frame{Width: 2, Height: 1, Pix: []float64{5, 20}}
	bg := &Frame{Width: 2, Height: 1, Pix: []float64{10, 10}}

	d, err := SubtractBackground(f, bg)
	if err != nil {
		t.Fatal(err)
	}
	if d.Pix[0] != 0 || d.Pix[1] != 10 {
		t.Errorf("got %v, want [0 10]", d.Pix)
	}

	if _, err := SubtractBackground(f, NewFrame(3, 1)); err == nil {
		t.Error("expected a size mismatch error")
	}
}

func TestMeanFrame(t *testing.T) {
	a := &Frame{Width: 2, Height: 1, Pix: []float64{2, 4}}
	b := &Frame{Width: 2, Height: 1, Pix: []float64{4, 8}}

	m, err := MeanFrame([]*Frame{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if m.Pix[0] != 3 || m.Pix[1] != 6 {
		t.Errorf("mean = %v", m.Pix)
	}
	if _, err := MeanFrame(nil); err == nil {
		t.Error("expected an error for no frames")
	}
	if _, err := MeanFrame([]*Frame{a, NewFrame(1, 1)}); err == nil {
		t.Error("expected an error for mismatched frames")
	}
}

func TestPreprocessApply(t *testing.T) {
	f := NewFrame(8, 8)
	for i := range f.Pix {
		f.Pix[i] = 4
	}

	t.Run("inactive returns a copy", func(t *testing.T) {
		p := Preprocess{}
		if p.Active() {
			t.Fatal("zero value should be inactive")
		}
		out, err := p.Apply(f, nil)
		if err != nil {
			t.Fatal(err)
		}
		if out == f {
			t.Error("Apply must not return the caller's frame")
		}
	})

	t.Run("binning then roi", func(t *testing.T) {
		p := Preprocess{Binning: 2, ROI: &ROI{X: 1, Y: 1, W: 2, H: 2}}
		out, err := p.Apply(f, nil)
		if err != nil {
			t.Fatal(err)
		}
		if out.Width != 2 || out.Height != 2 || out.At(0, 0) != 4 {
			t.Errorf("got %dx%d value %v", out.Width, out.Height, out.At(0, 0))
		}
	})

	t.Run("subtract mean needs background", func(t *testing.T) {
		if _, err := (Preprocess{SubtractMean: true}).Apply(f, nil); err == nil {
			t.Error("expected an error without a background frame")
		}
		bg := NewFrame(8, 8)
		for i := range bg.Pix {
			bg.Pix[i] = 1
		}
		out, err := (Preprocess{SubtractMean: true}).Apply(f, bg)
		if err != nil {
			t.Fatal(err)
		}
		if out.At(0, 0) != 3 {
			t.Errorf("At(0,0) = %v, want 3", out.At(0, 0))
		}
	})

	t.Run("roi outside frame", func(t *testing.T) {
		p := Preprocess{ROI: &ROI{X: 20, Y: 20, W: 4, H: 4}}
		if _, err := p.Apply(f, nil); err == nil {
			t.Error("expected an error for an ROI outside the frame")
		}
	})
}
