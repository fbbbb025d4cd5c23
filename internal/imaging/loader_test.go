package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/tiff"
)

// writeGrayPNG writes an 8-bit grayscale PNG whose pixel (x, y) has value fn(x, y).
func writeGrayPNG(t *testing.T, dir string, width, height int, fn func(x, y int) uint8) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: fn(x, y)})
		}
	}
	path := filepath.Join(dir, "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// writeGray16TIFF writes a 16-bit grayscale TIFF.
func writeGray16TIFF(t *testing.T, dir string, width, height int, fn func(x, y int) uint16) string {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: fn(x, y)})
		}
	}
	path := filepath.Join(dir, "frame.tif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("failed to encode tiff: %v", err)
	}
	return path
}

func TestFrameCache_Load(t *testing.T) {
	cache := NewFrameCache(0)
	path := writeGrayPNG(t, t.TempDir(), 40, 30, func(x, y int) uint8 { return uint8(x + y) })

	f1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f1.Width != 40 || f1.Height != 30 {
		t.Errorf("unexpected dimensions: got %dx%d, want 40x30", f1.Width, f1.Height)
	}
	if got := f1.At(5, 7); got != 12 {
		t.Errorf("At(5,7) = %v, want 12", got)
	}

	f2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if f1 != f2 {
		t.Error("second Load did not return the cached frame")
	}
}

func TestFrameCache_Load16BitTIFF(t *testing.T) {
	cache := NewFrameCache(0)
	path := writeGray16TIFF(t, t.TempDir(), 16, 8, func(x, y int) uint16 { return uint16(1000 * x) })

	info, err := LoadFrameInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadFrameInfo failed: %v", err)
	}
	if info.Format != "tiff" {
		t.Errorf("Format = %s, want tiff", info.Format)
	}
	if info.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", info.BitDepth)
	}
	if info.MaxIntensity != 15000 {
		t.Errorf("MaxIntensity = %v, want 15000 (native depth preserved)", info.MaxIntensity)
	}
	if info.MinIntensity != 0 {
		t.Errorf("MinIntensity = %v, want 0", info.MinIntensity)
	}
}

func TestFrameCache_Load16BitColourPNG(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := uint16(10000 * x)
			img.SetRGBA64(x, y, color.RGBA64{R: v, G: v, B: v, A: 0xffff})
		}
	}
	path := filepath.Join(t.TempDir(), "rgb16.png")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := png.Encode(out, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	out.Close()

	info, err := LoadFrameInfo(NewFrameCache(0), path)
	if err != nil {
		t.Fatalf("LoadFrameInfo failed: %v", err)
	}
	if info.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", info.BitDepth)
	}
	if info.MaxIntensity != 30000 {
		t.Errorf("MaxIntensity = %v, want 30000 (reported depth matches the data)", info.MaxIntensity)
	}
}

func TestFrameCache_LoadErrors(t *testing.T) {
	cache := NewFrameCache(0)
	if _, err := cache.Load("/nonexistent/path/to/frame.png"); err == nil {
		t.Error("Load should fail for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(bad); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestFrameCache_CapacityEvictsOldest(t *testing.T) {
	cache := NewFrameCache(2)
	var paths []string
	for i := 0; i < 3; i++ {
		dir := t.TempDir()
		v := uint8(i * 10)
		paths = append(paths, writeGrayPNG(t, dir, 4, 4, func(x, y int) uint8 { return v }))
	}
	for _, p := range paths {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}
	cache.mu.RLock()
	_, first := cache.frames[paths[0]]
	_, last := cache.frames[paths[2]]
	cache.mu.RUnlock()
	if first {
		t.Error("oldest frame should have been evicted")
	}
	if !last {
		t.Error("newest frame should be cached")
	}
}

func TestFrameCache_EvictAndClear(t *testing.T) {
	cache := NewFrameCache(0)
	path := writeGrayPNG(t, t.TempDir(), 8, 8, func(x, y int) uint8 { return 1 })
	if _, err := cache.Load(path); err != nil {
		t.Fatal(err)
	}

	cache.Evict("/nonexistent/path")
	if cache.Len() != 1 {
		t.Fatalf("Evict of an unknown path changed the cache")
	}
	cache.Evict(path)
	if cache.Len() != 0 {
		t.Error("Evict did not remove the frame")
	}

	if _, err := cache.Load(path); err != nil {
		t.Fatal(err)
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Error("Clear did not empty the cache")
	}
}

func TestFrameCache_ConcurrentAccess(t *testing.T) {
	cache := NewFrameCache(0)
	path := writeGrayPNG(t, t.TempDir(), 50, 50, func(x, y int) uint8 { return 128 })

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}
