package imaging

import (
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (8/16-bit microscopy stacks)
)

// FrameCache provides thread-safe caching of decoded frames keyed by path.
//
// Once a file is decoded, subsequent Load calls for the same path return the
// cached Frame without disk I/O. Callers must treat returned frames as
// read-only; detectors copy before mutating.
//
// When capacity is positive the cache holds at most that many frames and
// evicts the oldest entry first. A capacity of zero means unbounded.
type FrameCache struct {
	mu       sync.RWMutex
	frames   map[string]cachedFrame
	order    []string
	capacity int
}

type cachedFrame struct {
	frame *Frame
	depth int
}

// NewFrameCache creates an empty cache holding at most capacity frames.
func NewFrameCache(capacity int) *FrameCache {
	if capacity < 0 {
		capacity = 0
	}
	return &FrameCache{
		frames:   make(map[string]cachedFrame),
		capacity: capacity,
	}
}

// Load returns the frame for path, decoding it on first access.
//
// Supported formats are PNG, JPEG, GIF, BMP and TIFF. For multi-page TIFF
// files only the first page is read.
func (c *FrameCache) Load(path string) (*Frame, error) {
	f, _, err := c.load(path)
	return f, err
}

func (c *FrameCache) load(path string) (*Frame, int, error) {
	c.mu.RLock()
	if e, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return e.frame, e.depth, nil
	}
	c.mu.RUnlock()

	img, err := DecodeFile(path)
	if err != nil {
		return nil, 0, err
	}
	e := cachedFrame{frame: FromImage(img), depth: bitDepth(img)}

	c.mu.Lock()
	if _, ok := c.frames[path]; !ok {
		c.order = append(c.order, path)
	}
	c.frames[path] = e
	for c.capacity > 0 && len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.frames, oldest)
	}
	c.mu.Unlock()

	return e.frame, e.depth, nil
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Clear removes every cached frame.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]cachedFrame)
	c.order = nil
	c.mu.Unlock()
}

// Evict removes path from the cache. Unknown paths are ignored.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.frames[path]; !ok {
		return
	}
	delete(c.frames, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// DecodeFile opens and decodes an image file.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode image %s", filepath.Base(path))
	}
	return img, nil
}

// FrameInfo describes a loaded frame file.
type FrameInfo struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Format        string  `json:"format"`
	BitDepth      int     `json:"bit_depth"`
	MinIntensity  float64 `json:"min_intensity"`
	MaxIntensity  float64 `json:"max_intensity"`
	MeanIntensity float64 `json:"mean_intensity"`
	FileSizeBytes int64   `json:"file_size_bytes"`
}

// LoadFrameInfo loads path through the cache and reports its metadata.
// The format is derived from the file extension.
func LoadFrameInfo(cache *FrameCache, path string) (*FrameInfo, error) {
	f, depth, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "stat file")
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	case ".tif", ".tiff":
		format = "tiff"
	}

	return &FrameInfo{
		Width:         f.Width,
		Height:        f.Height,
		Format:        format,
		BitDepth:      depth,
		MinIntensity:  f.Min(),
		MaxIntensity:  f.Max(),
		MeanIntensity: f.Sum() / float64(len(f.Pix)),
		FileSizeBytes: stat.Size(),
	}, nil
}

// bitDepth reports 16 for 16-bit-per-channel images and 8 otherwise.
func bitDepth(img image.Image) int {
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return 16
	}
	return 8
}
