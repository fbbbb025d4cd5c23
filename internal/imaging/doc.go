// Package imaging provides the frame model and low-level image operations
// used by the particle detectors.
//
// A Frame holds float64 intensities at the native depth of the source file,
// so 16-bit microscopy data keeps its full range through blurring, median
// filtering and background subtraction. Masks carry binary results such as
// thresholded frames and Canny edge maps.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: column, increasing rightward
//   - Y: row, increasing downward
//   - For rectangles, Min is inclusive and Max is exclusive
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. Frames handed out by the cache are
// shared and must not be modified; every operation in this package returns a
// new Frame rather than writing into its input.
//
// # Preprocessing
//
// Preprocess bundles the optional conditioning steps applied to each frame
// before detection: software binning, median filtering, subtraction of the
// series mean frame and cropping to a region of interest.
package imaging
