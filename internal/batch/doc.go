// Package batch runs one detector over a sequence of frames and exports the
// resulting feature table.
//
// Frames are processed sequentially. Each frame is optionally preprocessed
// (software binning, median filter, subtraction of the series mean frame,
// region of interest) before detection. A frame that fails to load or
// detect is logged and recorded in the report; the run continues with the
// next frame. Cancellation is checked between frames.
//
// WriteCSV writes the report as '#'-prefixed metadata lines followed by a
// header row and one row per feature.
package batch
