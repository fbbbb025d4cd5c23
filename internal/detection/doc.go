// Package detection implements the building blocks of the particle
// detectors: connected-region labeling and measurement, shape gating,
// orientation estimation for asymmetric particles, separation of touching
// pairs and scale-space blob search.
//
// # Region Statistics
//
// Components labels 8-connected foreground pixels and measures every region
// against the intensity frame: area, plain and intensity-weighted centroids,
// the equivalent ellipse (orientation, axis lengths, eccentricity), bounding
// box, intensity extremes, equivalent diameter and filled area. Regions are
// ordered by the row-major position of their first pixel, so repeated runs on
// the same frame produce the same sequence.
//
// # Coordinate System
//
//   - Origin (0, 0) at the top-left corner
//   - x is the column and grows rightward
//   - y is the row and grows downward
//   - Region.Orientation is measured from the row axis, in [-π/2, π/2]
//   - Estimator angles use atan2(dy, dx) in image coordinates, in (-π, π]
//
// # Blob Search
//
//   - DoG: difference-of-Gaussians scale space with overlap pruning
//   - HoughCircles: Canny edges voted into per-radius accumulators
//
// All functions treat their input frames as read-only and return new
// frames or masks.
package detection
