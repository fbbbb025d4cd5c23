// Package overlay turns detected features into drawable primitives and
// renders them on top of a frame.
//
// Build is pure geometry: it maps each tracker.Feature to outline polylines,
// axis segments and orientation markers in frame coordinates (X column, Y
// row). Render rasterizes a frame and a primitive list into a PNG, with
// optional cropping, scaling and a coordinate grid.
//
// # Outline sampling
//
// Ellipses and circles are sampled at 25 points over [0, 2π]; the first and
// last point coincide. Connect[i] tells whether point i joins point i+1 and
// is false only for the last point.
package overlay
