// Package detection finds layout structure inside conditioned form regions.
//
// SegmentGrid splits a box_grid field (one character per printed box) into
// its cells by projecting ink onto the X and Y axes and treating columns
// that are mostly ink as ruling lines.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Cells are returned in the coordinate space of the image passed in, so a
// SubImage yields rectangles in the parent's coordinates.
package detection
