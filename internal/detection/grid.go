package detection

import (
	"image"
)

const (
	// RulingFraction is the share of a column (or row) that must be ink for
	// it to count as a ruling line.
	RulingFraction = 0.8

	// DefaultMinCell is the narrowest span kept as a cell.
	DefaultMinCell = 4

	inkLevel = 128
)

// SegmentGrid splits a binarized box_grid region into its character cells.
//
// Vertical ruling lines are located by column ink projection; the spans
// between consecutive rulings become cells, left to right. Full-width
// horizontal rulings at the top and bottom edges are trimmed from every
// cell. Spans narrower than minCell are dropped. When no vertical ruling is
// found, or nothing usable remains, the whole region is returned as a single
// cell. Rectangles are in bin's coordinate space.
func SegmentGrid(bin *image.Gray, minCell int) []image.Rectangle {
	bounds := bin.Bounds()
	if bounds.Empty() {
		return nil
	}
	if minCell <= 0 {
		minCell = DefaultMinCell
	}

	width, height := bounds.Dx(), bounds.Dy()
	cols := make([]int, width)
	rows := make([]int, height)
	for y := 0; y < height; y++ {
		off := y * bin.Stride
		for x := 0; x < width; x++ {
			if bin.Pix[off+x] < inkLevel {
				cols[x]++
				rows[y]++
			}
		}
	}

	colRuling := rulings(cols, height)
	rowRuling := rulings(rows, width)

	top, bottom := 0, height
	for top < height && rowRuling[top] {
		top++
	}
	for bottom > top && rowRuling[bottom-1] {
		bottom--
	}

	whole := []image.Rectangle{bounds}
	if !anyTrue(colRuling) || bottom-top <= 0 {
		return whole
	}

	var cells []image.Rectangle
	start := -1
	for x := 0; x <= width; x++ {
		ruled := x == width || colRuling[x]
		switch {
		case !ruled && start < 0:
			start = x
		case ruled && start >= 0:
			if x-start >= minCell {
				cells = append(cells, image.Rect(
					bounds.Min.X+start, bounds.Min.Y+top,
					bounds.Min.X+x, bounds.Min.Y+bottom,
				))
			}
			start = -1
		}
	}

	if len(cells) == 0 {
		return whole
	}
	return cells
}

func rulings(counts []int, span int) []bool {
	need := int(float64(span)*RulingFraction + 0.5)
	if need < 1 {
		need = 1
	}
	out := make([]bool, len(counts))
	for i, n := range counts {
		out[i] = n >= need
	}
	return out
}

func anyTrue(v []bool) bool {
	for _, b := range v {
		if b {
			return true
		}
	}
	return false
}
