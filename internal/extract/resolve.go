package extract

import (
	"image"
	"math"

	"github.com/ironsheep/form-tools-mcp/internal/template"
)

// MMPerInch converts physical template units to inches.
const MMPerInch = 25.4

// Box is a rectangle as [x, y, w, h] in source-image pixels.
type Box [4]int

// BoxFromRect converts r to [x, y, w, h].
func BoxFromRect(r image.Rectangle) Box {
	return Box{r.Min.X, r.Min.Y, r.Dx(), r.Dy()}
}

// Rect converts b to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b[0], b[1], b[0]+b[2], b[1]+b[3])
}

// MMToPixels converts one physical length to pixels, rounding half away
// from zero.
func MMToPixels(mm float64, dpi int) int {
	return int(math.Round(mm * float64(dpi) / MMPerInch))
}

// Resolve turns a template box into a pixel rectangle clamped to an image of
// size w×h. px is used as-is when present; otherwise mm is converted at dpi.
//
// Clamping moves a negative origin to 0 and trims the extent to the image
// edge. A box left with no width or height fails with ErrInvalidBBox, as does
// an mm-only box without a positive dpi or a box with no representation.
func Resolve(bbox template.BBox, dpi int, size image.Point) (image.Rectangle, error) {
	var x, y, w, h int
	switch {
	case bbox.HasPX():
		x, y, w, h = bbox.PX[0], bbox.PX[1], bbox.PX[2], bbox.PX[3]
	case bbox.HasMM():
		if dpi <= 0 {
			return image.Rectangle{}, newError(KindInvalidBBox, "", nil, "mm box requires a positive dpi, got %d", dpi)
		}
		x = MMToPixels(bbox.MM[0], dpi)
		y = MMToPixels(bbox.MM[1], dpi)
		w = MMToPixels(bbox.MM[2], dpi)
		h = MMToPixels(bbox.MM[3], dpi)
	default:
		return image.Rectangle{}, newError(KindInvalidBBox, "", nil, "bbox has neither px nor mm")
	}

	x = max(0, x)
	y = max(0, y)
	w = min(w, size.X-x)
	h = min(h, size.Y-y)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, newError(KindInvalidBBox, "", nil,
			"box is degenerate after clamping to %dx%d: [%d,%d,%d,%d]", size.X, size.Y, x, y, w, h)
	}
	return image.Rect(x, y, x+w, y+h), nil
}
