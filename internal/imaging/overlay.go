package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayBox is one field outline drawn by RenderOverlay.
type OverlayBox struct {
	Label    string
	Rect     image.Rectangle // 0-based image space
	Accepted bool
}

// rejectedColor outlines fields whose reading was rejected.
var rejectedColor = color.RGBA{220, 30, 30, 255}

// RenderOverlay draws every box onto a copy of img with its label above the
// top-left corner. Accepted boxes get a distinct hue each, spread around the
// color wheel by the golden angle so neighbours stay distinguishable;
// rejected boxes are red. The palette is deterministic.
func RenderOverlay(img image.Image, boxes []OverlayBox) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	for i, box := range boxes {
		c := rejectedColor
		thickness := 1
		if box.Accepted {
			c = paletteColor(i)
			thickness = 2
		}
		drawRect(out, box.Rect, c, thickness)
		if box.Label != "" {
			drawLabel(out, box.Rect.Min.X, box.Rect.Min.Y-2, box.Label, color.RGBA{255, 255, 255, 255}, c)
		}
	}
	return out
}

// SaveOverlay writes an overlay to path; the format follows the extension.
func SaveOverlay(path string, img image.Image) error {
	return imaging.Save(img, path)
}

func paletteColor(i int) color.RGBA {
	const goldenAngle = 137.50776405
	hue := math.Mod(float64(i)*goldenAngle, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.85).RGB255()
	return color.RGBA{r, g, b, 255}
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, r.Min.Y+t, c)
			img.SetRGBA(x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(r.Min.X+t, y, c)
			img.SetRGBA(r.Max.X-1-t, y, c)
		}
	}
}

// drawLabel renders text on a filled background with its baseline at y.
// Labels that would leave the image are shifted back inside.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()

	bounds := img.Bounds()
	if y-ascent < bounds.Min.Y {
		y = bounds.Min.Y + ascent
	}
	if x+width > bounds.Max.X {
		x = bounds.Max.X - width
	}
	if x < bounds.Min.X {
		x = bounds.Min.X
	}

	bgRect := image.Rect(x-1, y-ascent-1, x+width+1, y+descent)
	draw.Draw(img, bgRect.Intersect(bounds), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
