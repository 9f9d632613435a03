package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropRegion extracts rect from img. The rectangle is expressed in 0-based
// image space (the top-left pixel is (0,0) whatever img.Bounds().Min is) and
// must lie fully inside the image and have a positive area; callers resolve
// and clamp field boxes before cropping.
//
// The returned image is a fresh *image.NRGBA whose bounds start at (0,0);
// it shares no memory with img.
func CropRegion(img image.Image, rect image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if rect.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: x1 must be < x2, y1 must be < y2", rect)
	}
	if rect.Min.X < 0 || rect.Min.Y < 0 || rect.Max.X > width || rect.Max.Y > height {
		return nil, fmt.Errorf("crop region %v outside image bounds %dx%d", rect, width, height)
	}

	return imaging.Crop(img, rect.Add(bounds.Min)), nil
}
