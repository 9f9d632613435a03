package imaging

import (
	"image"
	"image/color"
	"testing"
)

func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage returns red, green, blue and white quadrants.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCropRegion(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, err := CropRegion(img, image.Rect(50, 0, 100, 30))
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}

	b := cropped.Bounds()
	if b.Min != (image.Point{}) {
		t.Errorf("bounds origin: got %v, want (0,0)", b.Min)
	}
	if b.Dx() != 50 || b.Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 50x30", b.Dx(), b.Dy())
	}

	r, g, bl, _ := cropped.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 255 || bl>>8 != 0 {
		t.Errorf("cropped color: got (%d,%d,%d), want green", r>>8, g>>8, bl>>8)
	}
}

func TestCropRegion_OffsetBounds(t *testing.T) {
	// SubImage keeps the parent's coordinates; CropRegion works in 0-based space.
	parent := createPatternImage(100, 100)
	sub := parent.SubImage(image.Rect(50, 50, 100, 100))

	cropped, err := CropRegion(sub, image.Rect(0, 0, 10, 10))
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	r, g, b, _ := cropped.At(5, 5).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("cropped color: got (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestCropRegion_DoesNotAlias(t *testing.T) {
	img := createInMemoryImage(20, 20, color.White)

	cropped, err := CropRegion(img, image.Rect(0, 0, 10, 10))
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	cropped.Set(0, 0, color.Black)

	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 255 {
		t.Error("modifying the crop changed the source image")
	}
}

func TestCropRegion_Invalid(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name string
		rect image.Rectangle
	}{
		{"x negative", image.Rect(-1, 0, 50, 50)},
		{"y negative", image.Rect(0, -1, 50, 50)},
		{"x too large", image.Rect(0, 0, 101, 50)},
		{"y too large", image.Rect(0, 0, 50, 101)},
		{"zero width", image.Rect(50, 0, 50, 50)},
		{"zero area", image.Rect(50, 50, 50, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CropRegion(img, tt.rect); err == nil {
				t.Error("CropRegion should fail")
			}
		})
	}
}
