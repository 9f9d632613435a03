package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
)

// MinRegionSide is the smallest width and height Condition accepts.
const MinRegionSide = 2

// ErrRegionTooSmall is returned by Condition for regions below MinRegionSide.
var ErrRegionTooSmall = errors.New("region too small")

// DenoiseRadius is the median filter radius used by Condition. A radius of
// one is a 3x3 window: isolated specks vanish, strokes two or more pixels
// wide survive.
const DenoiseRadius = 1.0

// Conditioned is the output of Condition.
type Conditioned struct {
	// Image is the binarized, denoised region: every pixel is 0 or 255.
	Image *image.Gray
	// Threshold is the Otsu level chosen for binarization. Pixels at or
	// above it became white.
	Threshold uint8
}

// Condition prepares a cropped field region for recognition:
//
//  1. reduce to single-channel intensity
//  2. binarize with a global Otsu threshold taken from the region histogram
//  3. remove speckle with a median filter
//
// The result is a pure function of the input pixels. Near-uniform regions are
// handled without error: they come out all white or all black. The input is
// never modified.
func Condition(region image.Image) (*Conditioned, error) {
	b := region.Bounds()
	if b.Dx() < MinRegionSide || b.Dy() < MinRegionSide {
		return nil, fmt.Errorf("%w: %dx%d (minimum %dx%d)",
			ErrRegionTooSmall, b.Dx(), b.Dy(), MinRegionSide, MinRegionSide)
	}

	gray := effect.Grayscale(region)

	level := OtsuLevel(gray)
	binary := binarize(gray, level)

	denoised := effect.Median(binary, DenoiseRadius)

	return &Conditioned{
		Image:     requantize(denoised),
		Threshold: level,
	}, nil
}

// OtsuLevel returns the lowest intensity of the bright class: the level that
// splits the image's intensity histogram into two classes with maximum between-class
// variance. When the histogram has a single populated bin there is nothing
// to separate and the midpoint 128 is returned, so bright uniform regions
// stay white and dark ones stay black.
func OtsuLevel(img image.Image) uint8 {
	hist := histogram.NewRGBAHistogram(img)
	bins := hist.R.Bins

	total := 0
	var sum float64
	populated := 0
	for i, n := range bins {
		total += n
		sum += float64(i) * float64(n)
		if n > 0 {
			populated++
		}
	}
	if total == 0 || populated < 2 {
		return 128
	}

	var (
		sumB        float64
		wB          int
		maxVariance float64
		best        int
	)
	for t, n := range bins {
		wB += n
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}

		sumB += float64(t) * float64(n)
		meanB := sumB / float64(wB)
		meanF := (sum - sumB) / float64(wF)

		variance := float64(wB) * float64(wF) * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			best = t
		}
	}

	// Bins up to and including best are background.
	return uint8(best + 1)
}

// binarize maps pixels at or above level to white and the rest to black.
// img is the output of effect.Grayscale, so the red channel is the intensity.
// segment.Threshold truncates its luminance sum and would lose the lowest
// bright bin on some levels.
func binarize(img *image.RGBA, level uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if row[x*4] >= level {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// requantize maps an image back onto pure black and white.
func requantize(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if g.Y >= 128 {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
