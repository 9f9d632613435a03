package detection

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridImage draws a white region with a 1px border and vertical rulings at
// the given x positions.
func gridImage(width, height int, rulingsAt ...int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for x := 0; x < width; x++ {
		img.Pix[x] = 0
		img.Pix[(height-1)*img.Stride+x] = 0
	}
	for _, rx := range rulingsAt {
		for y := 0; y < height; y++ {
			img.Pix[y*img.Stride+rx] = 0
		}
	}
	return img
}

func TestSegmentGrid(t *testing.T) {
	// Outer border columns plus two inner rulings: three cells.
	img := gridImage(40, 12, 0, 13, 26, 39)

	cells := SegmentGrid(img, 4)
	require.Len(t, cells, 3)
	assert.Equal(t, image.Rect(1, 1, 13, 11), cells[0])
	assert.Equal(t, image.Rect(14, 1, 26, 11), cells[1])
	assert.Equal(t, image.Rect(27, 1, 39, 11), cells[2])
}

func TestSegmentGrid_NoRulings(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 30, 10))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	// A short glyph stroke is not a ruling.
	for y := 3; y < 6; y++ {
		img.Pix[y*img.Stride+10] = 0
	}

	cells := SegmentGrid(img, 4)
	require.Len(t, cells, 1)
	assert.Equal(t, img.Bounds(), cells[0])
}

func TestSegmentGrid_DropsNarrowSpans(t *testing.T) {
	img := gridImage(30, 10, 0, 2, 15, 29)

	cells := SegmentGrid(img, 4)
	require.Len(t, cells, 2)
	assert.Equal(t, 3, cells[0].Min.X)
	assert.Equal(t, 16, cells[1].Min.X)
}

func TestSegmentGrid_LeftToRight(t *testing.T) {
	img := gridImage(60, 10, 0, 10, 20, 30, 40, 50, 59)

	cells := SegmentGrid(img, 0)
	require.Len(t, cells, 6)
	for i := 1; i < len(cells); i++ {
		assert.Less(t, cells[i-1].Min.X, cells[i].Min.X)
	}
}

func TestSegmentGrid_OffsetBounds(t *testing.T) {
	parent := gridImage(80, 20, 40, 53, 66, 79)
	sub := parent.SubImage(image.Rect(40, 0, 80, 20)).(*image.Gray)

	cells := SegmentGrid(sub, 4)
	require.Len(t, cells, 3)
	assert.Equal(t, 41, cells[0].Min.X)
	assert.True(t, cells[2].In(sub.Bounds()))
}

func TestSegmentGrid_AllInk(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))

	cells := SegmentGrid(img, 2)
	require.Len(t, cells, 1)
	assert.Equal(t, img.Bounds(), cells[0])
}

func TestSegmentGrid_Empty(t *testing.T) {
	assert.Nil(t, SegmentGrid(image.NewGray(image.Rectangle{}), 4))
}
