package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticEngine(candidates ...Candidate) Engine {
	return EngineFunc(func(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error) {
		return candidates, nil
	})
}

func TestBest(t *testing.T) {
	region := image.NewGray(image.Rect(0, 0, 10, 10))

	tests := []struct {
		name       string
		candidates []Candidate
		want       Candidate
		wantFound  bool
	}{
		{"none", nil, Candidate{}, false},
		{"single", []Candidate{{"ABC123", 0.91}}, Candidate{"ABC123", 0.91}, true},
		{"highest wins", []Candidate{{"ABC", 0.4}, {"ABD", 0.8}, {"ABE", 0.6}}, Candidate{"ABD", 0.8}, true},
		{"tie keeps first", []Candidate{{"one", 0.5}, {"two", 0.5}}, Candidate{"one", 0.5}, true},
		{"blank ignored", []Candidate{{"   ", 0.99}, {"text", 0.3}}, Candidate{"text", 0.3}, true},
		{"all blank", []Candidate{{"", 0.9}, {"\n\t", 0.8}}, Candidate{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := Best(context.Background(), staticEngine(tt.candidates...), region, Hint{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBest_PassesHint(t *testing.T) {
	var seen Hint
	engine := EngineFunc(func(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error) {
		seen = hint
		return nil, nil
	})

	_, _, err := Best(context.Background(), engine, image.NewGray(image.Rect(0, 0, 4, 4)), Hint{Language: "hin", PSM: PSMSingleWord})
	require.NoError(t, err)
	assert.Equal(t, Hint{Language: "hin", PSM: PSMSingleWord}, seen)
}

func TestBest_EngineError(t *testing.T) {
	boom := errors.New("engine exploded")
	engine := EngineFunc(func(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error) {
		return nil, boom
	})

	_, found, err := Best(context.Background(), engine, image.NewGray(image.Rect(0, 0, 4, 4)), Hint{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, found)
}

func TestBest_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	engine := EngineFunc(func(ctx context.Context, region image.Image, hint Hint) ([]Candidate, error) {
		called = true
		return nil, nil
	})

	_, _, err := Best(ctx, engine, image.NewGray(image.Rect(0, 0, 4, 4)), Hint{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestPageSegMode_Valid(t *testing.T) {
	assert.True(t, PSMOSDOnly.Valid())
	assert.True(t, PSMSingleLine.Valid())
	assert.True(t, PSMRawLine.Valid())
	assert.False(t, PageSegMode(-1).Valid())
	assert.False(t, PageSegMode(14).Valid())
}

func TestBounds_RoundTrip(t *testing.T) {
	r := image.Rect(3, 4, 30, 40)
	b := BoundsFromRect(r)
	assert.Equal(t, Bounds{X1: 3, Y1: 4, X2: 30, Y2: 40}, b)
	assert.Equal(t, r, b.Rect())
}

func TestToRegions_SkipsBlank(t *testing.T) {
	regions := toRegions(
		[]string{" Name ", "", "Date"},
		[]float64{0.9, 0.5, 0.7},
		[]image.Rectangle{image.Rect(0, 0, 10, 5), image.Rect(0, 5, 10, 10), image.Rect(0, 10, 10, 15)},
	)
	require.Len(t, regions, 2)
	assert.Equal(t, "Name", regions[0].Text)
	assert.Equal(t, "Date", regions[1].Text)
	assert.Equal(t, 0.7, regions[1].Confidence)
}

func TestLanguageOrDefault(t *testing.T) {
	assert.Equal(t, "eng", languageOrDefault(""))
	assert.Equal(t, "eng", languageOrDefault("  "))
	assert.Equal(t, "hin", languageOrDefault("hin"))
}
