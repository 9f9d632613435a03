package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder, common for scanners
)

// ErrImageNotFound is returned when a path does not resolve to a decodable
// image, whether the file is missing, unreadable or not an image.
var ErrImageNotFound = errors.New("image not found")

// Load opens and decodes the image at path.
//
// Supported formats are PNG, JPEG, GIF, TIFF and BMP. Any failure is
// reported as an error matching ErrImageNotFound.
func Load(path string) (image.Image, error) {
	img, _, err := decodeFile(path)
	return img, err
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrImageNotFound, path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: failed to decode image: %v", ErrImageNotFound, path, err)
	}
	return img, format, nil
}

// DefaultCacheEntries is the capacity of NewImageCache.
const DefaultCacheEntries = 16

// ImageCache provides thread-safe caching of decoded scans keyed by path.
//
// The stdio server keeps one cache for its lifetime so repeated tool calls
// against the same scan decode it once. At most the configured number of
// scans stay decoded; the least recently used is dropped first. An entry is
// reused only while the file's size and modification time are unchanged, so
// a rescanned file is decoded again.
type ImageCache struct {
	entries *lru.Cache
}

type cacheEntry struct {
	img     image.Image
	format  string
	modTime time.Time
	size    int64
}

// NewImageCache creates an empty cache holding up to DefaultCacheEntries scans.
func NewImageCache() *ImageCache {
	return NewImageCacheSize(DefaultCacheEntries)
}

// NewImageCacheSize creates an empty cache holding up to n scans. n below one
// is treated as one.
func NewImageCacheSize(n int) *ImageCache {
	if n < 1 {
		n = 1
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New(n)
	return &ImageCache{entries: entries}
}

// Load returns the cached image for path, decoding it on first use or when
// the file has changed since it was cached.
//
// The image is cached using the exact path string provided. Different paths
// to the same file result in separate entries. Errors match ErrImageNotFound.
func (c *ImageCache) Load(path string) (image.Image, error) {
	img, _, err := c.load(path)
	return img, err
}

func (c *ImageCache) load(path string) (image.Image, string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, "", fmt.Errorf("%w: %s: %v", ErrImageNotFound, path, err)
	}

	if v, ok := c.entries.Get(path); ok {
		e := v.(*cacheEntry)
		if e.size == stat.Size() && e.modTime.Equal(stat.ModTime()) {
			return e.img, e.format, nil
		}
	}

	img, format, err := decodeFile(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, "", err
	}

	c.entries.Add(path, &cacheEntry{
		img:     img,
		format:  format,
		modTime: stat.ModTime(),
		size:    stat.Size(),
	})
	return img, format, nil
}

// Len returns the number of cached scans.
func (c *ImageCache) Len() int {
	return c.entries.Len()
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.entries.Purge()
}

// Evict removes a single path from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.entries.Remove(path)
}

// ImageInfo describes a decoded scan.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder name: "png", "jpeg", "gif", "tiff" or "bmp".
	Format string `json:"format"`

	// Grayscale is true when the decoded color model has a single channel,
	// as is typical for bilevel and grayscale scans.
	Grayscale bool `json:"grayscale"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads a scan through the cache and reports its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, format, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	grayscale := false
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		grayscale = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Grayscale:     grayscale,
		FileSizeBytes: stat.Size(),
	}, nil
}
