package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// SupportedExtensions lists the file extensions a scan accepts. ".jp2" is
// listed so batch runs pick such files up and report them as unreadable
// rather than silently skipping them.
var SupportedExtensions = []string{".jpg", ".jpeg", ".jp2", ".png", ".bmp", ".tiff", ".tif", ".gif", ".webp"}

// IsSupported reports whether path has one of SupportedExtensions,
// ignoring case.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Decode reads an image from r and applies any EXIF orientation so that
// phone photographs come out upright.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (image.Image, error) {
	return Decode(bytes.NewReader(data))
}

// Open loads and decodes the image at path.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// DefaultCacheSize is how many decoded photographs NewImageCache keeps.
// A decoded 12 megapixel photo takes about 48 MB.
const DefaultCacheSize = 8

// ImageCache keeps recently decoded photographs so that repeated detect,
// rectify and scan calls on the same file decode it once. Entries are keyed
// by absolute path; when the cache is full the entry loaded first is
// dropped. Cached images are shared between callers and must not be
// modified.
type ImageCache struct {
	mu     sync.Mutex
	size   int
	order  []string
	images map[string]image.Image
}

// NewImageCache returns a cache holding up to DefaultCacheSize images.
func NewImageCache() *ImageCache {
	return NewImageCacheSize(DefaultCacheSize)
}

// NewImageCacheSize returns a cache holding up to size images; size < 1
// means 1.
func NewImageCacheSize(size int) *ImageCache {
	if size < 1 {
		size = 1
	}
	return &ImageCache{
		size:   size,
		images: make(map[string]image.Image),
	}
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Load returns the image at path, decoding it on a miss. Decoding happens
// outside the lock, so two concurrent misses on one path may both decode;
// the first to finish is kept.
func (c *ImageCache) Load(path string) (image.Image, error) {
	key := cacheKey(path)

	c.mu.Lock()
	img, ok := c.images[key]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.images[key]; ok {
		return cached, nil
	}
	c.images[key] = img
	c.order = append(c.order, key)
	for len(c.order) > c.size {
		delete(c.images, c.order[0])
		c.order = c.order[1:]
	}
	return img, nil
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.order = nil
	c.mu.Unlock()
}

// Evict drops the image cached for path, if any.
func (c *ImageCache) Evict(path string) {
	key := cacheKey(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.images[key]; !ok {
		return
	}
	delete(c.images, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// ImageInfo describes a photograph before it is scanned.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder that recognised the file content ("jpeg",
	// "png", "gif", "bmp", "tiff", "webp"), whatever its extension says.
	Format string `json:"format"`

	// Orientation is "portrait", "landscape" or "square" after EXIF
	// rotation has been applied.
	Orientation string `json:"orientation"`

	Megapixels    float64 `json:"megapixels"`
	FileSizeBytes int64   `json:"file_size_bytes"`
}

// LoadImageInfo loads the photograph at path through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	orientation := "square"
	switch {
	case h > w:
		orientation = "portrait"
	case w > h:
		orientation = "landscape"
	}

	return &ImageInfo{
		Width:         w,
		Height:        h,
		Format:        format,
		Orientation:   orientation,
		Megapixels:    math.Round(float64(w)*float64(h)/1e4) / 100,
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image without additional metadata.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
