package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ImageCache provides thread-safe caching of decoded frames and prepared
// templates to avoid redundant disk reads.
//
// Frames are keyed by file path. Templates are keyed by path and target size,
// since the same icon may be prepared at more than one size.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Access Accounting
//
// Template lookups report every hit and miss to the optional observer passed
// to NewImageCache. The diagnostics handle uses this to keep the template
// cache hit ratio.
type ImageCache struct {
	mu        sync.RWMutex
	frames    map[string]*Frame
	templates map[string]image.Image
	onAccess  func(hit bool)
}

// NewImageCache creates and initializes a new empty cache.
//
// onAccess may be nil. When set it is called once per LoadTemplate call,
// outside the cache lock.
func NewImageCache(onAccess func(hit bool)) *ImageCache {
	return &ImageCache{
		frames:    make(map[string]*Frame),
		templates: make(map[string]image.Image),
		onAccess:  onAccess,
	}
}

// Load retrieves a frame from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG and GIF. The path is used verbatim as the
// cache key, so relative and absolute spellings of one file are cached twice.
func (c *ImageCache) Load(path string) (*Frame, error) {
	c.mu.RLock()
	if f, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	f := FrameFromImage(img)

	c.mu.Lock()
	c.frames[path] = f
	c.mu.Unlock()

	return f, nil
}

// LoadTemplate returns the icon at path scaled to size x size, decoding and
// scaling it on first use.
func (c *ImageCache) LoadTemplate(path string, size int) (image.Image, error) {
	if size <= 0 {
		size = DefaultTemplateSize
	}
	key := fmt.Sprintf("%s@%d", path, size)

	c.mu.RLock()
	tmpl, ok := c.templates[key]
	c.mu.RUnlock()
	c.observe(ok)
	if ok {
		return tmpl, nil
	}

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	tmpl = PrepareTemplate(img, size)

	c.mu.Lock()
	c.templates[key] = tmpl
	c.mu.Unlock()

	return tmpl, nil
}

func (c *ImageCache) observe(hit bool) {
	if c.onAccess != nil {
		c.onAccess(hit)
	}
}

// Clear removes all frames and templates from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]*Frame)
	c.templates = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific frame, and any templates prepared from the same
// path, from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	prefix := path + "@"
	for key := range c.templates {
		if strings.HasPrefix(key, prefix) {
			delete(c.templates, key)
		}
	}
	c.mu.Unlock()
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// FrameInfo contains metadata about a loaded frame file.
type FrameInfo struct {
	// Width is the frame width in pixels.
	Width int `json:"width"`

	// Height is the frame height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", or "unknown", from the file extension.
	Format string `json:"format"`

	// Resolution is a label such as "1920x1080".
	Resolution string `json:"resolution"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadFrameInfo loads a frame into the cache and describes it.
func LoadFrameInfo(cache *ImageCache, path string) (*FrameInfo, error) {
	f, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	return &FrameInfo{
		Width:         f.Width,
		Height:        f.Height,
		Format:        format,
		Resolution:    fmt.Sprintf("%dx%d", f.Width, f.Height),
		FileSizeBytes: stat.Size(),
	}, nil
}
