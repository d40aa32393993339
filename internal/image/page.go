// Package image provides page image loading and conversion to OpenCV mats.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"panel-cropper/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmpty is returned for images with no pixels.
var ErrEmpty = errors.New("empty image")

// Extensions lists the raster formats accepted as page input.
var Extensions = []string{".png", ".jpg", ".jpeg", ".webp", ".tif", ".tiff", ".bmp"}

// IsImageFile reports whether path has a supported raster extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Page is one decoded page image.
type Page struct {
	Path   string      // Original file path (empty for rendered PDF pages)
	Name   string      // Display name
	Format string      // Decoder that read the file, e.g. "png"
	Image  image.Image // Decoded pixels, never scaled
}

// Load decodes the image at path.
func Load(path string) (*Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmpty)
	}

	return &Page{
		Path:   path,
		Name:   filepath.Base(path),
		Format: format,
		Image:  img,
	}, nil
}

// Width returns the image width in pixels.
func (p *Page) Width() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (p *Page) Height() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dy()
}

// Size returns the image size in pixels.
func (p *Page) Size() geometry.Size {
	return geometry.NewSize(float64(p.Width()), float64(p.Height()))
}

// Bounds returns the page as a content-space rectangle anchored at (0,0).
func (p *Page) Bounds() geometry.Rect {
	return geometry.NewRect(0, 0, float64(p.Width()), float64(p.Height()))
}
