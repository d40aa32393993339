package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	pageimage "panel-cropper/internal/image"
)

// ImageSource serves pages from image files in a fixed order.
type ImageSource struct {
	paths []string
}

// NewImageSource keeps the given order and drops unsupported extensions.
func NewImageSource(paths []string) (*ImageSource, error) {
	var kept []string
	for _, p := range paths {
		if pageimage.IsImageFile(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoPages
	}
	return &ImageSource{paths: kept}, nil
}

// NewDirSource lists the images of a directory sorted by file name.
func NewDirSource(dir string) (*ImageSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && pageimage.IsImageFile(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoPages)
	}
	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) Len() int {
	return len(s.paths)
}

func (s *ImageSource) Name(index int) string {
	if checkIndex(index, len(s.paths)) != nil {
		return ""
	}
	return filepath.Base(s.paths[index])
}

// Path returns the file behind page index.
func (s *ImageSource) Path(index int) string {
	if checkIndex(index, len(s.paths)) != nil {
		return ""
	}
	return s.paths[index]
}

func (s *ImageSource) Load(index int) (*pageimage.Page, error) {
	if err := checkIndex(index, len(s.paths)); err != nil {
		return nil, err
	}
	return pageimage.Load(s.paths[index])
}

func (s *ImageSource) Close() error {
	return nil
}
