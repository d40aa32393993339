// Package source enumerates the pages of a session: image files, a folder
// of images, or the pages of a PDF.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pageimage "panel-cropper/internal/image"
)

// ErrNoPages is returned when an input yields no loadable pages.
var ErrNoPages = errors.New("no pages found")

// Source is an ordered set of pages. Load must be safe to call from
// several goroutines for different indices.
type Source interface {
	Len() int
	Name(index int) string
	Load(index int) (*pageimage.Page, error)
	Close() error
}

// Open builds a source from command-line style inputs: a single PDF, a
// single directory, or a list of image files.
func Open(paths []string, pdfDPI float64) (Source, error) {
	if len(paths) == 0 {
		return nil, ErrNoPages
	}
	if len(paths) == 1 && strings.EqualFold(filepath.Ext(paths[0]), ".pdf") {
		return NewPDFSource(paths[0], pdfDPI)
	}
	if len(paths) == 1 {
		fi, err := os.Stat(paths[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		if fi.IsDir() {
			return NewDirSource(paths[0])
		}
	}
	return NewImageSource(paths)
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("page %d out of range [0,%d)", index, n)
	}
	return nil
}
