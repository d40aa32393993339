// Package project maintains the export manifest, a JSON file kept in the
// output folder that records which page and rectangle every panel file was
// cropped from.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"time"

	"panel-cropper/pkg/geometry"
)

// FileName is the manifest name inside an output folder.
const FileName = "panels.json"

// File is the manifest of one output folder.
type File struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Panels   []Panel   `json:"panels"`
}

// Panel records one exported file.
type Panel struct {
	File  string        `json:"file"` // relative to the manifest
	Page  string        `json:"page"`
	Rect  geometry.Rect `json:"rect"`
	Saved time.Time     `json:"saved"`
}

// New creates an empty manifest.
func New() *File {
	now := time.Now()
	return &File{
		Version:  1,
		Created:  now,
		Modified: now,
	}
}

// Path returns the manifest path for an output folder.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load loads a manifest. A missing file yields an empty manifest.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}

	var m File
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the manifest through a temporary file so readers never see a
// partial document.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Add records files cropped from page. files and crops are parallel. A file
// already in the manifest is replaced, since its contents were overwritten.
func (p *File) Add(dir, page string, files []string, crops []image.Rectangle) {
	now := time.Now()
	index := make(map[string]int, len(p.Panels))
	for i, pn := range p.Panels {
		index[pn.File] = i
	}

	for i, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		pn := Panel{File: rel, Page: page, Saved: now}
		if i < len(crops) {
			pn.Rect = geometry.RectFromImage(crops[i])
		}
		if j, ok := index[rel]; ok {
			p.Panels[j] = pn
			continue
		}
		index[rel] = len(p.Panels)
		p.Panels = append(p.Panels, pn)
	}
	p.Modified = now
}

// ForPage returns the panels cropped from page, ordered by file name.
func (p *File) ForPage(page string) []Panel {
	var out []Panel
	for _, pn := range p.Panels {
		if pn.Page == page {
			out = append(out, pn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// Record adds one export to the manifest in dir.
func Record(dir, page string, files []string, crops []image.Rectangle) error {
	if len(files) == 0 {
		return nil
	}
	path := Path(dir)
	m, err := Load(path)
	if err != nil {
		return err
	}
	m.Add(dir, page, files, crops)
	return m.Save(path)
}
