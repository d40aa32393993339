package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	pageimage "panel-cropper/internal/image"

	"gocv.io/x/gocv"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// JPEGQuality is used for FormatJPEG output.
const JPEGQuality = 95

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	default:
		return ".png"
	}
}

// encode writes img in format f.
func encode(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, err
		}
	case FormatWebP:
		return encodeWebP(img)
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// encodeWebP uses OpenCV since the Go image libraries only decode WebP.
func encodeWebP(img image.Image) ([]byte, error) {
	mat, err := pageimage.ToMat(img)
	if err != nil {
		mat.Close()
		return nil, err
	}
	defer mat.Close()

	nb, err := gocv.IMEncode(gocv.FileExt(".webp"), mat)
	if err != nil {
		return nil, fmt.Errorf("webp encode: %w", err)
	}
	defer nb.Close()

	out := make([]byte, nb.Len())
	copy(out, nb.GetBytes())
	return out, nil
}
