package preview

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// ImageFormat is an encoded preview format
type ImageFormat int

const (
	PNG ImageFormat = iota
	WebP
	TGA
)

func (f ImageFormat) String() string {
	switch f {
	case PNG:
		return "png"
	case WebP:
		return "webp"
	case TGA:
		return "tga"
	}
	return fmt.Sprintf("ImageFormat(%d)", int(f))
}

// Extension returns the file extension including the dot
func (f ImageFormat) Extension() string {
	return "." + f.String()
}

// ParseImageFormat accepts a format name or a file extension
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	case "tga", "targa":
		return TGA, nil
	}
	return PNG, fmt.Errorf("unsupported image format %q (want png, webp or tga)", s)
}

// FormatForPath picks the format from a file name, falling back to PNG
func FormatForPath(path string) ImageFormat {
	f, err := ParseImageFormat(filepath.Ext(path))
	if err != nil {
		return PNG
	}
	return f
}

// Encode writes img in the given format
func Encode(w io.Writer, img image.Image, f ImageFormat) error {
	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	case TGA:
		err = tga.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format %v", f)
	}
	if err != nil {
		return fmt.Errorf("%s encode: %w", f, err)
	}
	return nil
}
