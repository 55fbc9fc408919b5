// Package format provides page image format detection for piscan.
package format

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for page images piscan cannot decode.
var ErrUnsupported = errors.New("format: unsupported image format")

// Format represents a page image format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PNG indicates a Portable Network Graphics image.
	PNG
	// JPEG indicates a JPEG/JFIF image.
	JPEG
	// GIF indicates a GIF image.
	GIF
	// TIFF indicates a TIFF image, little or big endian.
	TIFF
	// BMP indicates a Windows bitmap.
	BMP
	// WebP indicates a WebP image.
	WebP
	// JP2 indicates a JPEG 2000 image, as shipped by scanning archives.
	JP2
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case GIF:
		return "GIF"
	case TIFF:
		return "TIFF"
	case BMP:
		return "BMP"
	case WebP:
		return "WebP"
	case JP2:
		return "JP2"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PNG:
		return ".png"
	case JPEG:
		return ".jpg"
	case GIF:
		return ".gif"
	case TIFF:
		return ".tif"
	case BMP:
		return ".bmp"
	case WebP:
		return ".webp"
	case JP2:
		return ".jp2"
	default:
		return ""
	}
}

// Decodable reports whether the format has a pure Go decoder. JPEG 2000
// is decoded through libopenjp2 in builds tagged openjpeg.
func (f Format) Decodable() bool {
	switch f {
	case PNG, JPEG, GIF, TIFF, BMP, WebP:
		return true
	default:
		return false
	}
}

// Detect determines the image format from the filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png":
		return PNG
	case ".jpg", ".jpeg", ".jpe":
		return JPEG
	case ".gif":
		return GIF
	case ".tif", ".tiff":
		return TIFF
	case ".bmp":
		return BMP
	case ".webp":
		return WebP
	case ".jp2", ".j2k", ".jpf", ".jpx":
		return JP2
	default:
		return Unknown
	}
}

// IsImage reports whether the filename has a known image extension.
func IsImage(filename string) bool {
	return Detect(filename) != Unknown
}

var (
	magicPNG     = []byte("\x89PNG\r\n\x1a\n")
	magicJPEG    = []byte{0xFF, 0xD8, 0xFF}
	magicGIF87   = []byte("GIF87a")
	magicGIF89   = []byte("GIF89a")
	magicTIFFLE  = []byte("II*\x00")
	magicTIFFBE  = []byte("MM\x00*")
	magicBMP     = []byte("BM")
	magicJP2Box  = []byte("\x00\x00\x00\x0cjP  \r\n\x87\n")
	magicJ2KCode = []byte{0xFF, 0x4F, 0xFF, 0x51}
)

// DetectFromMagic checks file magic bytes to determine the format.
// This provides more reliable detection than extension-based detection.
func DetectFromMagic(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, magicPNG):
		return PNG
	case bytes.HasPrefix(data, magicJPEG):
		return JPEG
	case bytes.HasPrefix(data, magicGIF87), bytes.HasPrefix(data, magicGIF89):
		return GIF
	case bytes.HasPrefix(data, magicTIFFLE), bytes.HasPrefix(data, magicTIFFBE):
		return TIFF
	case bytes.HasPrefix(data, magicJP2Box), bytes.HasPrefix(data, magicJ2KCode):
		return JP2
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return WebP
	case bytes.HasPrefix(data, magicBMP) && len(data) >= 14:
		return BMP
	default:
		return Unknown
	}
}

// DetectFromReader reads the leading bytes of r to determine the format.
func DetectFromReader(r io.ReaderAt) (Format, error) {
	magic := make([]byte, 16)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	return DetectFromMagic(magic[:n]), nil
}
