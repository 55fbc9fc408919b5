package tokens

import (
	"fmt"
	"image"
	"os"

	// Decoders for page images
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/piscan/format"
)

// LoadImage decodes a page image. JPEG 2000 decodes only in builds with
// the openjpeg tag. Formats without a decoder fail with an error
// matching format.ErrUnsupported.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tokens: open image: %w", err)
	}
	defer f.Close()

	kind, err := format.DetectFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("tokens: read image %s: %w", path, err)
	}
	if !kind.Decodable() && !(kind == format.JP2 && jp2Supported) {
		if kind == format.Unknown {
			kind = format.Detect(path)
		}
		return nil, fmt.Errorf("tokens: %s (%v): %w", path, kind, format.ErrUnsupported)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("tokens: decode %s: %w", path, err)
	}
	return img, nil
}
