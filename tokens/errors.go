package tokens

import (
	"errors"
	"fmt"
	"image"
)

// ErrCropValidation is matched by every crop rejection.
var ErrCropValidation = errors.New("tokens: crop failed validation")

// CropError describes a rejected crop.
type CropError struct {
	Value  int
	BookID string
	PageID string
	Rect   image.Rectangle // Crop region after margin and clamping
	Reason string
}

func (e *CropError) Error() string {
	return fmt.Sprintf("tokens: crop of %d on %s/%s at %v rejected: %s",
		e.Value, e.BookID, e.PageID, e.Rect, e.Reason)
}

// Unwrap returns ErrCropValidation.
func (e *CropError) Unwrap() error {
	return ErrCropValidation
}
