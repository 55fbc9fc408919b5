package ocr

import "errors"

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// PageSegMode represents page segmentation modes for OCR.
// These control how Tesseract analyzes the page layout.
type PageSegMode int

// Page segmentation modes, numbered as in Tesseract.
const (
	PSM_OSD_ONLY               PageSegMode = 0  // Orientation and script detection only
	PSM_AUTO_OSD               PageSegMode = 1  // Automatic with OSD
	PSM_AUTO_ONLY              PageSegMode = 2  // Automatic, no OSD or OCR
	PSM_AUTO                   PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_COLUMN          PageSegMode = 4  // Single column of variable sizes
	PSM_SINGLE_BLOCK_VERT_TEXT PageSegMode = 5  // Single uniform block of vertically aligned text
	PSM_SINGLE_BLOCK           PageSegMode = 6  // Single uniform block of text
	PSM_SINGLE_LINE            PageSegMode = 7  // Single text line
	PSM_SINGLE_WORD            PageSegMode = 8  // Single word
	PSM_CIRCLE_WORD            PageSegMode = 9  // Single word in a circle
	PSM_SINGLE_CHAR            PageSegMode = 10 // Single character
	PSM_SPARSE_TEXT            PageSegMode = 11 // Find as much text as possible
	PSM_SPARSE_TEXT_OSD        PageSegMode = 12 // Sparse text with OSD
	PSM_RAW_LINE               PageSegMode = 13 // Treat image as single text line
)

// DigitWhitelist limits recognition to what a digit-form number can contain.
const DigitWhitelist = "0123456789,."

// Config holds Tesseract settings for reading number crops
type Config struct {
	// Language(s), "+" separated (e.g. "eng+fra")
	Language string

	// A crop holds one number on one line
	PageSegMode PageSegMode

	// Characters Tesseract may output; empty allows all
	Whitelist string
}

// DefaultConfig returns settings for crops that may hold digits or words
func DefaultConfig() Config {
	return Config{
		Language:    "eng",
		PageSegMode: PSM_SINGLE_LINE,
		Whitelist:   "",
	}
}

// DigitsConfig returns settings for crops of digit-form numbers only
func DigitsConfig() Config {
	c := DefaultConfig()
	c.Whitelist = DigitWhitelist
	return c
}
