// Package tokens cuts number crops out of scanned page images.
//
// An [Extractor] detects the number spans on a normalized page, crops each
// span's region from the page image with a small margin, validates the
// crop's shape, optionally rescales it, and writes it as a PNG file:
//
//	<out>/<value>/<value>_<book>_<page>_<x0>_<y0>_h<height>.png
//
// Every written crop is described by a [model.TokenArtifact]. Crops that
// fail validation are reported as [*CropError] values matching
// [ErrCropValidation] and skipped; the rest of the page continues.
//
// Page images are read with [LoadImage], which decodes PNG, JPEG, GIF,
// TIFF, BMP and WebP. JPEG 2000 needs libopenjp2 and the openjpeg tag:
//
//	go build -tags openjpeg ./...
//
// Without it JPEG 2000 images are recognized and rejected with
// [format.ErrUnsupported].
package tokens
