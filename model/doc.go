// Package model defines the data types shared by every stage of the
// number-image pipeline.
//
// # Pages and Words
//
// A [Page] is the normalized OCR content of one scanned page: an ordered
// list of [Word] values whose boxes are in the page image's pixel space
// (origin top-left, Y down).
//
// # Spans and Artifacts
//
// A [NumberSpan] is a run of words that denotes one integer in
// [0, MaxValue]. Extraction projects each span onto a [TokenArtifact], the
// durable record of a cropped image, keyed for deduplication by
// [DedupeKey].
//
// # Placements
//
// The assembler emits [Placement] values, each covering a run of π digits
// with an artifact or a plain-glyph fallback.
//
// # Geometry
//
// [BBox] holds float pixel boxes as read from hOCR, with intersection,
// union and scale helpers; [BBox.Rect] rounds one outward to an
// image.Rectangle for cropping.
package model
