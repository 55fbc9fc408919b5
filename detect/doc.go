// Package detect finds numbers on normalized OCR pages.
//
// A [Detector] walks the words of a [model.Page] in reading order and
// reports each number it reads as a [model.NumberSpan]:
//
//	detector := detect.NewDetector()
//	spans := detector.Detect(page)
//
// # Matching
//
// At every word the detector tries two readings:
//
//  1. Digit form: one word such as "1776" or "12,345", or up to
//     [Config.MaxDigitWords] tightly spaced pieces of a number that OCR
//     split at a thousands separator ("12," "345").
//  2. Word form: the longest run of words on the line that spells a
//     number, such as "one hundred and twelve".
//
// The longer reading wins and digit form wins a tie. Scanning resumes
// after the accepted span, so spans never overlap. Spans never cross a
// line, and values outside [0, model.MaxValue] are not reported.
//
// # Configuration
//
// Detector behavior is controlled by [Config]:
//
//	config := detect.DefaultConfig()
//	config.MinConfidence = 80
//	config.WordForm = false
//	detector := detect.NewDetectorWithConfig(config)
package detect
