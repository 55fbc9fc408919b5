// Package numeral recognizes integers written in books, either with digits
// ("1,776") or spelled out in English ("seventeen hundred and seventy-six").
//
// Spelled-out numbers are read by [Grammar], a small explicit state machine
// over ones, teens, tens and the scale words "hundred" and "thousand".
// [MatchWords] uses it to find the longest number at the start of a run of
// OCR words. [WordsToNumber] is the whole-string reference converter and
// [Spell] its inverse.
//
// OCR text is prepared with [Tokenize], which folds Unicode compatibility
// forms, diacritics, typographic dashes and case before matching.
package numeral
