// Package assemble lays the digits of π out as a sequence of number
// crops.
//
// An [Assembler] walks the digit stream left to right. At each position
// it looks for the longest run of up to [Policy.MaxSpanLength] digits
// whose value has an artifact in the [Pool], places the best one, and
// moves past the run. A position no artifact can cover becomes a fallback
// placement of one digit, so the output always covers the whole stream.
//
//	result, err := assemble.New(snapshot, assemble.DefaultPolicy()).Assemble(ctx, digits)
//
// Matching is greedy and never backtracks. Among the artifacts for a
// value the assembler prefers those used least, then those used least
// recently, then catalog order, so results are reproducible. With a
// diversity window K it first looks only at artifacts from books absent
// from the previous K placements, and relaxes that only when nothing
// else fits.
package assemble
