package numeral

import (
	"strings"

	"github.com/tsawler/piscan/model"
)

// ParseDigits parses a number written with digits, optionally grouped in
// thousands with a comma or a period ("12,345", "12.345"). Zero-padded
// forms such as "007" are not natural numbers in prose and are rejected.
// Values above model.MaxValue are rejected.
func ParseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	sep := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ',' || c == '.' {
			if sep != 0 && sep != c {
				return 0, false
			}
			sep = c
		}
	}

	groups := []string{s}
	if sep != 0 {
		groups = strings.Split(s, string(sep))
		if len(groups[0]) == 0 || len(groups[0]) > 3 {
			return 0, false
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return 0, false
			}
		}
	}

	digits := strings.Join(groups, "")
	if !IsNumeric(digits) {
		return 0, false
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, false
	}
	// Longer than the biggest value can ever be; avoids overflow below.
	if len(digits) > 6 {
		return 0, false
	}

	value := 0
	for i := 0; i < len(digits); i++ {
		value = value*10 + int(digits[i]-'0')
	}
	if value > model.MaxValue {
		return 0, false
	}
	return value, true
}

// ValueOf returns the numeric value of a run of decimal digits, ignoring
// leading zeros, and the number of leading zeros that were dropped.
// A run made only of zeros has value 0 and one fewer leading zero than
// its length, so that a single "0" remains.
func ValueOf(digits string) (value, leadingZeros int, ok bool) {
	if !IsNumeric(digits) {
		return 0, 0, false
	}
	for leadingZeros < len(digits)-1 && digits[leadingZeros] == '0' {
		leadingZeros++
	}
	for i := leadingZeros; i < len(digits); i++ {
		value = value*10 + int(digits[i]-'0')
	}
	return value, leadingZeros, true
}
