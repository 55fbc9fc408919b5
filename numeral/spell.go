package numeral

import "strings"

var unitNames = [...]string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tensNames = [...]string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}

// Spell writes n (0 <= n < 1,000,000) in English words in the plain
// American style, e.g. 12345 is "twelve thousand three hundred forty-five".
// Negative or larger values return the empty string.
func Spell(n int) string {
	if n < 0 || n >= 1000000 {
		return ""
	}
	if n == 0 {
		return unitNames[0]
	}

	var parts []string
	if n >= 1000 {
		parts = append(parts, spellBelowThousand(n/1000), "thousand")
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, spellBelowThousand(n))
	}
	return strings.Join(parts, " ")
}

func spellBelowThousand(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, unitNames[n/100], "hundred")
		n %= 100
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, unitNames[n])
	case n%10 == 0:
		parts = append(parts, tensNames[n/10])
	default:
		parts = append(parts, tensNames[n/10]+"-"+unitNames[n%10])
	}
	return strings.Join(parts, " ")
}
