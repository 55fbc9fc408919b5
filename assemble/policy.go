package assemble

// Policy controls how digits are matched to artifacts.
type Policy struct {
	// Longest run of digits one artifact may cover (1..5)
	MaxSpanLength int

	// Whether one artifact may be placed more than once
	AllowRepeatArtifacts bool

	// Prefer artifacts from books not used by the previous K artifact
	// placements; 0 disables the preference
	DiversityWindow int

	// Emit the leading "3" as its own placement, flagged IntegerPart, and
	// limit the placement after it to the "14"
	IsolateIntegerPart bool

	// Skip candidates such as "07" whose artifact would omit a zero
	RejectLeadingZeros bool

	// Only the first artifact of each book, in catalog order, is eligible
	// for a value
	OnePerBook bool
}

// DefaultPolicy returns the default policy
func DefaultPolicy() Policy {
	return Policy{
		MaxSpanLength:        5,
		AllowRepeatArtifacts: true,
		DiversityWindow:      0,
		IsolateIntegerPart:   false,
		RejectLeadingZeros:   false,
		OnePerBook:           false,
	}
}

// normalized clamps out-of-range settings.
func (p Policy) normalized() Policy {
	if p.MaxSpanLength < 1 {
		p.MaxSpanLength = 1
	}
	if p.MaxSpanLength > 5 {
		p.MaxSpanLength = 5
	}
	if p.DiversityWindow < 0 {
		p.DiversityWindow = 0
	}
	return p
}
