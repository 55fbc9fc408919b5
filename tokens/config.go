package tokens

// Config holds extractor configuration
type Config struct {
	// Directory crops are written under, one subdirectory per value
	OutputDir string

	// Pixels added around the span box before cropping
	Margin int

	// Smallest acceptable crop, in pixels
	MinWidth  int
	MinHeight int

	// Largest acceptable height/width ratio
	MaxTallness float64

	// Largest acceptable width/height ratio is
	// WideBase + WidePerChar * (characters in the span text)
	WideBase    float64
	WidePerChar float64

	// Rescale crops to this height; 0 keeps the source resolution
	TargetHeight int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		OutputDir:    "tokens",
		Margin:       4,
		MinWidth:     6,
		MinHeight:    6,
		MaxTallness:  4.0,
		WideBase:     2.0,
		WidePerChar:  1.5,
		TargetHeight: 0,
	}
}

// maxWideness returns the width/height limit for a span text of n
// characters.
func (c Config) maxWideness(n int) float64 {
	if n < 1 {
		n = 1
	}
	return c.WideBase + c.WidePerChar*float64(n)
}
