package pidigits

import (
	"errors"
	"strings"
	"testing"
)

// First 100 digits of π.
const known = "3141592653589793238462643383279502884197169399375105820974944592307816406286208998628034825342117067"

func TestDigitsKnown(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "3"},
		{6, "314159"},
		{10, "3141592653"},
		{100, known},
	}

	for _, tt := range tests {
		got, err := Digits(tt.n)
		if err != nil {
			t.Fatalf("Digits(%d): %v", tt.n, err)
		}
		if got != tt.want {
			t.Errorf("Digits(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestDigitsLong(t *testing.T) {
	got, err := Digits(1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1000 {
		t.Fatalf("len = %d, want 1000", len(got))
	}
	if !strings.HasPrefix(got, known) {
		t.Error("1000 digits do not start with the known 100")
	}
	// The Feynman point: six nines starting at decimal 762.
	if got[762:768] != "999999" {
		t.Errorf("digits 762..767 = %q, want 999999", got[762:768])
	}
}

func TestDigitsMemoized(t *testing.T) {
	long, _ := Digits(200)
	short, _ := Digits(50)
	if short != long[:50] {
		t.Error("shorter request should be a prefix of the longer one")
	}
}

func TestDigitsNegative(t *testing.T) {
	if _, err := Digits(-1); !errors.Is(err, ErrNegative) {
		t.Errorf("expected ErrNegative, got %v", err)
	}
}
