// Package pidigits computes the decimal digits of π.
package pidigits

import (
	"errors"
	"math/big"
	"sync"
)

// ErrNegative is returned for a negative digit count.
var ErrNegative = errors.New("pidigits: negative digit count")

// guard is the number of extra digits carried to absorb truncation error.
const guard = 10

var (
	mu     sync.Mutex
	cached string
)

// Digits returns the first n decimal digits of π, starting with the
// integer part: Digits(6) is "314159". Results are memoized.
func Digits(n int) (string, error) {
	if n < 0 {
		return "", ErrNegative
	}
	if n == 0 {
		return "", nil
	}

	mu.Lock()
	defer mu.Unlock()

	if len(cached) < n {
		cached = compute(n)
	}
	return cached[:n], nil
}

// compute uses Machin's formula, π = 16·arctan(1/5) − 4·arctan(1/239),
// in fixed point with n+guard decimal digits.
func compute(n int) string {
	unity := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1+guard)), nil)

	pi := arccot(5, unity)
	pi.Mul(pi, big.NewInt(4))
	pi.Sub(pi, arccot(239, unity))
	pi.Mul(pi, big.NewInt(4))

	s := pi.String()
	return s[:n]
}

// arccot returns arctan(1/x) scaled by unity, from the alternating series
// 1/x − 1/(3x³) + 1/(5x⁵) − ...
func arccot(x int64, unity *big.Int) *big.Int {
	sum := new(big.Int)
	xSquared := big.NewInt(x * x)
	power := new(big.Int).Div(unity, big.NewInt(x))
	term := new(big.Int)

	for k := int64(1); power.Sign() != 0; k += 2 {
		term.Div(power, big.NewInt(k))
		if (k/2)%2 == 0 {
			sum.Add(sum, term)
		} else {
			sum.Sub(sum, term)
		}
		power.Div(power, xSquared)
	}
	return sum
}
