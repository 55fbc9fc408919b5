package numeral

import (
	"fmt"
	"strings"

	"github.com/tsawler/piscan/model"
)

// wordClass is the grammatical role of a number word.
type wordClass int

const (
	classNone wordClass = iota
	classZero
	classUnit     // one .. nine
	classTeen     // ten .. nineteen
	classTens     // twenty .. ninety
	classHundred  // hundred
	classThousand // thousand
	classAnd      // and
	classA        // a, as in "a hundred"
)

type vocabEntry struct {
	class wordClass
	value int
}

var vocabulary = map[string]vocabEntry{
	"zero":      {classZero, 0},
	"one":       {classUnit, 1},
	"two":       {classUnit, 2},
	"three":     {classUnit, 3},
	"four":      {classUnit, 4},
	"five":      {classUnit, 5},
	"six":       {classUnit, 6},
	"seven":     {classUnit, 7},
	"eight":     {classUnit, 8},
	"nine":      {classUnit, 9},
	"ten":       {classTeen, 10},
	"eleven":    {classTeen, 11},
	"twelve":    {classTeen, 12},
	"thirteen":  {classTeen, 13},
	"fourteen":  {classTeen, 14},
	"fifteen":   {classTeen, 15},
	"sixteen":   {classTeen, 16},
	"seventeen": {classTeen, 17},
	"eighteen":  {classTeen, 18},
	"nineteen":  {classTeen, 19},
	"twenty":    {classTens, 20},
	"thirty":    {classTens, 30},
	"forty":     {classTens, 40},
	"fourty":    {classTens, 40},
	"fifty":     {classTens, 50},
	"sixty":     {classTens, 60},
	"seventy":   {classTens, 70},
	"eighty":    {classTens, 80},
	"ninety":    {classTens, 90},
	"hundred":   {classHundred, 100},
	"thousand":  {classThousand, 1000},
	"and":       {classAnd, 0},
	"a":         {classA, 1},
}

// state is a position in the English numeral grammar.
//
//	number   := "zero" | [chunk "thousand" ["and"]] [chunk] | "a" ("hundred" | "thousand") ...
//	chunk    := mult "hundred" ["and"] [below100] | below100
//	mult     := below100 (1..99; 10..99 only before any "thousand")
//	below100 := unit | teen | tens ["-"] [unit]
type state int

const (
	stStart state = iota
	stZero
	stA
	stUnit
	stTeen
	stTens
	stTensUnit
	stHundred
	stHundredAnd
	stThousand
	stThousandAnd
	stInvalid
)

func (s state) accepting() bool {
	switch s {
	case stZero, stUnit, stTeen, stTens, stTensUnit, stHundred, stThousand:
		return true
	default:
		return false
	}
}

// Grammar is an incremental parser for spelled-out English numbers. The
// zero value is ready to use. Feed words with Step; Value and Accepting
// report the number read so far.
type Grammar struct {
	state        state
	total        int // Thousands already committed
	chunk        int // Value below the current scale word
	chunkHundred bool
	thousand     bool
}

// Reset returns the grammar to its initial state.
func (g *Grammar) Reset() {
	*g = Grammar{}
}

// Accepting reports whether the words fed so far form a complete number.
func (g *Grammar) Accepting() bool {
	return g.state.accepting()
}

// Value returns the number read so far. It is meaningful only when
// Accepting is true.
func (g *Grammar) Value() int {
	return g.total + g.chunk
}

// Step feeds one number word (already lower-cased, no hyphens). It
// returns false, leaving the grammar unchanged, if the word cannot
// continue the number.
func (g *Grammar) Step(word string) bool {
	entry, ok := vocabulary[word]
	if !ok {
		return false
	}
	next := *g
	next.transition(entry)
	if next.state == stInvalid {
		return false
	}
	*g = next
	return true
}

// chunkStart reports whether a new below-hundred group may begin.
func (s state) chunkStart() bool {
	switch s {
	case stStart, stHundred, stHundredAnd, stThousand, stThousandAnd:
		return true
	default:
		return false
	}
}

func (g *Grammar) transition(e vocabEntry) {
	switch e.class {
	case classZero:
		if g.state != stStart {
			g.state = stInvalid
			return
		}
		g.state = stZero

	case classA:
		if g.state != stStart {
			g.state = stInvalid
			return
		}
		g.chunk = 1
		g.state = stA

	case classUnit:
		switch {
		case g.state == stTens:
			g.chunk += e.value
			g.state = stTensUnit
		case g.state.chunkStart():
			g.chunk += e.value
			g.state = stUnit
		default:
			g.state = stInvalid
		}

	case classTeen, classTens:
		if !g.state.chunkStart() {
			g.state = stInvalid
			return
		}
		g.chunk += e.value
		if e.class == classTeen {
			g.state = stTeen
		} else {
			g.state = stTens
		}

	case classHundred:
		switch g.state {
		case stA, stUnit, stTeen, stTens, stTensUnit:
		default:
			g.state = stInvalid
			return
		}
		if g.chunkHundred || (g.thousand && g.chunk >= 10) {
			g.state = stInvalid
			return
		}
		g.chunk *= 100
		g.chunkHundred = true
		g.state = stHundred

	case classThousand:
		switch g.state {
		case stA, stUnit, stTeen, stTens, stTensUnit, stHundred:
		default:
			g.state = stInvalid
			return
		}
		if g.thousand || g.chunk == 0 {
			g.state = stInvalid
			return
		}
		g.total = g.chunk * 1000
		g.chunk = 0
		g.chunkHundred = false
		g.thousand = true
		g.state = stThousand

	case classAnd:
		switch g.state {
		case stHundred:
			g.state = stHundredAnd
		case stThousand:
			g.state = stThousandAnd
		default:
			g.state = stInvalid
		}

	default:
		g.state = stInvalid
	}
}

// Match is the result of matching number words against a token run.
type Match struct {
	Value    int
	Consumed int // Number of tokens that make up the number
}

// MatchWords returns the longest prefix of tokens that spells a number in
// [0, model.MaxValue]. A token may hold several hyphen-joined words
// ("forty-five"); all of them must fit the grammar for the token to count.
// Matching never continues past a token marked Break. A run whose words
// go on past model.MaxValue matches nothing, so "one hundred thousand"
// never yields 100.
func MatchWords(tokens []Token) (Match, bool) {
	var g Grammar
	best := Match{}
	found := false

	for i, tok := range tokens {
		if !stepToken(&g, tok.Core) {
			break
		}
		// Values only grow as words are added.
		if g.Value() > model.MaxValue {
			return Match{}, false
		}
		if g.Accepting() {
			best = Match{Value: g.Value(), Consumed: i + 1}
			found = true
		}
		if tok.Break {
			break
		}
	}

	return best, found
}

// stepToken feeds each hyphen-separated part of a token. On failure the
// grammar may have consumed some parts; callers stop matching anyway.
func stepToken(g *Grammar, core string) bool {
	if core == "" {
		return false
	}
	stepped := false
	for _, part := range strings.Split(core, "-") {
		if part == "" {
			continue
		}
		if !g.Step(part) {
			return false
		}
		stepped = true
	}
	return stepped
}

// WordsToNumber converts a complete spelled-out number, with words
// separated by spaces or hyphens, to its value. It is the reference
// converter for the grammar: every word must be consumed.
func WordsToNumber(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("numeral: empty input")
	}
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Tokenize(f)
		tokens[i].Break = false
	}
	m, ok := MatchWords(tokens)
	if !ok || m.Consumed != len(tokens) {
		return 0, fmt.Errorf("numeral: %q is not a number in range", text)
	}
	return m.Value, nil
}
