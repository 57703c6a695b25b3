package extractor

import (
	"fmt"
	"strings"
)

// Candidate is a substring of a model response believed to hold one Java method
type Candidate struct {
	// Start is the byte offset of the candidate inside the raw response
	Start int
	// OpenBraceLine is the 1-based line of the first '{', or 0 when there is none
	OpenBraceLine int
	// Closed reports whether the extraction scan saw the body brace close
	Closed bool
	// Text is the raw candidate text
	Text string
}

// Kind is the closed set of validity outcomes
type Kind int

const (
	NoMethodFound Kind = iota
	Invalid
	Empty
	Valid
)

// Output vocabulary persisted for non-valid verdicts
const (
	LabelNoMethod = "No Method"
	LabelInvalid  = "Not Valid"
	LabelEmpty    = "Empty Method"
)

// DefaultMaxStoredChars bounds the method text stored for a valid verdict
const DefaultMaxStoredChars = 32600

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case NoMethodFound:
		return "no_method"
	case Invalid:
		return "invalid"
	case Empty:
		return "empty"
	case Valid:
		return "valid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Verdict is the classification of one candidate
type Verdict struct {
	Kind Kind
	// EndLine is the 1-based candidate line closing the method, set for Valid only
	EndLine int
}

// IsValid reports whether the verdict carries a method span
func (v Verdict) IsValid() bool {
	return v.Kind == Valid
}

// Code returns the numeric encoding used by earlier result files:
// -3 no method, -1 invalid, -2 empty, otherwise the end line.
func (v Verdict) Code() int {
	switch v.Kind {
	case NoMethodFound:
		return -3
	case Empty:
		return -2
	case Valid:
		return v.EndLine
	default:
		return -1
	}
}

func (v Verdict) String() string {
	if v.Kind == Valid {
		return fmt.Sprintf("valid(%d)", v.EndLine)
	}
	return v.Kind.String()
}

// Result bundles the candidate with its verdict
type Result struct {
	Candidate *Candidate
	Verdict   Verdict
}

// Method returns the extracted method text, or "" when nothing was extracted
func (r Result) Method() string {
	if r.Candidate == nil {
		return ""
	}
	return r.Candidate.Text
}

// Label maps the result onto the stored output vocabulary. Valid results
// yield the extracted method truncated to maxChars and trimmed.
func (r Result) Label(maxChars int) string {
	switch r.Verdict.Kind {
	case NoMethodFound:
		return LabelNoMethod
	case Empty:
		return LabelEmpty
	case Valid:
		return Truncate(r.Method(), maxChars)
	default:
		return LabelInvalid
	}
}

// Truncate cuts s to at most maxChars bytes, backing off to a rune boundary,
// and trims surrounding whitespace. maxChars <= 0 disables the limit.
func Truncate(s string, maxChars int) string {
	if maxChars > 0 && len(s) > maxChars {
		cut := maxChars
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return strings.TrimSpace(s)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
