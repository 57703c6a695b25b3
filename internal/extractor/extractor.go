// Package extractor isolates a Java method from raw model output and
// classifies whether it is usable.
//
// Extraction and classification are pure functions of the input text. An
// Extractor holds no mutable state and may be shared between goroutines.
package extractor

import (
	"strings"

	"github.com/tildaslashalef/methodgen/internal/signature"
)

const (
	javaFence  = "```java"
	commentEnd = "*/"
)

// plainBraces counts every brace, literal or not
var plainBraces = newTable(nil)

// Extractor finds and classifies generated methods
type Extractor struct {
	matcher        signature.Matcher
	legacyQuotes   bool
	legacyBodySpan bool
}

// Option configures an Extractor
type Option func(*Extractor)

// WithMatcher replaces the declaration matcher
func WithMatcher(m signature.Matcher) Option {
	return func(e *Extractor) {
		e.matcher = m
	}
}

// WithLegacyQuotes makes brace counting toggle string state on every double
// quote only, and makes extraction count every brace.
func WithLegacyQuotes() Option {
	return func(e *Extractor) {
		e.legacyQuotes = true
	}
}

// WithLegacyBodySpan restricts the emptiness check to the whole lines strictly
// between the opening brace line and the closing line.
func WithLegacyBodySpan() Option {
	return func(e *Extractor) {
		e.legacyBodySpan = true
	}
}

// New creates an Extractor using the regex declaration matcher by default
func New(opts ...Option) *Extractor {
	e := &Extractor{
		matcher: signature.NewRegexMatcher(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = New()

// Evaluate extracts and classifies raw using the default Extractor
func Evaluate(raw string) Result {
	return defaultExtractor.Evaluate(raw)
}

// Classify returns the verdict for raw using the default Extractor
func Classify(raw string) Verdict {
	return defaultExtractor.Evaluate(raw).Verdict
}

// Evaluate extracts the method from raw and classifies it
func (e *Extractor) Evaluate(raw string) Result {
	candidate, ok := e.Extract(raw)
	if !ok {
		return Result{Verdict: Verdict{Kind: NoMethodFound}}
	}
	return Result{
		Candidate: candidate,
		Verdict:   e.Classify(candidate),
	}
}

// Extract returns the candidate method in raw. It reports false only when raw
// holds no declaration at all; an unterminated method is still returned.
func (e *Extractor) Extract(raw string) (*Candidate, bool) {
	span, ok := e.matcher.Match(raw)
	if !ok {
		return nil, false
	}

	start := startOffset(raw, span.Start)
	return e.scan(raw, start), true
}

// startOffset skips a leading java fence and a doc comment after it
func startOffset(raw string, matchStart int) int {
	fence := strings.Index(raw, javaFence)
	if fence < 0 {
		return matchStart
	}

	start := fence + len(javaFence)
	if end := strings.Index(raw[start:], commentEnd); end >= 0 {
		start += end + len(commentEnd)
	}
	return start
}

func (e *Extractor) scan(raw string, start int) *Candidate {
	sc := newBraceScanner(e.legacyQuotes)
	if e.legacyQuotes {
		sc.table = plainBraces
	}

	end := len(raw)
	closed := false
	opened := false
	depth := 0
	for i := start; i < len(raw); i++ {
		delta := sc.Step(raw[i])
		if !opened {
			// closing braces before the body opens are ignored
			if delta > 0 {
				opened = true
				depth = 1
			}
			continue
		}

		depth += delta
		if depth == 0 {
			end = i + 1
			closed = true
			break
		}
	}

	text := raw[start:end]
	return &Candidate{
		Start:         start,
		OpenBraceLine: openBraceLine(text),
		Closed:        closed,
		Text:          text,
	}
}

// openBraceLine returns the 1-based line of the first '{', or 0
func openBraceLine(text string) int {
	idx := strings.IndexByte(text, '{')
	if idx < 0 {
		return 0
	}
	return strings.Count(text[:idx], "\n") + 1
}
