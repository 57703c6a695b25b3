// Package signature recognizes the textual start of a Java method declaration.
//
// The matcher is a heuristic, not a grammar. It is used to seed method
// extraction and to find the next declaration that terminates a method.
package signature

import (
	"regexp"
	"strings"
)

// Span is a located declaration inside a text
type Span struct {
	// Start is the byte offset where the declaration begins
	Start int
	// End is the byte offset just past the declaration line
	End int
	// Line is the full declaration line, without the trailing newline
	Line string
	// Name is the method identifier
	Name string
}

// Matcher finds the first method declaration in a text
type Matcher interface {
	Match(text string) (Span, bool)
}

const modifiers = `public|private|protected|static|final|native|synchronized|abstract|transient|void|boolean|default|strictfp`

// declPattern is applied to a single line. Group 1 holds the modifiers,
// group 2 the optional return type and group 3 the method name.
var declPattern = regexp.MustCompile(
	`^[ \t]*` +
		`(?:@[\w$.]+(?:\([^)]*\))?\s+)*` +
		`((?:(?:` + modifiers + `)\s+)*)` +
		`(?:<[^()]*>\s+)?` +
		`(?:([\w$][\w$.]*(?:<[^()]*>)?(?:\s*\[\s*\])*)\s+)?` +
		`([\w$]+)\s*\(`,
)

// statementWords can never start or name a declaration
var statementWords = map[string]bool{
	"return": true, "new": true, "throw": true, "throws": true, "else": true,
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"case": true, "do": true, "try": true, "assert": true, "yield": true,
	"super": true, "this": true,
}

// RegexMatcher is the default line-oriented Matcher
type RegexMatcher struct{}

// NewRegexMatcher returns the default declaration matcher
func NewRegexMatcher() *RegexMatcher {
	return &RegexMatcher{}
}

// Match returns the first declaration-like line in text
func (m *RegexMatcher) Match(text string) (Span, bool) {
	offset := 0
	for offset <= len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		lineEnd := len(text)
		if end >= 0 {
			lineEnd = offset + end
		}
		line := strings.TrimSuffix(text[offset:lineEnd], "\r")

		if span, ok := matchLine(line); ok {
			span.Start += offset
			span.End = lineEnd
			return span, true
		}

		if end < 0 {
			break
		}
		offset = lineEnd + 1
	}
	return Span{}, false
}

func matchLine(line string) (Span, bool) {
	if IsImportOrPackage(line) {
		return Span{}, false
	}

	loc := declPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return Span{}, false
	}

	mods := submatch(line, loc, 1)
	returnType := submatch(line, loc, 2)
	name := submatch(line, loc, 3)

	// a bare call such as foo(x) has neither
	if strings.TrimSpace(mods) == "" && returnType == "" {
		return Span{}, false
	}
	if statementWords[returnType] || statementWords[name] {
		return Span{}, false
	}

	start := len(line) - len(strings.TrimLeft(line, " \t"))
	return Span{
		Start: start,
		Line:  line,
		Name:  name,
	}, true
}

func submatch(s string, loc []int, group int) string {
	if loc[2*group] < 0 {
		return ""
	}
	return s[loc[2*group]:loc[2*group+1]]
}

// IsImportOrPackage reports whether line is an import or package statement
func IsImportOrPackage(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "package ")
}

// FirstLine returns the declaration line of the first match, or "" when
// text holds no declaration.
func FirstLine(m Matcher, text string) string {
	span, ok := m.Match(text)
	if !ok {
		return ""
	}
	return span.Line
}
