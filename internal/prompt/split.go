// Package prompt cuts a Java source file around the method to regenerate
// and builds the chat messages asking a model to write it.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrLineOutOfRange is returned when the file has no comment and signature
// line after the method start line
var ErrLineOutOfRange = errors.New("method start line out of range")

// Context is a source file split around a method. Line terminators are kept,
// so concatenating the four parts gives back the file.
type Context struct {
	Upper     string // lines 1..start
	Comment   string // line start+1
	Signature string // line start+2
	Lower     string // the rest
}

// Split cuts content at the method start line (1-based line numbers;
// the comment follows the start line and the signature follows the comment)
func Split(content string, start int) (*Context, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: %d", ErrLineOutOfRange, start)
	}

	lines := strings.SplitAfter(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	if len(lines) < start+2 {
		return nil, fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, start+2, len(lines))
	}

	return &Context{
		Upper:     strings.Join(lines[:start], ""),
		Comment:   lines[start],
		Signature: lines[start+1],
		Lower:     strings.Join(lines[start+2:], ""),
	}, nil
}

// Reconstruct rebuilds the file with the generated method in place of the
// original signature and body that followed the comment
func (c *Context) Reconstruct(method string) string {
	var sb strings.Builder
	sb.Grow(len(c.Upper) + len(c.Comment) + len(method) + len(c.Lower))
	sb.WriteString(c.Upper)
	sb.WriteString(c.Comment)
	sb.WriteString(method)
	sb.WriteString(c.Lower)
	return sb.String()
}

var (
	lineCommentRe  = regexp.MustCompile(`//.*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	blankLinesRe   = regexp.MustCompile(`\n\s*\n`)
)

// StripComments removes // and /* */ comments and collapses blank lines.
// It is a text filter: comment markers inside string literals are removed too.
func StripComments(src string) string {
	out := lineCommentRe.ReplaceAllString(src, "")
	out = blockCommentRe.ReplaceAllString(out, "")
	return blankLinesRe.ReplaceAllString(out, "\n")
}

// FitContext keeps the tail of upper so that upper, comment and signature
// together fit in maxChars characters. It reports whether upper was cut.
func FitContext(upper, comment, signature string, maxChars int) (string, bool) {
	fixed := utf8.RuneCountInString(comment) + utf8.RuneCountInString(signature)
	total := utf8.RuneCountInString(upper) + fixed
	if maxChars <= 0 || total <= maxChars {
		return upper, false
	}

	keep := maxChars - fixed
	if keep <= 0 {
		return "", true
	}

	runes := []rune(upper)
	return string(runes[len(runes)-keep:]), true
}
