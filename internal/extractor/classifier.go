package extractor

import (
	"strings"

	"github.com/tildaslashalef/methodgen/internal/signature"
)

// Classify decides whether candidate is a complete, non-empty method.
//
// The first declaration found below the opening brace line acts as a
// fence: a method whose braces have not closed by the time that line is
// reached is Invalid, and lines from that declaration on are never part of
// a Valid span.
func (e *Extractor) Classify(candidate *Candidate) Verdict {
	if candidate == nil {
		return Verdict{Kind: NoMethodFound}
	}

	text := normalizeNewlines(candidate.Text)
	openLine := openBraceLine(text)
	if openLine == 0 {
		return Verdict{Kind: Invalid}
	}

	lines := splitLines(text)
	// the body region starts below the declaration, which may be preceded
	// by blank lines left over from a stripped code fence
	hint := ""
	if len(lines) > openLine {
		hint = signature.FirstLine(e.matcher, strings.Join(lines[openLine:], "\n"))
	}
	hintKey := squeeze(hint)

	sc := newBraceScanner(e.legacyQuotes)
	consumed := 0
	closingLine := 0
	for i, line := range lines {
		lineNo := i + 1
		balance := sc.Feed(line + "\n")
		key := squeeze(line)

		if balance == 0 && key != hintKey && lineNo > openLine {
			closingLine = lineNo
			break
		}
		if key != "" && key == hintKey {
			return Verdict{Kind: Invalid}
		}
		consumed++
	}

	if closingLine == 0 {
		return Verdict{Kind: Invalid}
	}

	if e.bodyIsEmpty(lines, openLine, closingLine) {
		return Verdict{Kind: Empty}
	}
	return Verdict{Kind: Valid, EndLine: consumed + 1}
}

// bodyIsEmpty reports whether the body between the opening brace and the
// closing line holds nothing but blanks and comments.
func (e *Extractor) bodyIsEmpty(lines []string, openLine, closingLine int) bool {
	if e.legacyBodySpan {
		// lines[openLine:closingLine-1] in 0-based terms
		for _, line := range lines[min(openLine, closingLine-1) : closingLine-1] {
			if !isBlankOrComment(line, false) {
				return false
			}
		}
		return true
	}

	var segments []string

	braceLine := lines[openLine-1]
	segments = append(segments, braceLine[strings.IndexByte(braceLine, '{')+1:])
	segments = append(segments, lines[openLine:closingLine-1]...)

	closing := lines[closingLine-1]
	if idx := strings.LastIndexByte(closing, '}'); idx >= 0 {
		segments = append(segments, closing[:idx])
	}

	for _, seg := range segments {
		if !isBlankOrComment(seg, true) {
			return false
		}
	}
	return true
}

func isBlankOrComment(line string, continuation bool) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return true
	case strings.HasPrefix(trimmed, "//"), strings.HasPrefix(trimmed, "/*"):
		return true
	case continuation && strings.HasPrefix(trimmed, "*"):
		return true
	}
	return false
}

// squeeze drops all whitespace so lines compare independent of layout
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// splitLines splits on newlines without producing a trailing empty line
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
