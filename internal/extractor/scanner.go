package extractor

// scanState is the lexical state used while counting braces
type scanState int

const (
	stateCode scanState = iota
	stateSlash
	stateLineComment
	stateBlockComment
	stateBlockStar
	stateInString
	stateStringEscape
	stateInChar
	stateCharEscape
	numStates
)

// charClass groups the characters that drive state transitions
type charClass int

const (
	classOther charClass = iota
	classQuote
	classApostrophe
	classBackslash
	classSlash
	classStar
	classNewline
	numClasses
)

func classOf(c byte) charClass {
	switch c {
	case '"':
		return classQuote
	case '\'':
		return classApostrophe
	case '\\':
		return classBackslash
	case '/':
		return classSlash
	case '*':
		return classStar
	case '\n':
		return classNewline
	default:
		return classOther
	}
}

type transitionTable [numStates][numClasses]scanState

type transitions map[scanState]map[charClass]scanState

// newTable builds a table where every state stays put unless overridden
func newTable(overrides transitions) *transitionTable {
	var t transitionTable
	for s := range t {
		for c := range t[s] {
			t[s][c] = scanState(s)
		}
	}
	for s, row := range overrides {
		for c, next := range row {
			t[s][c] = next
		}
	}
	return &t
}

func all(next scanState) map[charClass]scanState {
	row := make(map[charClass]scanState, numClasses)
	for c := charClass(0); c < numClasses; c++ {
		row[c] = next
	}
	return row
}

// javaLiterals skips string literals, char literals and comments, with
// backslash escapes. Literals never span a newline.
var javaLiterals = newTable(transitions{
	stateCode: {
		classQuote:      stateInString,
		classApostrophe: stateInChar,
		classSlash:      stateSlash,
	},
	stateSlash: {
		classOther:      stateCode,
		classQuote:      stateInString,
		classApostrophe: stateInChar,
		classBackslash:  stateCode,
		classSlash:      stateLineComment,
		classStar:       stateBlockComment,
		classNewline:    stateCode,
	},
	stateLineComment: {
		classNewline: stateCode,
	},
	stateBlockComment: {
		classStar: stateBlockStar,
	},
	stateBlockStar: {
		classOther:      stateBlockComment,
		classQuote:      stateBlockComment,
		classApostrophe: stateBlockComment,
		classBackslash:  stateBlockComment,
		classSlash:      stateCode,
		classNewline:    stateBlockComment,
	},
	stateInString: {
		classQuote:     stateCode,
		classBackslash: stateStringEscape,
		classNewline:   stateCode,
	},
	stateStringEscape: all(stateInString),
	stateInChar: {
		classApostrophe: stateCode,
		classBackslash:  stateCharEscape,
		classNewline:    stateCode,
	},
	stateCharEscape: all(stateInChar),
})

// legacyQuotes toggles between code and string on every double quote,
// ignoring escapes, char literals and comments.
var legacyQuotes = newTable(transitions{
	stateCode:     {classQuote: stateInString},
	stateInString: {classQuote: stateCode},
})

// braceScanner keeps a brace balance that ignores braces outside code.
// State carries across calls.
type braceScanner struct {
	table   *transitionTable
	state   scanState
	balance int
}

func newBraceScanner(legacy bool) *braceScanner {
	if legacy {
		return &braceScanner{table: legacyQuotes}
	}
	return &braceScanner{table: javaLiterals}
}

// Step consumes one byte and returns its brace delta
func (b *braceScanner) Step(c byte) int {
	delta := 0
	if b.state == stateCode || b.state == stateSlash {
		switch c {
		case '{':
			delta = 1
		case '}':
			delta = -1
		}
	}
	b.state = b.table[b.state][classOf(c)]
	b.balance += delta
	return delta
}

// Feed consumes s and returns the balance afterwards
func (b *braceScanner) Feed(s string) int {
	for i := 0; i < len(s); i++ {
		b.Step(s[i])
	}
	return b.balance
}
