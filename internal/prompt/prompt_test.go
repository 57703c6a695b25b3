package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/methodgen/internal/llm"
)

const calculator = `package demo;

/* Simple calculator */
public class Calculator {
    // adds two numbers
    public int add(int a, int b) {
        return a + b;
    }
}
`

func TestSplit(t *testing.T) {
	c, err := Split(calculator, 4)
	require.NoError(t, err)

	assert.Equal(t, "package demo;\n\n/* Simple calculator */\npublic class Calculator {\n", c.Upper)
	assert.Equal(t, "    // adds two numbers\n", c.Comment)
	assert.Equal(t, "    public int add(int a, int b) {\n", c.Signature)
	assert.Equal(t, "        return a + b;\n    }\n}\n", c.Lower)
	assert.Equal(t, calculator, c.Upper+c.Comment+c.Signature+c.Lower)
}

func TestSplit_Edges(t *testing.T) {
	tests := []struct {
		name    string
		content string
		start   int
		wantErr bool
		check   func(t *testing.T, c *Context)
	}{
		{
			name:    "start at zero",
			content: "// c\nvoid f() {\n}\n",
			start:   0,
			check: func(t *testing.T, c *Context) {
				assert.Empty(t, c.Upper)
				assert.Equal(t, "// c\n", c.Comment)
				assert.Equal(t, "}\n", c.Lower)
			},
		},
		{
			name:    "signature on last line without newline",
			content: "class A {\n// c\nvoid f() {",
			start:   1,
			check: func(t *testing.T, c *Context) {
				assert.Equal(t, "void f() {", c.Signature)
				assert.Empty(t, c.Lower)
			},
		},
		{
			name:    "crlf input",
			content: "class A {\r\n// c\r\nvoid f() {\r\n}\r\n",
			start:   1,
			check: func(t *testing.T, c *Context) {
				assert.Equal(t, "// c\n", c.Comment)
				assert.Equal(t, "void f() {\n", c.Signature)
			},
		},
		{
			name:    "file too short",
			content: "class A {\n// c\n",
			start:   1,
			wantErr: true,
		},
		{
			name:    "negative start",
			content: calculator,
			start:   -1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Split(tt.content, tt.start)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrLineOutOfRange)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestReconstruct(t *testing.T) {
	c, err := Split(calculator, 4)
	require.NoError(t, err)

	method := "    public int add(int a, int b) {\n        return b + a;\n    }"
	got := c.Reconstruct(method)

	assert.True(t, strings.HasPrefix(got, c.Upper+c.Comment+method))
	assert.True(t, strings.HasSuffix(got, c.Lower))
	assert.NotContains(t, got, c.Signature+"        return a + b;")
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "int x = 1; // one\nint y;\n", "int x = 1; \nint y;\n"},
		{"block comment", "/* header\n * more\n */\nclass A {\n", "\nclass A {\n"},
		{"blank lines collapse", "a\n\n   \n\nb\n", "a\nb\n"},
		{"javadoc then code", "class A {\n  /** doc */\n  int x;\n", "class A {\n  int x;\n"},
		{"no comments", "class A {}\n", "class A {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripComments(tt.in))
		})
	}
}

func TestFitContext(t *testing.T) {
	tests := []struct {
		name      string
		upper     string
		max       int
		want      string
		truncated bool
	}{
		{"fits", "abcdef", 100, "abcdef", false},
		{"exact fit", "abcdef", 8, "abcdef", false},
		{"keeps tail", "abcdef", 5, "def", true},
		{"no room left", "abcdef", 2, "", true},
		{"counts characters not bytes", "ääää", 4, "ää", true},
		{"no limit", "abcdef", 0, "abcdef", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := FitContext(tt.upper, "c", "s", tt.max)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.truncated, truncated)
		})
	}
}

func TestBuildAndMessages(t *testing.T) {
	c, err := Split(calculator, 4)
	require.NoError(t, err)

	p := Build(c, 16350)
	assert.False(t, p.Truncated)
	assert.NotContains(t, p.Context, "Simple calculator")
	assert.Equal(t, []string{p.Context, c.Comment, c.Signature}, p.Pieces())

	msgs, err := p.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, SystemInstruction, msgs[0].Content)
	assert.Equal(t, llm.RoleUser, msgs[1].Role)

	want := "Write a valid Java method with implementation logic whose preceding code context is: " +
		"package demo;\npublic class Calculator {\n" +
		",whose comment is :     // adds two numbers\n" +
		"and the method signature is:     public int add(int a, int b) {\n"
	assert.Equal(t, want, msgs[1].Content)
}

func TestBuild_Truncates(t *testing.T) {
	c := &Context{
		Upper:     strings.Repeat("int field;\n", 100),
		Comment:   "// c\n",
		Signature: "void f() {\n",
	}

	p := Build(c, 50)
	assert.True(t, p.Truncated)
	assert.Equal(t, 50, len(p.Context)+len(p.Comment)+len(p.Signature))
}
