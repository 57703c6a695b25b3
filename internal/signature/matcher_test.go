package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexMatcher_Match(t *testing.T) {
	matcher := NewRegexMatcher()

	tests := []struct {
		name     string
		text     string
		wantName string
		wantLine string
	}{
		{
			name:     "simple method",
			text:     "public int add(int a, int b) {",
			wantName: "add",
			wantLine: "public int add(int a, int b) {",
		},
		{
			name:     "package private without modifiers",
			text:     "int[] values() {\n    return data;\n}",
			wantName: "values",
			wantLine: "int[] values() {",
		},
		{
			name:     "constructor",
			text:     "public Foo(int x) {",
			wantName: "Foo",
			wantLine: "public Foo(int x) {",
		},
		{
			name:     "annotation on the same line",
			text:     "@Override public String toString() {",
			wantName: "toString",
			wantLine: "@Override public String toString() {",
		},
		{
			name:     "generic method",
			text:     "public <T> List<T> wrap(T value) {",
			wantName: "wrap",
			wantLine: "public <T> List<T> wrap(T value) {",
		},
		{
			name:     "generic return type with spaces",
			text:     "    Map<String, Integer> counts(List<String> words) {",
			wantName: "counts",
			wantLine: "    Map<String, Integer> counts(List<String> words) {",
		},
		{
			name:     "truncated parameter list",
			text:     "private static boolean isValid(String input,",
			wantName: "isValid",
			wantLine: "private static boolean isValid(String input,",
		},
		{
			name:     "skips prose before the declaration",
			text:     "Here is the implementation:\n\npublic void run() {\n}",
			wantName: "run",
			wantLine: "public void run() {",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, ok := matcher.Match(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, span.Name)
			assert.Equal(t, tt.wantLine, span.Line)
		})
	}
}

func TestRegexMatcher_NoMatch(t *testing.T) {
	matcher := NewRegexMatcher()

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"prose", "Sorry, I cannot write that method."},
		{"return statement with call", "    return compute(a, b);"},
		{"method call", "    System.out.println(value);"},
		{"bare call", "    validate(input);"},
		{"assignment from call", "    String s = format(value);"},
		{"generic assignment", "    List<String> names = new ArrayList<>();"},
		{"if statement", "    if (a > b) {"},
		{"else if", "    else if (a < b) {"},
		{"for loop", "    for (int i = 0; i < n; i++) {"},
		{"synchronized block", "    synchronized (lock) {"},
		{"throw", "    throw new IllegalStateException(\"x\");"},
		{"comment line", "    // call helper(x) here"},
		{"javadoc line", "     * Returns add(a, b)"},
		{"import", "import java.util.List;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := matcher.Match(tt.text)
			assert.False(t, ok)
		})
	}
}

func TestRegexMatcher_Offsets(t *testing.T) {
	matcher := NewRegexMatcher()
	text := "import java.util.List;\n  private static String name(String s) {\n    return s;\n}"

	span, ok := matcher.Match(text)
	require.True(t, ok)

	assert.Equal(t, "private", text[span.Start:span.Start+len("private")])
	assert.Equal(t, "  private static String name(String s) {", text[span.Start-2:span.End])
	assert.Equal(t, "name", span.Name)
}

func TestIsImportOrPackage(t *testing.T) {
	assert.True(t, IsImportOrPackage("import java.util.List;"))
	assert.True(t, IsImportOrPackage("  import static org.junit.Assert.assertEquals;"))
	assert.True(t, IsImportOrPackage("package com.example.util;"))
	assert.False(t, IsImportOrPackage("public void importData() {"))
	assert.False(t, IsImportOrPackage("// package docs"))
}

func TestFirstLine(t *testing.T) {
	matcher := NewRegexMatcher()

	assert.Equal(t, "", FirstLine(matcher, "    return a + b;\n}"))
	assert.Equal(t, "public int sub(int a, int b) {",
		FirstLine(matcher, "    return a + b;\n}\npublic int sub(int a, int b) {\n    return a - b;\n}"))
}
