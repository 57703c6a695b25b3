// Package workspace manages the checked-out projects the generated methods
// are tested in.
package workspace

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	javaExt    = ".java"
	testSuffix = "Test"
)

// Target locates a sample's method inside its project
type Target struct {
	Project    string // directory name under the repos dir
	SourcePath string // project relative, forward slashes
}

// TestPath maps a main source path to the path of its unit test: the first
// "main" segment becomes "test" and Foo.java becomes FooTest.java.
func TestPath(sourcePath string) string {
	segments := strings.Split(filepath.ToSlash(sourcePath), "/")
	for i, seg := range segments {
		if seg == "main" {
			segments[i] = "test"
			break
		}
	}

	last := len(segments) - 1
	if strings.HasSuffix(segments[last], javaExt) {
		segments[last] = strings.TrimSuffix(segments[last], javaExt) + testSuffix + javaExt
	}

	return strings.Join(segments, "/")
}

// TestClass returns the simple name of the unit test class for a source path
func TestClass(sourcePath string) string {
	return strings.TrimSuffix(path.Base(TestPath(sourcePath)), javaExt)
}

// ProjectDir returns the checkout directory of a project
func ProjectDir(reposDir, project string) string {
	return filepath.Join(reposDir, project)
}

// SourceFile returns the absolute location of the target's source file
func (t Target) SourceFile(reposDir string) string {
	return filepath.Join(ProjectDir(reposDir, t.Project), filepath.FromSlash(t.SourcePath))
}

// TestFile returns the absolute location of the target's unit test
func (t Target) TestFile(reposDir string) string {
	return filepath.Join(ProjectDir(reposDir, t.Project), filepath.FromSlash(TestPath(t.SourcePath)))
}

// TestClass returns the unit test class name of the target
func (t Target) TestClass() string {
	return TestClass(t.SourcePath)
}
