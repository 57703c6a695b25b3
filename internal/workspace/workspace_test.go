package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/methodgen/internal/git"
	"github.com/tildaslashalef/methodgen/internal/loggy"
)

const calculatorPath = "src/main/java/org/demo/Calculator.java"

func TestTestPath(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
		class  string
	}{
		{"maven layout", calculatorPath, "src/test/java/org/demo/CalculatorTest.java", "CalculatorTest"},
		{"main only replaced once", "src/main/java/main/Main.java", "src/test/java/main/MainTest.java", "MainTest"},
		{"no main segment", "lib/Util.java", "lib/UtilTest.java", "UtilTest"},
		{"domain word kept", "src/main/java/org/mainframe/Job.java", "src/test/java/org/mainframe/JobTest.java", "JobTest"},
		{"not java", "src/main/resources/app.properties", "src/test/resources/app.properties", "app.properties"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TestPath(tt.source))
			assert.Equal(t, tt.class, TestClass(tt.source))
		})
	}
}

func TestTargetPaths(t *testing.T) {
	target := Target{Project: "calc", SourcePath: calculatorPath}

	assert.Equal(t, filepath.Join("/repos", "calc", "src", "main", "java", "org", "demo", "Calculator.java"), target.SourceFile("/repos"))
	assert.Equal(t, filepath.Join("/repos", "calc", "src", "test", "java", "org", "demo", "CalculatorTest.java"), target.TestFile("/repos"))
	assert.Equal(t, "CalculatorTest", target.TestClass())
}

func setupProject(t *testing.T) (string, Target) {
	t.Helper()

	repos := t.TempDir()
	target := Target{Project: "calc", SourcePath: calculatorPath}
	file := target.SourceFile(repos)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte("class Calculator { int add() { return 0; } }\n"), 0640))
	return repos, target
}

func TestProjectDir(t *testing.T) {
	repos, _ := setupProject(t)
	ws := New(repos, nil, nil)

	dir, err := ws.ProjectDir("calc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(repos, "calc"), dir)

	for _, name := range []string{"missing", "", "..", "a/b"} {
		_, err := ws.ProjectDir(name)
		assert.ErrorIs(t, err, ErrProjectNotFound, name)
	}
}

func TestInject(t *testing.T) {
	repos, target := setupProject(t)
	ws := New(repos, nil, loggy.NewNoopLogger())
	file := target.SourceFile(repos)

	original, err := os.ReadFile(file)
	require.NoError(t, err)

	restore, err := ws.Inject(target, "class Calculator { int add() { return 1 + 1; } }\n")
	require.NoError(t, err)

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(got), "return 1 + 1;")
	assert.FileExists(t, file+BackupSuffix)

	_, err = ws.Inject(target, "again")
	assert.ErrorIs(t, err, ErrAlreadyInjected)

	require.NoError(t, restore())
	require.NoError(t, restore(), "restore is idempotent")

	got, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, original, got)
	assert.NoFileExists(t, file+BackupSuffix)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

func TestInject_NewFile(t *testing.T) {
	repos, _ := setupProject(t)
	ws := New(repos, nil, nil)
	target := Target{Project: "calc", SourcePath: "src/main/java/org/demo/extra/Fresh.java"}

	restore, err := ws.Inject(target, "class Fresh {}\n")
	require.NoError(t, err)
	assert.FileExists(t, target.SourceFile(repos))

	require.NoError(t, restore())
	assert.NoFileExists(t, target.SourceFile(repos))
}

func TestInject_UnknownProject(t *testing.T) {
	ws := New(t.TempDir(), nil, nil)

	_, err := ws.Inject(Target{Project: "nope", SourcePath: calculatorPath}, "x")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestRecover(t *testing.T) {
	repos, target := setupProject(t)
	ws := New(repos, nil, nil)
	file := target.SourceFile(repos)

	_, err := ws.Inject(target, "broken generated code")
	require.NoError(t, err)

	// simulate a crash: the restore func is never called
	fresh := New(repos, nil, nil)
	restored, err := fresh.Recover("calc")
	require.NoError(t, err)
	assert.Equal(t, []string{file}, restored)

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(got), "return 0;")
	assert.NoFileExists(t, file+BackupSuffix)

	restored, err = fresh.Recover("calc")
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestCheckClean(t *testing.T) {
	repos, target := setupProject(t)
	projectDir := filepath.Join(repos, target.Project)

	repo, err := gogit.PlainInit(projectDir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(target.SourcePath)
	require.NoError(t, err)
	_, err = wt.Commit("import", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	ws := New(repos, git.NewService(nil), nil)

	changed, err := ws.CheckClean("calc")
	require.NoError(t, err)
	assert.Empty(t, changed)

	restore, err := ws.Inject(target, "class Calculator {}\n")
	require.NoError(t, err)

	changed, err = ws.CheckClean("calc")
	require.NoError(t, err)
	paths := make([]string, 0, len(changed))
	for _, c := range changed {
		paths = append(paths, c.Path)
	}
	assert.Contains(t, paths, target.SourcePath)

	require.NoError(t, restore())
	changed, err = ws.CheckClean("calc")
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestCheckClean_NoGit(t *testing.T) {
	repos, _ := setupProject(t)
	ws := New(repos, git.NewService(nil), nil)

	changed, err := ws.CheckClean("calc")
	require.NoError(t, err)
	assert.Nil(t, changed)
}
