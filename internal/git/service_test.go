package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/methodgen/internal/loggy"
)

// setupTempGitRepo creates a repository with one committed Java file
func setupTempGitRepo(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	createFile(t, dir, "src/main/java/demo/Calculator.java", "public class Calculator {}\n")

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("src/main/java/demo/Calculator.java")
	require.NoError(t, err)

	_, err = worktree.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func createFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestHasGitRepo(t *testing.T) {
	svc := NewService(loggy.NewNoopLogger())

	repo := setupTempGitRepo(t)
	assert.True(t, svc.HasGitRepo(repo))
	assert.True(t, svc.HasGitRepo(filepath.Join(repo, "src", "main")), "nested paths detect the parent repository")
	assert.False(t, svc.HasGitRepo(t.TempDir()))
}

func TestRoot(t *testing.T) {
	svc := NewService(nil)
	repo := setupTempGitRepo(t)

	root, err := svc.Root(filepath.Join(repo, "src", "main", "java"))
	require.NoError(t, err)
	assert.Equal(t, repo, root)

	_, err = svc.Root(t.TempDir())
	assert.ErrorIs(t, err, ErrNoRepository)
}

func TestChangedFiles(t *testing.T) {
	svc := NewService(nil)
	repo := setupTempGitRepo(t)

	files, err := svc.ChangedFiles(repo)
	require.NoError(t, err)
	assert.Empty(t, files)

	createFile(t, repo, "src/main/java/demo/Calculator.java", "public class Calculator { int x; }\n")
	createFile(t, repo, "notes.txt", "scratch\n")

	files, err = svc.ChangedFiles(repo)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "notes.txt", files[0].Path)
	assert.Equal(t, "untracked", files[0].Worktree)
	assert.Equal(t, "src/main/java/demo/Calculator.java", files[1].Path)
	assert.Equal(t, "modified", files[1].Worktree)
}

func TestIsModified(t *testing.T) {
	svc := NewService(nil)
	repo := setupTempGitRepo(t)
	source := filepath.Join(repo, "src", "main", "java", "demo", "Calculator.java")

	modified, err := svc.IsModified(source)
	require.NoError(t, err)
	assert.False(t, modified)

	createFile(t, repo, "src/main/java/demo/Calculator.java", "public class Calculator { }\n")

	modified, err = svc.IsModified(source)
	require.NoError(t, err)
	assert.True(t, modified)
}
