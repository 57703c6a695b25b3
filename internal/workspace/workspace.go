package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tildaslashalef/methodgen/internal/git"
	"github.com/tildaslashalef/methodgen/internal/loggy"
)

// BackupSuffix is appended to a source file while generated content replaces it
const BackupSuffix = ".methodgen-bak"

var (
	// ErrProjectNotFound is returned when a project has no checkout
	ErrProjectNotFound = errors.New("project not found")

	// ErrAlreadyInjected is returned when a file already carries a backup
	ErrAlreadyInjected = errors.New("source file already replaced")
)

// RestoreFunc puts the original source file back
type RestoreFunc func() error

// Workspace swaps generated sources into project checkouts
type Workspace struct {
	reposDir string
	git      *git.Service
	logger   *loggy.Logger
	mu       sync.Mutex
}

// New creates a Workspace rooted at reposDir. gitService may be nil, which
// disables the dirty worktree check.
func New(reposDir string, gitService *git.Service, logger *loggy.Logger) *Workspace {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Workspace{
		reposDir: reposDir,
		git:      gitService,
		logger:   logger,
	}
}

// ReposDir returns the directory holding the project checkouts
func (w *Workspace) ReposDir() string {
	return w.reposDir
}

// ProjectDir returns the checkout directory of project, or ErrProjectNotFound
func (w *Workspace) ProjectDir(project string) (string, error) {
	if project == "" || strings.ContainsAny(project, `/\`) || project == ".." {
		return "", fmt.Errorf("%w: invalid name %q", ErrProjectNotFound, project)
	}

	dir := ProjectDir(w.reposDir, project)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrProjectNotFound, dir)
		}
		return "", fmt.Errorf("checking project dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrProjectNotFound, dir)
	}
	return dir, nil
}

// CheckClean logs a warning for every change in the project's worktree.
// Projects outside git are reported clean.
func (w *Workspace) CheckClean(project string) ([]git.ChangedFile, error) {
	dir, err := w.ProjectDir(project)
	if err != nil {
		return nil, err
	}

	if w.git == nil || !w.git.HasGitRepo(dir) {
		return nil, nil
	}

	changed, err := w.git.ChangedFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("reading worktree status: %w", err)
	}

	for _, f := range changed {
		w.logger.Warn("Project worktree is not clean", "project", project, "file", f.Path, "status", f.Worktree)
	}
	return changed, nil
}

// Inject writes content over the target's source file and returns a function
// restoring the original. The original is kept next to the file until the
// restore succeeds so that an interrupted run can be recovered.
func (w *Workspace) Inject(t Target, content string) (RestoreFunc, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.ProjectDir(t.Project); err != nil {
		return nil, err
	}

	file := t.SourceFile(w.reposDir)
	backup := file + BackupSuffix

	if _, err := os.Stat(backup); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInjected, file)
	}

	original, err := os.ReadFile(file)
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading source file: %w", err)
	}

	mode := fs.FileMode(0644)
	if existed {
		if info, err := os.Stat(file); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(backup, original, mode); err != nil {
			return nil, fmt.Errorf("writing backup: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("creating source dir: %w", err)
	}

	if err := os.WriteFile(file, []byte(content), mode); err != nil {
		if existed {
			_ = os.Remove(backup)
		}
		return nil, fmt.Errorf("writing generated source: %w", err)
	}

	w.logger.Debug("Injected generated source", "project", t.Project, "file", t.SourcePath)

	var once sync.Once
	var restoreErr error
	restore := func() error {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()

			if !existed {
				if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
					restoreErr = fmt.Errorf("removing generated source: %w", err)
				}
				return
			}

			if err := os.WriteFile(file, original, mode); err != nil {
				restoreErr = fmt.Errorf("restoring %s: %w", file, err)
				return
			}
			if err := os.Remove(backup); err != nil {
				restoreErr = fmt.Errorf("removing backup: %w", err)
				return
			}
			w.logger.Debug("Restored original source", "project", t.Project, "file", t.SourcePath)
		})
		return restoreErr
	}

	return restore, nil
}

// Recover restores every source file a previous run left replaced in the
// project and returns the restored paths
func (w *Workspace) Recover(project string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir, err := w.ProjectDir(project)
	if err != nil {
		return nil, err
	}

	var restored []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "target" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), BackupSuffix) {
			return nil
		}

		original := strings.TrimSuffix(p, BackupSuffix)
		if err := os.Rename(p, original); err != nil {
			return fmt.Errorf("restoring %s: %w", original, err)
		}
		restored = append(restored, original)
		w.logger.Warn("Recovered source file from an interrupted run", "project", project, "file", original)
		return nil
	})
	if err != nil {
		return restored, fmt.Errorf("recovering project %s: %w", project, err)
	}

	return restored, nil
}
