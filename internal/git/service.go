// Package git reports the state of the project checkouts the generated
// methods are tested in.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"

	"github.com/tildaslashalef/methodgen/internal/loggy"
)

// ErrNoRepository is returned when the path is not inside a git worktree
var ErrNoRepository = errors.New("not a git repository")

// ChangedFile is a worktree entry that differs from HEAD
type ChangedFile struct {
	Path     string // relative to the repository root
	Staging  string
	Worktree string
}

// Service provides Git status queries
type Service struct {
	logger *loggy.Logger
}

// NewService creates a new Git service
func NewService(logger *loggy.Logger) *Service {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Service{logger: logger}
}

// open finds the repository containing path
func (s *Service) open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNoRepository, path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening git repo: %w", err)
	}
	return repo, nil
}

// HasGitRepo checks if path is inside a Git repository
func (s *Service) HasGitRepo(path string) bool {
	_, err := s.open(path)
	if err != nil {
		s.logger.Debug("Not a valid Git repository", "path", path, "error", err)
		return false
	}
	return true
}

// Root returns the top level directory of the worktree containing path
func (s *Service) Root(path string) (string, error) {
	repo, err := s.open(path)
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// ChangedFiles lists files that differ from HEAD, sorted by path
func (s *Service) ChangedFiles(path string) ([]ChangedFile, error) {
	repo, err := s.open(path)
	if err != nil {
		return nil, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("getting worktree status: %w", err)
	}

	files := make([]ChangedFile, 0, len(status))
	for filePath, fileStatus := range status {
		if fileStatus.Staging == git.Unmodified && fileStatus.Worktree == git.Unmodified {
			continue
		}
		files = append(files, ChangedFile{
			Path:     filePath,
			Staging:  statusName(fileStatus.Staging),
			Worktree: statusName(fileStatus.Worktree),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	s.logger.Debug("Worktree status retrieved", "path", path, "changed", len(files))
	return files, nil
}

// IsModified reports whether file (absolute, or relative to the working
// directory) differs from HEAD
func (s *Service) IsModified(file string) (bool, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return false, err
	}

	root, err := s.Root(filepath.Dir(abs))
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false, err
	}
	rel = filepath.ToSlash(rel)

	files, err := s.ChangedFiles(root)
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if f.Path == rel {
			return true, nil
		}
	}
	return false, nil
}

func statusName(code git.StatusCode) string {
	switch code {
	case git.Unmodified:
		return "unmodified"
	case git.Untracked:
		return "untracked"
	case git.Modified:
		return "modified"
	case git.Added:
		return "added"
	case git.Deleted:
		return "deleted"
	case git.Renamed:
		return "renamed"
	case git.Copied:
		return "copied"
	case git.UpdatedButUnmerged:
		return "unmerged"
	default:
		return string(rune(code))
	}
}
