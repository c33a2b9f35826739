// Package gitutil inspects the git work trees that fix targets live in.
package gitutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"

	"github.com/sevigo/code-fixer/internal/filelock"
)

var ErrDirtyTarget = errors.New("target file has uncommitted changes")

// DirtyTarget is a fix target whose current contents git could not restore.
type DirtyTarget struct {
	Path   string
	Reason string
}

// Client handles interacting with Git repositories.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// Open opens the repository containing path, searching parent directories.
// path may name a file or a directory that does not exist yet.
func (c *Client) Open(path string) (*git.Repository, string, error) {
	dir := existingDir(path)
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, "", fmt.Errorf("failed to open repository for %s: %w", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open worktree for %s: %w", path, err)
	}
	return repo, wt.Filesystem.Root(), nil
}

// HeadSHA returns the commit HEAD points at for the repository containing path.
func (c *Client) HeadSHA(path string) (string, error) {
	repo, _, err := c.Open(path)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// DirtyTargets reports every path that is modified, staged, untracked or
// outside any repository. Status is computed once per repository.
func (c *Client) DirtyTargets(paths []string) ([]DirtyTarget, error) {
	type repoStatus struct {
		root   string
		status git.Status
	}
	cache := make(map[string]*repoStatus)
	seen := make(map[string]struct{})
	var dirty []DirtyTarget

	for _, raw := range paths {
		path, err := filelock.Canonical(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}

		_, root, err := c.Open(path)
		if err != nil {
			if errors.Is(err, git.ErrRepositoryNotExists) {
				dirty = append(dirty, DirtyTarget{Path: path, Reason: "not inside a git repository"})
				continue
			}
			return nil, err
		}

		rs, ok := cache[root]
		if !ok {
			repo, _, err := c.Open(root)
			if err != nil {
				return nil, err
			}
			wt, err := repo.Worktree()
			if err != nil {
				return nil, fmt.Errorf("failed to open worktree %s: %w", root, err)
			}
			status, err := wt.Status()
			if err != nil {
				return nil, fmt.Errorf("failed to compute status of %s: %w", root, err)
			}
			rs = &repoStatus{root: root, status: status}
			cache[root] = rs
			c.Logger.Debug("computed worktree status", "root", root, "entries", len(status))
		}

		rel, err := filepath.Rel(rs.root, path)
		if err != nil {
			return nil, fmt.Errorf("failed to relate %s to %s: %w", path, rs.root, err)
		}
		fs, ok := rs.status[filepath.ToSlash(rel)]
		if !ok {
			continue
		}
		switch {
		case fs.Worktree == git.Untracked:
			dirty = append(dirty, DirtyTarget{Path: path, Reason: "untracked"})
		case fs.Staging != git.Unmodified || fs.Worktree != git.Unmodified:
			dirty = append(dirty, DirtyTarget{Path: path, Reason: "uncommitted changes"})
		}
	}

	sort.Slice(dirty, func(i, j int) bool { return dirty[i].Path < dirty[j].Path })
	return dirty, nil
}

// existingDir walks up from path until it finds a directory that exists.
func existingDir(path string) string {
	current := path
	for {
		info, err := os.Stat(current)
		if err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
