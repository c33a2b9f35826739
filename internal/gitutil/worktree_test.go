package gitutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// initRepo creates a repository with clean.py and edited.py committed.
func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for _, name := range []string{"clean.py", "edited.py"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x = 1\n"), 0o600))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "fixer", Email: "fixer@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestDirtyTargets(t *testing.T) {
	dir, _ := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edited.py"), []byte("x = 2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.py"), []byte("y = 1\n"), 0o600))

	dirty, err := newTestClient().DirtyTargets([]string{
		filepath.Join(dir, "clean.py"),
		filepath.Join(dir, "edited.py"),
		filepath.Join(dir, "new.py"),
		filepath.Join(dir, "edited.py"),
		filepath.Join(dir, "not-yet-created.py"),
	})
	require.NoError(t, err)
	require.Len(t, dirty, 2)

	assert.Equal(t, "edited.py", filepath.Base(dirty[0].Path))
	assert.Equal(t, "uncommitted changes", dirty[0].Reason)
	assert.Equal(t, "new.py", filepath.Base(dirty[1].Path))
	assert.Equal(t, "untracked", dirty[1].Reason)
}

func TestDirtyTargetsOutsideRepository(t *testing.T) {
	dir := t.TempDir()
	dirty, err := newTestClient().DirtyTargets([]string{filepath.Join(dir, "loose.py")})
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, "not inside a git repository", dirty[0].Reason)
}

func TestHeadSHA(t *testing.T) {
	dir, want := initRepo(t)
	got, err := newTestClient().HeadSHA(filepath.Join(dir, "clean.py"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
