// Package gitops snapshots pipeline output into a git repository so every
// run's ledger can be diffed against the last one.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned by Commit when none of the paths changed.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies who a snapshot commit is attributed to.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor is used when no author is configured.
var DefaultAuthor = Author{Name: "ledgerprep", Email: "ledgerprep@localhost"}

func (a Author) String() string { return fmt.Sprintf("%s <%s>", a.Name, a.Email) }

func git(ctx context.Context, dir string, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return out, nil
}

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, nil, "init", "--quiet")
	return err
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages paths, even ignored ones, and commits them as author. Paths
// outside dir or missing are skipped. Returns the short commit hash, or ErrNothingToCommit when the
// staged paths are unchanged.
func Commit(ctx context.Context, dir string, paths []string, message string, author Author) (string, error) {
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := relativeTo(dir, p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, r)); err != nil {
			continue
		}
		rel = append(rel, r)
	}
	if len(rel) == 0 {
		return "", ErrNothingToCommit
	}

	if _, err := git(ctx, dir, nil, append([]string{"add", "--force", "--"}, rel...)...); err != nil {
		return "", err
	}

	status, err := git(ctx, dir, nil, append([]string{"status", "--porcelain", "--"}, rel...)...)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(status))) == 0 {
		return "", ErrNothingToCommit
	}

	// The committer identity falls back to the author so commits work on
	// machines without a git user configured.
	env := []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_COMMITTER_NAME=" + author.Name,
		"GIT_COMMITTER_EMAIL=" + author.Email,
	}
	if _, err := git(ctx, dir, env, append([]string{"commit", "--quiet", "-m", message, "--"}, rel...)...); err != nil {
		return "", err
	}

	out, err := git(ctx, dir, nil, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func relativeTo(dir, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	r, err := filepath.Rel(dir, path)
	if err != nil {
		return "", err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, dir)
	}
	return r, nil
}
