// Package paths resolves repository-root-relative locations used by the
// CLI: the .subtree state directory, its log and cache subpaths, and the
// git-rev-parse-backed root lookup every other package builds paths on top
// of.
package paths

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Directory and file layout under the repository root.
const (
	SubtreeDir             = ".subtree"
	SubtreeLogsDir         = ".subtree/logs"
	SubtreeConfigFile      = ".subtree/config.json"
	SubtreeConfigLocalFile = ".subtree/config.local.json"
)

var (
	repoRootMu       sync.RWMutex
	repoRootCache    string
	repoRootCacheDir string
)

// RepoRoot returns the git repository root directory, using
// 'git rev-parse --show-toplevel' so it works from any subdirectory. The
// result is cached per working directory.
func RepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	repoRootMu.RLock()
	if repoRootCache != "" && repoRootCacheDir == cwd {
		cached := repoRootCache
		repoRootMu.RUnlock()
		return cached, nil
	}
	repoRootMu.RUnlock()

	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git repository root: %w", err)
	}
	root := strings.TrimSpace(string(output))

	repoRootMu.Lock()
	repoRootCache = root
	repoRootCacheDir = cwd
	repoRootMu.Unlock()

	return root, nil
}

// ClearRepoRootCache clears the cached repository root. Primarily useful
// for tests that change the working directory mid-run.
func ClearRepoRootCache() {
	repoRootMu.Lock()
	repoRootCache = ""
	repoRootCacheDir = ""
	repoRootMu.Unlock()
}

// AbsPath returns the absolute path for a path relative to the repository
// root. An already-absolute path is returned unchanged.
func AbsPath(relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return relPath, nil
	}
	root, err := RepoRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, relPath), nil
}

// EnsureSubtreeDir creates the .subtree state directory if it does not
// already exist and returns its absolute path.
func EnsureSubtreeDir() (string, error) {
	dir, err := AbsPath(SubtreeDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", SubtreeDir, err)
	}
	return dir, nil
}
