package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dataworks/dataworks/engine/core"
)

// CodeAccessDenied marks paths that resolve outside the data root.
const CodeAccessDenied = "AccessDenied"

var ErrOutsideRoot = errors.New("access denied: path is outside the data root")

// Guard validates paths against an immutable root directory.
type Guard struct {
	root string
}

// New builds a Guard for root. The root does not need to exist yet.
func New(root string) (*Guard, error) {
	normalized, err := NormalizeRoot(root)
	if err != nil {
		return nil, err
	}
	return &Guard{root: normalized}, nil
}

// NormalizeRoot cleans, absolutizes and symlink-resolves root.
func NormalizeRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errors.New("data root directory is empty")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute root: %w", err)
	}
	resolved, err := resolveExisting(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root symlinks: %w", err)
	}
	return resolved, nil
}

// Root returns the canonical root directory.
func (g *Guard) Root() string {
	return g.root
}

// Resolve returns the canonical form of candidate when it is the root or
// lies beneath it. Relative candidates are interpreted against the root.
func (g *Guard) Resolve(candidate string) (string, error) {
	if strings.TrimSpace(candidate) == "" {
		return "", core.NewError(errors.New("path must be provided"), CodeAccessDenied, map[string]any{
			"path": candidate,
			"root": g.root,
		})
	}
	target := candidate
	if !filepath.IsAbs(target) {
		target = filepath.Join(g.root, target)
	}
	target = filepath.Clean(target)
	resolved, err := resolveExisting(target)
	if err != nil {
		return "", core.NewError(fmt.Errorf("failed to resolve path: %w", err), CodeAccessDenied, map[string]any{
			"path": candidate,
			"root": g.root,
		})
	}
	if !Contains(g.root, resolved) {
		return "", core.NewError(
			fmt.Errorf("%w: %s", ErrOutsideRoot, resolved),
			CodeAccessDenied,
			map[string]any{"path": candidate, "root": g.root},
		)
	}
	return resolved, nil
}

// Join resolves the path formed by joining parts under the root.
func (g *Guard) Join(parts ...string) (string, error) {
	return g.Resolve(filepath.Join(parts...))
}

// Contains reports whether target equals root or is nested under it.
// Both arguments must already be clean absolute paths.
func Contains(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// resolveExisting evaluates symlinks on the longest existing prefix of path
// and re-appends the missing tail. A component below a regular file counts
// as missing.
func resolveExisting(path string) (string, error) {
	current := path
	var tail []string
	for {
		_, err := os.Lstat(current)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
	}
	canonical, err := filepath.EvalSymlinks(current)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{canonical}, tail...)...), nil
}
