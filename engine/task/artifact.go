package task

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dataworks/dataworks/engine/sandbox"
	"github.com/dataworks/dataworks/pkg/logger"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)

// RequireFile resolves name through the guard and checks it is an existing
// regular file.
func RequireFile(guard *sandbox.Guard, name string) (string, error) {
	path, err := guard.Resolve(name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", PreconditionFailed(fmt.Errorf("%s not found", path), map[string]any{"path": path})
		}
		return "", Internal(fmt.Errorf("failed to stat %s: %w", path, err), map[string]any{"path": path})
	}
	if !info.Mode().IsRegular() {
		return "", PreconditionFailed(fmt.Errorf("%s is not a regular file", path), map[string]any{"path": path})
	}
	return path, nil
}

// FileExists reports whether the guarded path exists.
func FileExists(guard *sandbox.Guard, name string) (string, bool, error) {
	path, err := guard.Resolve(name)
	if err != nil {
		return "", false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return path, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return path, false, nil
	default:
		return "", false, Internal(fmt.Errorf("failed to stat %s: %w", path, err), map[string]any{"path": path})
	}
}

// WriteArtifact replaces the guarded file name with data.
func WriteArtifact(ctx context.Context, guard *sandbox.Guard, name string, data []byte) (string, error) {
	path, err := guard.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return "", Internal(fmt.Errorf("failed to create parent directories: %w", err), map[string]any{"path": path})
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, defaultFileMode)
	if err != nil {
		return "", Internal(fmt.Errorf("failed to open artifact: %w", err), map[string]any{"path": path})
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return "", Internal(fmt.Errorf("failed to write artifact: %w", err), map[string]any{"path": path})
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return "", Internal(fmt.Errorf("failed to sync artifact: %w", err), map[string]any{"path": path})
	}
	if err := file.Close(); err != nil {
		return "", Internal(fmt.Errorf("failed to close artifact: %w", err), map[string]any{"path": path})
	}
	logger.FromContext(ctx).Debug("Wrote artifact", "path", path, "bytes", len(data))
	return path, nil
}

// ResetDir removes the guarded directory name so it can be recreated.
// The data root itself is never removed.
func ResetDir(ctx context.Context, guard *sandbox.Guard, name string) (string, error) {
	path, err := guard.Resolve(name)
	if err != nil {
		return "", err
	}
	if path == guard.Root() {
		return "", AccessDenied(errors.New("refusing to remove the data root"), map[string]any{"path": path})
	}
	if err := os.RemoveAll(path); err != nil {
		return "", ResetFailed(fmt.Errorf("failed to remove %s: %w", path, err), map[string]any{"path": path})
	}
	logger.FromContext(ctx).Debug("Reset directory", "path", path)
	return path, nil
}
