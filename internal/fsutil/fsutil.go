package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFileAtomic writes data to a temp file in the destination directory
// and renames it over destPath, so watchers and editors never observe a
// partially written script or export. Parent directories are created.
func WriteFileAtomic(destPath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// no-op after a successful rename
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	_ = os.Chmod(tmpName, perm)

	if err := os.Rename(tmpName, destPath); err != nil {
		return fmt.Errorf("rename tmp -> dest: %w", err)
	}
	return nil
}

// AvailablePath returns path, or path with a _1, _2, ... suffix before the
// extension when it already exists.
func AvailablePath(path string) (string, error) {
	return AvailablePathExcept(path, nil)
}

// AvailablePathExcept is AvailablePath that also treats every name in taken
// as occupied, for callers picking several names before writing any of them.
func AvailablePathExcept(path string, taken map[string]bool) (string, error) {
	ok, err := isFree(path, taken)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	const maxAttempts = 1000
	for i := 1; i <= maxAttempts; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if ok, err := isFree(candidate, taken); err != nil {
			return "", err
		} else if ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s after %d attempts", path, maxAttempts)
}

func isFree(path string, taken map[string]bool) (bool, error) {
	if taken[path] {
		return false, nil
	}
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, err
}

// ReadLines reads a text file and splits it into lines without line endings.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}
