package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const maxCandidates = 10_000

// linkFile is swapped in tests to create competing files.
var linkFile = os.Link

// WriteFileAtomic writes data to a temporary file beside path and renames it
// into place, so readers never observe a partially written file. An existing
// file at path is replaced.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmpName, err := writeTemp(path, data, mode)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// WriteFileExclusive writes data like WriteFileAtomic but hard-links the
// finished file into place, so it fails with an error matching
// fs.ErrExist instead of replacing a file that already exists at path.
func WriteFileExclusive(path string, data []byte, mode os.FileMode) error {
	tmpName, err := writeTemp(path, data, mode)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmpName) }()
	if err := linkFile(tmpName, path); err != nil {
		return fmt.Errorf("link into place: %w", err)
	}
	return nil
}

// WriteFileUnique writes data under dir as name, or as the next free
// "name (N).ext", and returns the path it used. Names in reserved are
// skipped; a name claimed by another writer between the lookup and the write
// moves on to the next suffix.
func WriteFileUnique(dir, name string, data []byte, mode os.FileMode, reserved map[string]bool) (string, error) {
	taken := make(map[string]bool, len(reserved))
	for path := range reserved {
		taken[path] = true
	}
	for range maxCandidates {
		path, err := UniquePath(dir, name, taken)
		if err != nil {
			return "", err
		}
		err = WriteFileExclusive(path, data, mode)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		taken[path] = true
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

// UniquePath returns dir/name, or dir/"name (N).ext" with the smallest N >= 2
// when the plain name is taken on disk or by reserved.
func UniquePath(dir, name string, reserved map[string]bool) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; n < maxCandidates; n++ {
		candidate := name
		if n > 1 {
			candidate = stem + " (" + strconv.Itoa(n) + ")" + ext
		}
		path := filepath.Join(dir, candidate)
		if reserved[path] {
			continue
		}
		_, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

func writeTemp(path string, data []byte, mode os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("%s temp file: %w", step, err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmpName, nil
}
