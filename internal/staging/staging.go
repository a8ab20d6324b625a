// Package staging manages the service's shared staging directories for the
// duration of one run. The pipeline owns the staging input area while a run
// is active: it is emptied at run start so stale files from an earlier run
// can never be picked up by a later job. The service's output area is never
// cleared — the pipeline only reads from it.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// ClearDir removes every regular file directly inside dir. Subdirectories
// are left alone: the service may keep its own bookkeeping there.
// A missing dir is created instead of being an error.
func ClearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return EnsureDir(dir)
	}
	if err != nil {
		return fmt.Errorf("clear staging dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clear staging dir %s: %w", dir, err)
		}
	}
	return nil
}

// CopyFile copies src to dst, overwriting dst if present. The copy is
// written to a temp file in dst's directory and renamed into place so a
// partially written file is never observed under the final name.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
