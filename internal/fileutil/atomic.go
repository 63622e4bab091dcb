// Package fileutil has small filesystem helpers shared by the server.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data through a temp file and renames it over the
// target, so a reader sees either the previous file or the complete new one,
// never a partial write. The temp file is created next to the target because
// a rename across filesystems is not atomic.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Dir(filename), filepath.Base(filename)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("fileutil: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	// The rename consumes the temp file on success; on any failure the
	// deferred remove cleans it up.
	defer os.Remove(tmpPath)
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("fileutil: write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fileutil: sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fileutil: close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("fileutil: chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		return fmt.Errorf("fileutil: rename to %s: %w", filename, err)
	}
	return nil
}
