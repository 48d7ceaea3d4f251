// Package fsutil finds configuration and cache files on disk.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// FindFilesByExtension walks rootPath and returns every regular file whose
// name ends with extension, sorted by path. Hidden directories below
// rootPath are skipped.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	return find(rootPath, extension, nil)
}

// FindStaleFiles is FindFilesByExtension limited to files last modified
// at or before cutoff.
func FindStaleFiles(rootPath string, extension string, cutoff time.Time) ([]string, error) {
	return find(rootPath, extension, func(info fs.FileInfo) bool {
		return !info.ModTime().After(cutoff)
	})
}

func find(rootPath, extension string, keep func(fs.FileInfo) bool) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), extension) {
			return nil
		}
		if keep != nil {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if !keep(info) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}
