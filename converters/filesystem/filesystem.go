package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
)

// Discover lists the files directly inside dir whose extension is exactly ext.
// Subdirectories are not descended into. Dot-prefixed names are included.
// Symlinks are followed.
//
// Paths are returned absolute, in directory listing order (sorted by name).
func Discover(dir, ext string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path is not a directory: %s", dir)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != ext {
			continue
		}

		path := filepath.Join(absDir, name)
		isFile := entry.Type().IsRegular()
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				// Dangling link
				continue
			}
			isFile = target.Mode().IsRegular()
		}
		if !isFile {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}
