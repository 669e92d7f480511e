package cataloging

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/images"
)

// ListFolders returns root, followed by every directory below it when
// recursive is set. WalkDir visits entries in lexical order, so parents come
// before their children and siblings are sorted by name. Directories whose
// path relative to root matches an exclude glob are skipped with their subtrees.
// A root that is a symlink is walked through its target, but returned paths
// keep root as their prefix.
func ListFolders(root string, recursive bool, exclude []string) ([]string, error) {
	if !recursive {
		return []string{root}, nil
	}

	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve folder: %w", err)
	}

	folders := []string{root}
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) && path != walkRoot {
				slog.Warn("Skipping unreadable folder", "path", path, "error", err)
				return filepath.SkipDir
			}
			return err
		}
		if path == walkRoot || !d.IsDir() {
			return nil
		}
		if isExcluded(walkRoot, path, exclude) {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		folders = append(folders, filepath.Join(root, rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// ListImages returns the image files directly inside dir, sorted by name.
// Symlinks are followed when they point at regular files.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !images.IsImage(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
		} else if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// Partition splits files into consecutive batches of at most size elements.
func Partition(files []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	batches := make([][]string, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end])
	}
	return batches
}

func isExcluded(root, path string, exclude []string) bool {
	if len(exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range exclude {
		if pattern == "" {
			continue
		}
		ok, err := doublestar.Match(pattern, rel)
		if err == nil && ok {
			return true
		}
	}
	return false
}
