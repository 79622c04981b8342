package localfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileEntry is a regular file in a local directory.
type FileEntry struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// ListOptions configures ListFiles.
type ListOptions struct {
	IncludeHidden bool
	Suffix        string // only names ending with Suffix; empty matches all
}

// ListFiles returns the regular files directly inside dir, in directory order.
// Subdirectories are not descended into. A missing dir yields an empty list.
func ListFiles(dir string, opts ListOptions) ([]FileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []FileEntry{}, nil
		}
		return nil, err
	}

	result := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !opts.IncludeHidden && IsHiddenName(name) {
			continue
		}
		if opts.Suffix != "" && !strings.HasSuffix(name, opts.Suffix) {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Vanished or unreadable between ReadDir and Info.
			continue
		}

		result = append(result, FileEntry{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return result, nil
}

// RemoveRegularFiles deletes every regular file directly inside dir,
// including hidden ones, and returns the removed paths. Subdirectories and
// their contents are left alone. A missing dir is not an error.
func RemoveRegularFiles(dir string) ([]string, error) {
	files, err := ListFiles(dir, ListOptions{IncludeHidden: true})
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(files))
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed = append(removed, f.Path)
	}
	return removed, nil
}

// EnsureDir creates dir and its parents if missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
