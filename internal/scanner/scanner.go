// Package scanner handles directory tree scanning for weipack.
package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ScanErrorType represents the type of scanning error.
type ScanErrorType string

const (
	// DirectoryNotFound indicates the directory does not exist.
	DirectoryNotFound ScanErrorType = "DIRECTORY_NOT_FOUND"
	// PermissionDenied indicates insufficient permissions to read the directory.
	PermissionDenied ScanErrorType = "PERMISSION_DENIED"
)

// ScanError represents an error that occurred during directory scanning.
type ScanError struct {
	Type ScanErrorType
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return string(e.Type) + ": " + e.Path
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ScanOptions configures scanning behavior.
type ScanOptions struct {
	// MaxDepth limits recursion into subdirectories: 0 scans only the root
	// directory itself, -1 is unlimited.
	MaxDepth int
}

// DefaultScanOptions returns the default scan options.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{MaxDepth: -1}
}

// FileEntry represents a file found during scanning.
type FileEntry struct {
	Name     string // Filename only
	RelPath  string // Path relative to the scan root, forward slashes
	FullPath string // Absolute path
}

// Scan enumerates all files under the given directory in deterministic
// lexical order. Symlinks are skipped. Directories are traversed depth-first.
func Scan(directory string) ([]FileEntry, error) {
	return ScanWithOptions(directory, DefaultScanOptions())
}

// ScanWithOptions scans directory with configurable options.
func ScanWithOptions(directory string, opts ScanOptions) ([]FileEntry, error) {
	info, err := os.Lstat(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScanError{Type: DirectoryNotFound, Path: directory, Err: err}
		}
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: directory, Err: err}
		}
		return nil, err
	}

	if !info.IsDir() {
		return nil, &ScanError{
			Type: DirectoryNotFound,
			Path: directory,
			Err:  errors.New("path is not a directory"),
		}
	}

	abs, err := filepath.Abs(directory)
	if err != nil {
		abs = directory
	}

	return scanDirectory(abs, "", opts, 0)
}

// scanDirectory recursively scans one directory level. rel is the
// slash-separated path of the directory relative to the scan root, empty for
// the root itself.
func scanDirectory(directory, rel string, opts ScanOptions, currentDepth int) ([]FileEntry, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: directory, Err: err}
		}
		return nil, err
	}

	var files []FileEntry
	for _, entry := range entries {
		fullPath := filepath.Join(directory, entry.Name())
		relPath := entry.Name()
		if rel != "" {
			relPath = rel + "/" + entry.Name()
		}

		info, err := os.Lstat(fullPath)
		if err != nil {
			continue // Skip entries we can't stat
		}

		// A mod tree is packaged from regular files only; following links
		// risks cycles and out-of-tree content.
		if info.Mode()&os.ModeSymlink != 0 {
			continue
		}

		if info.IsDir() {
			if opts.MaxDepth == -1 || currentDepth < opts.MaxDepth {
				subFiles, err := scanDirectory(fullPath, relPath, opts, currentDepth+1)
				if err != nil {
					return nil, err
				}
				files = append(files, subFiles...)
			}
			continue
		}

		files = append(files, FileEntry{
			Name:     entry.Name(),
			RelPath:  relPath,
			FullPath: fullPath,
		})
	}

	return files, nil
}

// FilterExt returns the entries whose filename carries the given extension,
// compared case-insensitively. The extension includes the leading dot.
func FilterExt(entries []FileEntry, ext string) []FileEntry {
	var out []FileEntry
	for _, e := range entries {
		if strings.EqualFold(filepath.Ext(e.Name), ext) {
			out = append(out, e)
		}
	}
	return out
}
