// Package archive handles creation of mod package archives for weipack.
//
// Archives are plain zip files; the .iemod flavor differs only in extension.
// Files are selected by inclusion and exclusion glob patterns evaluated
// against slash-separated paths relative to the archive base directory.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"weipack/internal/scanner"
)

// DefaultExcludes are the patterns filtered out of every archive: editor
// droppings, OS metadata, previous packaging output, and WeiDU install
// backups. Directory patterns (trailing slash) exclude a whole subtree when
// any path segment matches.
func DefaultExcludes() []string {
	return []string{
		".*",
		".*/",
		"*.bak",
		"*.iemod",
		"*.tmp",
		"*.temp",
		"thumbs.db",
		"ehthumbs.db",
		"backup/",
		"__macosx/",
		"$recycle.bin/",
	}
}

// Options selects the files written into an archive.
type Options struct {
	// Include lists glob patterns a file must match at least one of.
	// Empty means every file is a candidate.
	Include []string

	// Exclude lists glob patterns that remove candidates; exclusion wins
	// over inclusion.
	Exclude []string
}

// Write packages the selected files under baseDir into a zip archive at
// destPath. Entries are written in deterministic lexical order with their
// baseDir-relative forward-slash paths. A partially-written archive is
// removed on error.
func Write(destPath, baseDir string, opts Options) (err error) {
	entries, err := scanner.Scan(baseDir)
	if err != nil {
		return fmt.Errorf("collecting archive content: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", destPath, err)
	}

	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing archive %s: %w", destPath, cerr)
		}
		if err != nil {
			os.Remove(destPath)
		}
	}()

	zw := zip.NewWriter(out)

	for _, entry := range entries {
		if !Selected(entry.RelPath, opts) {
			continue
		}
		if err := addFile(zw, entry); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive %s: %w", destPath, err)
	}

	return nil
}

// Selected reports whether relPath passes the include and exclude patterns.
func Selected(relPath string, opts Options) bool {
	if len(opts.Include) > 0 && !matchAny(relPath, opts.Include) {
		return false
	}
	return !matchAny(relPath, opts.Exclude)
}

// matchAny evaluates relPath against the pattern list, case-insensitively.
//
// Three pattern forms are understood: a directory pattern ("name/") matches
// when any ancestor segment matches the name; a bare pattern without a
// slash matches the final path segment; a pattern containing a slash
// matches the whole relative path.
func matchAny(relPath string, patterns []string) bool {
	rel := strings.ToLower(relPath)
	base := path.Base(rel)
	segments := strings.Split(rel, "/")

	for _, pattern := range patterns {
		p := strings.ToLower(pattern)

		if dir, ok := strings.CutSuffix(p, "/"); ok {
			// Only ancestor directories count, not the filename itself.
			for _, seg := range segments[:len(segments)-1] {
				if matched, err := path.Match(dir, seg); err == nil && matched {
					return true
				}
			}
			continue
		}

		if strings.Contains(p, "/") {
			if matched, err := path.Match(p, rel); err == nil && matched {
				return true
			}
			continue
		}

		if matched, err := path.Match(p, base); err == nil && matched {
			return true
		}
	}

	return false
}

// addFile streams one file into the archive, preserving its mode bits.
func addFile(zw *zip.Writer, entry scanner.FileEntry) error {
	info, err := os.Stat(entry.FullPath)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", entry.RelPath, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("describing %s: %w", entry.RelPath, err)
	}
	header.Name = filepath.ToSlash(entry.RelPath)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("adding %s: %w", entry.RelPath, err)
	}

	f, err := os.Open(entry.FullPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", entry.RelPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing %s: %w", entry.RelPath, err)
	}

	return nil
}
