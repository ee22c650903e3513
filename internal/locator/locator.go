// Package locator handles discovery of WeiDU mod definitions in a directory
// tree for weipack.
//
// Two competing layout conventions are recognized. In the modern layout the
// tp2 file lives inside a folder sharing its base name (mymod/mymod.tp2 or
// mymod/setup-mymod.tp2). In the legacy layout the tp2 file sits at the
// repository root and its BACKUP declaration names a sibling data folder.
package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"weipack/internal/pathutil"
	"weipack/internal/scanner"
	"weipack/internal/tp2"
)

// maxDepth is the deepest tp2 location any supported layout convention
// produces, counted in path segments relative to the scan root.
const maxDepth = 2

// ModCandidate describes one discovered mod definition.
type ModCandidate struct {
	// ModRoot is the absolute path of the directory that becomes the root
	// of the packaged archive.
	ModRoot string

	// Tp2Path is the slash-separated path of the tp2 file relative to
	// ModRoot.
	Tp2Path string

	// LegacyModFolder is the absolute path of the sibling data folder named
	// by the BACKUP declaration. It is empty for modern-layout mods.
	LegacyModFolder string
}

// IsLegacy reports whether the candidate uses the legacy flat layout.
func (c ModCandidate) IsLegacy() bool {
	return c.LegacyModFolder != ""
}

// Options configures mod discovery.
type Options struct {
	// NameFilter, when non-empty, keeps only candidates whose tp2 base name
	// matches it exactly, case-insensitively. Supports multi-mod
	// repositories where a single mod should be packaged.
	NameFilter string

	// Logger reports skipped files. Nil selects the default logger.
	Logger *log.Logger
}

// FindMods walks rootPath and returns one candidate per tp2 file found at an
// acceptable depth, in deterministic lexical order. Re-running on an
// unchanged tree yields an identical candidate set. A tree may legitimately
// hold zero, one, or many candidates.
func FindMods(rootPath string, opts Options) ([]ModCandidate, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolving scan root: %w", err)
	}

	entries, err := scanner.Scan(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", rootPath, err)
	}

	var candidates []ModCandidate
	for _, entry := range scanner.FilterExt(entries, ".tp2") {
		rel := entry.RelPath

		if pathutil.Depth(rel) > maxDepth {
			logger.Debug("skipping tp2 below supported depth", "path", rel)
			continue
		}

		tp2Name := pathutil.Tp2Name(rel)
		if opts.NameFilter != "" && !strings.EqualFold(opts.NameFilter, tp2Name) {
			logger.Debug("skipping tp2 not matching filter", "path", rel, "filter", opts.NameFilter)
			continue
		}

		if candidate, ok := modernCandidate(absRoot, rel); ok {
			candidates = append(candidates, candidate)
			continue
		}

		candidate, ok, err := legacyCandidate(absRoot, rel, entry.FullPath)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Debug("skipping tp2 without a usable layout", "path", rel)
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// modernCandidate applies the modern-layout test: the tp2 file lives inside
// a folder sharing its base name. The mod root is the grandparent of the tp2
// path, with the tp2 path rebased under it.
func modernCandidate(absRoot, rel string) (ModCandidate, bool) {
	parentName := pathutil.ParentName(rel)
	if parentName == "" || !strings.EqualFold(pathutil.Tp2Name(rel), parentName) {
		return ModCandidate{}, false
	}

	grandparent := pathutil.Parent(pathutil.Parent(rel))
	modRoot := absRoot
	tp2Path := rel
	if grandparent != "" {
		modRoot = filepath.Join(absRoot, filepath.FromSlash(grandparent))
		tp2Path = strings.TrimPrefix(rel, grandparent+"/")
	}

	return ModCandidate{ModRoot: modRoot, Tp2Path: tp2Path}, true
}

// legacyCandidate applies the legacy-layout test: the tp2 file carries a
// BACKUP declaration whose root-most path segment exists as a sibling
// directory. Files without a well-formed BACKUP declaration are not mod
// definitions at all.
func legacyCandidate(absRoot, rel, fullPath string) (ModCandidate, bool, error) {
	backup, ok, err := tp2.ReadDeclaration(fullPath, tp2.Backup)
	if err != nil {
		return ModCandidate{}, false, fmt.Errorf("inspecting %s: %w", rel, err)
	}
	if !ok {
		return ModCandidate{}, false, nil
	}

	folder := dataFolderName(backup)
	if folder == "" {
		return ModCandidate{}, false, nil
	}

	parentRel := pathutil.Parent(rel)
	modRoot := absRoot
	if parentRel != "" {
		modRoot = filepath.Join(absRoot, filepath.FromSlash(parentRel))
	}

	legacyFolder := filepath.Join(modRoot, folder)
	info, err := os.Stat(legacyFolder)
	if err != nil || !info.IsDir() {
		// The declared backup target is a decoy or a comment artifact, not
		// a genuine sibling data folder.
		return ModCandidate{}, false, nil
	}

	return ModCandidate{
		ModRoot:         modRoot,
		Tp2Path:         pathutil.FileName(rel),
		LegacyModFolder: legacyFolder,
	}, true, nil
}

// dataFolderName extracts the root-most path segment of a BACKUP value.
func dataFolderName(backup string) string {
	p := pathutil.Normalize(strings.TrimSpace(backup))
	if p == "" {
		return ""
	}
	if idx := strings.Index(p, "/"); idx >= 0 {
		p = p[:idx]
	}
	return p
}
