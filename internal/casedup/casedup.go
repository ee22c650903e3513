// Package casedup handles reconciliation of filename collisions that differ
// only by letter case for weipack.
//
// A mod tree built on a case-sensitive filesystem can hold Data/Item.itm and
// Data/item.itm side by side; extracting the archive on a case-insensitive
// target would silently merge them. Reconciliation keeps the newer of each
// colliding pair and deletes the older.
package casedup

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"weipack/internal/scanner"
)

// Reconcile walks all files under modRoot and deletes the older file of each
// pair whose full paths are equal under case-insensitive comparison. On an
// exact modification-time tie (second resolution) the first entry in
// case-insensitive sort order is deleted, keeping the outcome deterministic.
// It returns the relative paths of the deleted files.
func Reconcile(modRoot string, logger *log.Logger) ([]string, error) {
	if logger == nil {
		logger = log.Default()
	}

	entries, err := scanner.Scan(modRoot)
	if err != nil {
		return nil, fmt.Errorf("reconciling duplicates under %s: %w", modRoot, err)
	}

	// Case-insensitive order groups colliding paths adjacently; the exact
	// path is the tie-break so the order is total and reproducible.
	sort.Slice(entries, func(i, j int) bool {
		li, lj := strings.ToLower(entries[i].RelPath), strings.ToLower(entries[j].RelPath)
		if li != lj {
			return li < lj
		}
		return entries[i].RelPath < entries[j].RelPath
	})

	var deleted []string

	for i := 0; i+1 < len(entries); i++ {
		current, next := entries[i], entries[i+1]
		if current.RelPath == next.RelPath || !strings.EqualFold(current.RelPath, next.RelPath) {
			continue
		}

		victim, err := pickOlder(current, next)
		if err != nil {
			return deleted, err
		}

		if err := os.Remove(victim.FullPath); err != nil {
			return deleted, fmt.Errorf("deleting duplicate %s: %w", victim.RelPath, err)
		}
		logger.Warn("deleted case-colliding duplicate", "path", victim.RelPath)
		deleted = append(deleted, victim.RelPath)

		if victim.RelPath == next.RelPath {
			// The survivor stays at position i for comparison against the
			// following entry.
			entries[i+1] = current
		}
	}

	return deleted, nil
}

// pickOlder returns the entry with the older modification time, compared at
// second resolution. Ties fall to the first entry in sort order.
func pickOlder(first, second scanner.FileEntry) (scanner.FileEntry, error) {
	fi, err := os.Stat(first.FullPath)
	if err != nil {
		return scanner.FileEntry{}, fmt.Errorf("inspecting %s: %w", first.RelPath, err)
	}
	si, err := os.Stat(second.FullPath)
	if err != nil {
		return scanner.FileEntry{}, fmt.Errorf("inspecting %s: %w", second.RelPath, err)
	}

	ft := fi.ModTime().Truncate(time.Second)
	st := si.ModTime().Truncate(time.Second)

	if st.Before(ft) {
		return second, nil
	}
	return first, nil
}
