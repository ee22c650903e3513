// Package fsname handles filename-safe string normalization for weipack.
package fsname

import (
	"strings"
	"unicode"
)

// DefaultReplacement is the character substituted for illegal filename
// characters when the caller does not supply one.
const DefaultReplacement = '_'

// illegalChars are characters that are not portable across the filesystems
// a package may be extracted on.
const illegalChars = `<>|*?$"/\:`

// Sanitize replaces every illegal filename character in s with the given
// replacement rune and strips non-printable characters. The result is safe
// to use as a single path segment on Windows, macOS, and Linux.
func Sanitize(s string, replacement rune) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if strings.ContainsRune(illegalChars, r) {
			b.WriteRune(replacement)
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// SanitizeDefault is Sanitize with the default replacement character.
func SanitizeDefault(s string) string {
	return Sanitize(s, DefaultReplacement)
}

// EqualFold reports whether two path strings are equal under simple
// case-insensitive comparison. It is the comparison used when deciding
// whether two files would collide on a case-insensitive filesystem.
func EqualFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
