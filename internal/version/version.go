// Package version handles cleaning of raw VERSION declaration values into
// filename-safe package name suffixes for weipack.
package version

import (
	"regexp"
	"strings"

	"weipack/internal/fsname"
)

// Options controls version normalization.
type Options struct {
	// Beautify tightens a leading v/V against the following digits and
	// guarantees the result starts with a lowercase "v" when it starts
	// with a digit.
	Beautify bool

	// SpaceReplacement, when non-zero, collapses each whitespace run to
	// this single character before truncation.
	SpaceReplacement rune

	// Replacement substitutes illegal filename characters. Zero selects
	// the default replacement character.
	Replacement rune
}

// leadingV matches a v/V separated from the first digit run by whitespace.
var leadingV = regexp.MustCompile(`^([vV])\s+(\d)`)

// whitespaceRun matches one or more consecutive whitespace characters.
var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize cleans a raw version string into a single filename-safe token.
//
// The value is trimmed, optionally beautified, truncated at the first
// remaining whitespace (release notes appended to a VERSION line are
// discarded), and passed through illegal-character replacement. The result
// is the bare suffix fragment; the hyphen separating it from the package
// base name is the caller's concern.
func Normalize(raw string, opts Options) string {
	s := strings.TrimSpace(raw)

	if opts.Beautify {
		s = leadingV.ReplaceAllString(s, "$1$2")
	}

	if opts.SpaceReplacement != 0 {
		s = whitespaceRun.ReplaceAllString(s, string(opts.SpaceReplacement))
	}

	// Version strings are single tokens; anything after whitespace is noise.
	if idx := strings.IndexFunc(s, isSpace); idx >= 0 {
		s = s[:idx]
	}

	replacement := opts.Replacement
	if replacement == 0 {
		replacement = fsname.DefaultReplacement
	}
	s = fsname.Sanitize(s, replacement)

	if opts.Beautify && s != "" {
		switch {
		case s[0] == 'V' && len(s) > 1 && isDigit(s[1]):
			s = "v" + s[1:]
		case isDigit(s[0]):
			s = "v" + s
		}
	}

	return s
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
