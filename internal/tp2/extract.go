// Package tp2 handles extraction of declarative values from WeiDU mod
// definition syntax for weipack.
//
// A tp2 declaration line carries a keyword (VERSION, BACKUP) followed by a
// value in one of three alternative quoting conventions (~...~, "...", or
// %...%) or, for some keywords, an unquoted whitespace-bounded token. The
// same contract covers the Name key found in ini metadata sidecars.
package tp2

import (
	"regexp"
	"strings"
)

// Keyword describes one extractable declaration keyword together with its
// matching rules. Use the package-level Version, Backup, and Name values;
// the zero Keyword matches nothing.
type Keyword struct {
	word string

	// lineMatch confirms the line starts with the keyword after optional
	// leading whitespace.
	lineMatch *regexp.Regexp

	// delimited holds the quoting conventions in priority order:
	// tilde, double-quote, percent.
	delimited []*regexp.Regexp

	// unquoted is the whitespace-bounded token fallback, nil when the
	// keyword does not permit unquoted values.
	unquoted *regexp.Regexp

	// valueReject detects a captured value that itself re-starts with the
	// keyword, the signature of a second declaration mis-captured from the
	// same physical line.
	valueReject *regexp.Regexp

	// refsAbsent treats unquoted tokens starting with '@' (translation
	// string references) as no value at all.
	refsAbsent bool

	// stripQuotes removes stray double-quote characters from the captured
	// value after extraction.
	stripQuotes bool
}

// delimiters in fixed priority order. Tilde is WeiDU's native quoting;
// double-quote and percent are accepted alternatives.
var delimiterRunes = []string{"~", `"`, "%"}

func newKeyword(word string, caseSensitive, assignment, allowUnquoted, refsAbsent, stripQuotes bool) Keyword {
	flags := ""
	if !caseSensitive {
		flags = "(?i)"
	}

	// tp2 declarations separate keyword and value with whitespace. The Name
	// key appears in ini sidecars as "Name = value", so its keyword head
	// includes the assignment separator.
	head := flags + `^\s*` + regexp.QuoteMeta(word)
	sep := `\s+`
	if assignment {
		head += `\s*=?`
		sep = `\s*`
	}

	kw := Keyword{
		word:        word,
		lineMatch:   regexp.MustCompile(head),
		valueReject: regexp.MustCompile(flags + `^\s*` + regexp.QuoteMeta(word)),
		refsAbsent:  refsAbsent,
		stripQuotes: stripQuotes,
	}

	for _, d := range delimiterRunes {
		q := regexp.QuoteMeta(d)
		kw.delimited = append(kw.delimited,
			regexp.MustCompile(head+sep+q+`([^`+q+`]*)`+q))
	}

	if allowUnquoted {
		kw.unquoted = regexp.MustCompile(head + `\s+(\S+)`)
	}

	return kw
}

// Exported keywords. VERSION and BACKUP are matched case-sensitively, as
// WeiDU itself spells them; Name is case-insensitive and only ever carries
// delimited values.
var (
	Version = newKeyword("VERSION", true, false, true, true, false)
	Backup  = newKeyword("BACKUP", true, false, true, false, false)
	Name    = newKeyword("Name", false, true, false, false, true)
)

// Word returns the literal keyword text.
func (k Keyword) Word() string {
	return k.word
}

// Extract pulls the value governed by the keyword from a single line of
// text. The second return value is false when the line does not carry the
// keyword, carries it with no extractable value, or carries a malformed
// declaration (a captured value that re-starts with the keyword).
//
// Extraction is stateless and single-line; callers reading whole files use
// the first line for which ok is true.
func Extract(line string, kw Keyword) (value string, ok bool) {
	if kw.lineMatch == nil || !kw.lineMatch.MatchString(line) {
		return "", false
	}

	captured := ""
	found := false

	for _, re := range kw.delimited {
		if m := re.FindStringSubmatch(line); m != nil {
			captured = m[1]
			found = true
			break
		}
	}

	if !found && kw.unquoted != nil {
		if m := kw.unquoted.FindStringSubmatch(line); m != nil {
			captured = m[1]
			found = true
			if kw.refsAbsent && strings.HasPrefix(captured, "@") {
				return "", false
			}
		}
	}

	if !found {
		return "", false
	}

	// A value that itself re-starts with the keyword means a second
	// declaration on the same physical line was mis-captured.
	if kw.valueReject.MatchString(captured) {
		return "", false
	}

	if kw.stripQuotes {
		captured = strings.ReplaceAll(captured, `"`, "")
	}

	return captured, true
}
