// Package nametmpl handles resolution of package name templates for weipack.
//
// A template is literal text interleaved with bracket-delimited groups, each
// group holding literal text and percent-delimited placeholders:
//
//	<%os_prefix%-><%base_name%><-%extra%><-%version%>
//
// A group survives only if at least one placeholder inside it resolved to a
// non-empty value; otherwise the whole group, literal text included, is
// discarded. The assembled result is normalized into a filename-safe string.
package nametmpl

import (
	"regexp"
	"strings"

	"weipack/internal/fsname"
)

// Default is the template used when the caller supplies none: an os-prefix
// group, the base name, an extra fragment, and the version suffix, each
// separated by literal hyphens and each independently droppable.
const Default = "<%os_prefix%-><%base_name%><-%extra%><-%version%>"

// templateReplacement is the character substituted for illegal filename
// characters in resolved template output. It differs from the general
// default so template-driven names are distinguishable from other
// normalized names.
const templateReplacement = '-'

// Bindings supplies values for the fixed placeholder vocabulary. Zero-value
// fields resolve to the empty string.
type Bindings struct {
	Type     string // package type fragment
	Arch     string // architecture fragment
	OSPrefix string // platform prefix (prefix_win / prefix_lin / prefix_mac)
	BaseName string // mod base name
	Extra    string // user-supplied extra fragment
	Version  string // normalized version suffix
}

// lookup resolves a placeholder name. Unknown names resolve to the empty
// string rather than an error.
func (b Bindings) lookup(name string) string {
	switch name {
	case "type":
		return b.Type
	case "arch":
		return b.Arch
	case "os_prefix":
		return b.OSPrefix
	case "base_name":
		return b.BaseName
	case "extra":
		return b.Extra
	case "version":
		return b.Version
	}
	return ""
}

// escapeReplacer converts escaped structural characters into neutral filler
// text; after this pass they are ordinary literals, not syntax.
var escapeReplacer = strings.NewReplacer(
	`\<`, string(fsname.DefaultReplacement),
	`\>`, string(fsname.DefaultReplacement),
	`\%`, string(fsname.DefaultReplacement),
)

// placeholderPattern matches a single percent-delimited placeholder.
var placeholderPattern = regexp.MustCompile(`%([^%]*)%`)

// Resolve expands the template against the bindings and returns a
// filename-safe package base name. An empty template selects Default.
func Resolve(template string, b Bindings) string {
	if template == "" {
		template = Default
	}

	s := escapeReplacer.Replace(template)
	s = strings.ReplaceAll(s, " ", "_")

	s = resolveGroups(s, b)

	// Placeholders outside any group resolve unconditionally.
	s = substitute(s, b)

	// Bound values may carry spaces of their own, e.g. a display name read
	// from a sidecar ini. Those become underscores too so the result is a
	// single shell-safe token.
	s = strings.ReplaceAll(s, " ", "_")

	return fsname.Sanitize(s, templateReplacement)
}

// resolveGroups scans left to right for bracket-delimited groups, resolving
// each in place. Brackets without a matching closer are left as literal text.
func resolveGroups(s string, b Bindings) string {
	var out strings.Builder
	out.Grow(len(s))

	for {
		open := strings.Index(s, "<")
		if open < 0 {
			out.WriteString(s)
			break
		}
		close := strings.Index(s[open+1:], ">")
		if close < 0 {
			out.WriteString(s)
			break
		}

		out.WriteString(s[:open])
		out.WriteString(resolveGroup(s[open+1:open+1+close], b))
		s = s[open+1+close+1:]
	}

	return out.String()
}

// resolveGroup applies the all-or-nothing group semantics: if substituting
// every placeholder yields the same text as removing them, no placeholder
// produced content and the group collapses to nothing.
func resolveGroup(group string, b Bindings) string {
	substituted := substitute(group, b)
	literalOnly := placeholderPattern.ReplaceAllString(group, "")

	if substituted == literalOnly {
		return ""
	}
	return substituted
}

// substitute replaces every placeholder with its bound value.
func substitute(s string, b Bindings) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		return b.lookup(name)
	})
}
