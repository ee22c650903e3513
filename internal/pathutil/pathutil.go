// Package pathutil handles pure string operations on slash-delimited
// relative paths for weipack.
//
// All functions expect pre-normalized input: forward slashes only, no
// embedded "./" segments. They never touch the filesystem.
package pathutil

import "strings"

// Parent returns the substring before the last slash, or the empty string
// when p contains no slash.
//
//	Parent("a/b/c") == "a/b"
//	Parent("c") == ""
func Parent(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// ParentName returns the final path segment of Parent(p).
//
//	ParentName("a/b/c") == "b"
//	ParentName("b/c") == "b"
//	ParentName("c") == ""
func ParentName(p string) string {
	return FileName(Parent(p))
}

// FileName returns the substring after the last slash, or p itself when no
// slash is present.
func FileName(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}

// FileBase returns FileName(p) truncated at its first dot.
//
//	FileBase("a/mymod.tp2") == "mymod"
//	FileBase("archive.tar.gz") == "archive"
func FileBase(p string) string {
	name := FileName(p)
	if idx := strings.Index(name, "."); idx >= 0 {
		return name[:idx]
	}
	return name
}

// setupPrefix is the conventional filename prefix for WeiDU setup files.
const setupPrefix = "setup-"

// Tp2Name returns FileBase(p) with a case-insensitive leading "setup-"
// stripped.
//
//	Tp2Name("setup-MyMod.tp2") == "MyMod"
//	Tp2Name("MyMod.tp2") == "MyMod"
func Tp2Name(p string) string {
	base := FileBase(p)
	if len(base) >= len(setupPrefix) && strings.EqualFold(base[:len(setupPrefix)], setupPrefix) {
		return base[len(setupPrefix):]
	}
	return base
}

// Tp2Prefix returns the "setup-" prefix as it literally appears in
// FileBase(p) when present (case-insensitive test, case-preserving result),
// or the empty string otherwise.
func Tp2Prefix(p string) string {
	base := FileBase(p)
	if len(base) >= len(setupPrefix) && strings.EqualFold(base[:len(setupPrefix)], setupPrefix) {
		return base[:len(setupPrefix)]
	}
	return ""
}

// Depth returns the number of path segments in p, counting the file itself
// as depth 1 when it sits at the root.
//
//	Depth("mymod.tp2") == 1
//	Depth("mymod/mymod.tp2") == 2
//	Depth("sub/mymod/mymod.tp2") == 3
func Depth(p string) int {
	if p == "" {
		return 0
	}
	return strings.Count(p, "/") + 1
}

// Normalize converts backslashes to forward slashes and strips a leading
// "./" so the result conforms to the input contract of this package.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(p, "./")
	return p
}
