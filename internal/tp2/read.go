package tp2

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxLineBytes bounds the scanner buffer; tp2 declaration lines are short,
// but mod files occasionally embed long data lines.
const maxLineBytes = 1 << 20

// ReadDeclaration scans the file at path line by line and returns the value
// of the first well-formed declaration of the keyword. ok is false when no
// line carries an extractable value. Malformed declarations are skipped, not
// fatal.
func ReadDeclaration(path string, kw Keyword) (value string, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("reading %s declaration: %w", kw.Word(), err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		if v, found := Extract(sc.Text(), kw); found {
			return v, true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", false, fmt.Errorf("reading %s declaration: %w", kw.Word(), err)
	}

	return "", false, nil
}

// ModDisplayName locates an optional ini metadata sidecar for the mod and
// extracts its Name value. The sidecar is <base>.ini or setup-<base>.ini
// directly under modRoot, matched case-insensitively against the directory
// entries. ok is false when no sidecar exists or none carries a Name value.
func ModDisplayName(modRoot, base string) (name string, ok bool) {
	entries, err := os.ReadDir(modRoot)
	if err != nil {
		return "", false
	}

	candidates := []string{base + ".ini", "setup-" + base + ".ini"}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, want := range candidates {
			if !strings.EqualFold(entry.Name(), want) {
				continue
			}
			v, found, err := ReadDeclaration(filepath.Join(modRoot, entry.Name()), Name)
			if err != nil || !found {
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				return v, true
			}
		}
	}

	return "", false
}
