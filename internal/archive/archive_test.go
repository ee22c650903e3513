package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestSelected(t *testing.T) {
	tests := []struct {
		name    string
		relPath string
		opts    Options
		want    bool
	}{
		{
			name:    "no patterns selects everything",
			relPath: "mymod/setup.tra",
			opts:    Options{},
			want:    true,
		},
		{
			name:    "hidden file excluded",
			relPath: ".gitignore",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    false,
		},
		{
			name:    "file inside hidden directory excluded",
			relPath: ".git/config",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    false,
		},
		{
			name:    "backup subtree excluded at any depth",
			relPath: "mymod/backup/0/setup.tp2",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    false,
		},
		{
			name:    "bak extension excluded case insensitively",
			relPath: "mymod/dialog.BAK",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    false,
		},
		{
			name:    "nested iemod excluded",
			relPath: "old/mymod.iemod",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    false,
		},
		{
			name:    "thumbs db excluded",
			relPath: "mymod/Thumbs.db",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    false,
		},
		{
			name:    "macosx metadata directory excluded",
			relPath: "__MACOSX/mymod/file",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    false,
		},
		{
			name:    "recycle bin excluded",
			relPath: "$RECYCLE.BIN/junk",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    false,
		},
		{
			name:    "regular mod file survives default excludes",
			relPath: "mymod/lib/functions.tpa",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    true,
		},
		{
			name:    "file named backup is not a directory match",
			relPath: "mymod/backup",
			opts:    Options{Exclude: DefaultExcludes()},
			want:    true,
		},
		{
			name:    "include restricts to matching subtree",
			relPath: "other/readme.txt",
			opts:    Options{Include: []string{"mymod/*", "setup-mymod.tp2"}},
			want:    false,
		},
		{
			name:    "include matches full relative path",
			relPath: "setup-mymod.tp2",
			opts:    Options{Include: []string{"mymod/*", "setup-mymod.tp2"}},
			want:    true,
		},
		{
			name:    "exclusion wins over inclusion",
			relPath: "mymod/notes.tmp",
			opts: Options{
				Include: []string{"mymod/*"},
				Exclude: DefaultExcludes(),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Selected(tt.relPath, tt.opts); got != tt.want {
				t.Errorf("Selected(%q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "setup-mymod.tp2", "BACKUP ~mymod/backup~\nVERSION ~1.0~\n")
	writeFile(t, src, "mymod/mymod.tp2", "VERSION ~1.0~\n")
	writeFile(t, src, "mymod/tra/english/setup.tra", "@1 = ~Hello~\n")
	writeFile(t, src, "mymod/backup/0/UNINSTALL.0", "")
	writeFile(t, src, "mymod/dialog.bak", "old")
	writeFile(t, src, ".gitignore", "*.iemod\n")
	writeFile(t, src, "Thumbs.db", "binary junk")

	dest := filepath.Join(t.TempDir(), "mymod.iemod")
	err := Write(dest, src, Options{Exclude: DefaultExcludes()})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := archiveNames(t, dest)
	want := []string{
		"mymod/mymod.tp2",
		"mymod/tra/english/setup.tra",
		"setup-mymod.tp2",
	}
	if len(got) != len(want) {
		t.Fatalf("archive entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteIncludePatterns(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "setup-mymod.tp2", "BACKUP ~backup/mymod~\n")
	writeFile(t, src, "backup/mymod/data.2da", "2DA V1.0\n")
	writeFile(t, src, "othermod/other.tp2", "VERSION ~2~\n")

	dest := filepath.Join(t.TempDir(), "mymod.zip")
	err := Write(dest, src, Options{
		Include: []string{"setup-mymod.tp2", "backup/*/*"},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := archiveNames(t, dest)
	want := []string{"backup/mymod/data.2da", "setup-mymod.tp2"}
	if len(got) != len(want) {
		t.Fatalf("archive entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteRoundTripContent(t *testing.T) {
	src := t.TempDir()
	const body = "VERSION ~1.2.3~\nBACKUP ~mymod/backup~\n"
	writeFile(t, src, "mymod/mymod.tp2", body)

	dest := filepath.Join(t.TempDir(), "mymod.iemod")
	if err := Write(dest, src, Options{Exclude: DefaultExcludes()}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer zr.Close()

	f, err := zr.Open("mymod/mymod.tp2")
	if err != nil {
		t.Fatalf("opening archived file: %v", err)
	}
	defer f.Close()

	buf := make([]byte, len(body)+1)
	n, _ := f.Read(buf)
	if string(buf[:n]) != body {
		t.Errorf("archived content = %q, want %q", string(buf[:n]), body)
	}
}

func TestWriteMissingBaseDir(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.zip")
	err := Write(dest, filepath.Join(t.TempDir(), "missing"), Options{})
	if err == nil {
		t.Fatal("Write() expected error for missing base directory")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("partial archive should not remain after failure")
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func archiveNames(t *testing.T, dest string) []string {
	t.Helper()
	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
