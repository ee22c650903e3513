package orchestrator

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"weipack/internal/config"
	"weipack/internal/weidu"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func archiveNames(t *testing.T, path string) map[string]bool {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening archive %s: %v", path, err)
	}
	defer zr.Close()

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	return names
}

func TestRunPackagesModernMod(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"mymod/mymod.tp2":             "BACKUP ~mymod/backup~\nVERSION ~1.2~\n",
		"mymod/lib/functions.tpa":     "// shared code\n",
		"mymod/tra/english/setup.tra": "@1 = ~Hello~\n",
		"mymod/backup/0/UNINSTALL.0":  "",
	})
	outDir := t.TempDir()

	summary, err := Run(context.Background(), Options{
		RootPath: root,
		OutDir:   outDir,
		Tokens:   nil,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Total != 1 || summary.Packaged != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	result := summary.Results[0]
	if result.Mod != "mymod" {
		t.Errorf("Mod = %q, want mymod", result.Mod)
	}
	if result.Version != "v1.2" {
		t.Errorf("Version = %q, want v1.2 (beautified)", result.Version)
	}

	wantArchive := filepath.Join(outDir, "mymod-v1.2.iemod")
	if result.Archive != wantArchive {
		t.Errorf("Archive = %q, want %q", result.Archive, wantArchive)
	}

	names := archiveNames(t, result.Archive)
	if !names["mymod/mymod.tp2"] || !names["mymod/lib/functions.tpa"] {
		t.Errorf("archive missing mod content: %v", names)
	}
	for name := range names {
		if name == "mymod/backup/0/UNINSTALL.0" {
			t.Error("backup subtree must be excluded from the archive")
		}
	}
}

func TestRunPackagesLegacyMod(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"setup-oldmod.tp2":     "BACKUP ~oldmod/backup~\nVERSION ~0.9~\n",
		"oldmod/data.2da":      "2DA V1.0\n",
		"oldmod/tra/setup.tra": "@1 = ~Hi~\n",
		"unrelated/notes.txt":  "not part of the mod\n",
	})
	outDir := t.TempDir()

	summary, err := Run(context.Background(), Options{
		RootPath: root,
		OutDir:   outDir,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Packaged != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	names := archiveNames(t, summary.Results[0].Archive)
	if !names["setup-oldmod.tp2"] || !names["oldmod/data.2da"] {
		t.Errorf("legacy archive missing tp2 or data folder: %v", names)
	}
	if names["unrelated/notes.txt"] {
		t.Error("legacy archive must only contain the tp2 and its data folder")
	}
}

func TestRunNoModsFound(t *testing.T) {
	_, err := Run(context.Background(), Options{RootPath: t.TempDir()})
	if err == nil {
		t.Fatal("Run() expected error for tree without tp2 files")
	}
}

func TestRunRejectsUnknownToken(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"mymod/mymod.tp2": "VERSION ~1~\n"})

	_, err := Run(context.Background(), Options{
		RootPath: root,
		Tokens:   []string{"bogus=value"},
	})

	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Run() error = %v, want ConfigError", err)
	}
}

func TestRunContinuesAfterPerModFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"amod/amod.tp2": "VERSION ~1.0~\n",
		"bmod/bmod.tp2": "VERSION ~2.0~\n",
	})
	outDir := t.TempDir()

	// An unreadable tp2 fails its own candidate only.
	if err := os.Chmod(filepath.Join(root, "amod", "amod.tp2"), 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Chmod(filepath.Join(root, "amod", "amod.tp2"), 0o644)
	})

	summary, err := Run(context.Background(), Options{
		RootPath: root,
		OutDir:   outDir,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Packaged != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func newWeiDUServer(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()

	assetZip := func(member string) []byte {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, _ := zw.Create(member)
		w.Write([]byte("weidu " + member))
		zw.Close()
		return buf.Bytes()
	}

	mux.HandleFunc("/repos/WeiDUorg/weidu/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		base := server.URL + "/assets"
		json.NewEncoder(w).Encode(weidu.Release{
			TagName: "v249.00",
			Assets: []weidu.Asset{
				{Name: "WeiDU-Windows-amd64.zip", BrowserDownloadURL: base + "/win"},
				{Name: "WeiDU-Linux-amd64.zip", BrowserDownloadURL: base + "/lin"},
				{Name: "WeiDU-Mac-amd64.zip", BrowserDownloadURL: base + "/mac"},
			},
		})
	})
	mux.HandleFunc("/assets/win", func(w http.ResponseWriter, r *http.Request) {
		w.Write(assetZip("weidu.exe"))
	})
	mux.HandleFunc("/assets/lin", func(w http.ResponseWriter, r *http.Request) {
		w.Write(assetZip("weidu"))
	})
	mux.HandleFunc("/assets/mac", func(w http.ResponseWriter, r *http.Request) {
		w.Write(assetZip("weidu"))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunWindowsPackageBundlesInstaller(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"mymod/mymod.tp2": "VERSION ~2.1~\n",
	})
	outDir := t.TempDir()
	server := newWeiDUServer(t)

	summary, err := Run(context.Background(), Options{
		RootPath:    root,
		OutDir:      outDir,
		Tokens:      []string{"type=windows"},
		WeiDUClient: weidu.NewClient(weidu.WithBaseURL(server.URL)),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Packaged != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	result := summary.Results[0]
	if result.WeiDUTag != "v249.00" {
		t.Errorf("WeiDUTag = %q, want v249.00", result.WeiDUTag)
	}

	wantArchive := filepath.Join(outDir, "win-mymod-v2.1.zip")
	if result.Archive != wantArchive {
		t.Errorf("Archive = %q, want %q", result.Archive, wantArchive)
	}

	names := archiveNames(t, result.Archive)
	if !names["setup-mymod.exe"] {
		t.Errorf("archive missing bundled installer: %v", names)
	}

	// Staged installer must not remain in the mod tree.
	if _, err := os.Stat(filepath.Join(root, "setup-mymod.exe")); !os.IsNotExist(err) {
		t.Error("staged installer left behind in mod tree")
	}
}

func TestRunMultiPackageBundlesAllPlatforms(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"mymod/mymod.tp2": "VERSION ~3.0~\n",
	})
	outDir := t.TempDir()
	server := newWeiDUServer(t)

	summary, err := Run(context.Background(), Options{
		RootPath:    root,
		OutDir:      outDir,
		Tokens:      []string{"type=multi"},
		WeiDUClient: weidu.NewClient(weidu.WithBaseURL(server.URL)),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Packaged != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	names := archiveNames(t, summary.Results[0].Archive)
	for _, want := range []string{
		"setup-mymod.exe",
		"setup-mymod.sh",
		"setup-mymod.command",
		"weidu/lin/weidu",
		"weidu/mac/weidu",
	} {
		if !names[want] {
			t.Errorf("multi archive missing %s: %v", want, names)
		}
	}

	// Staging tree must be cleaned up.
	if _, err := os.Stat(filepath.Join(root, "weidu")); !os.IsNotExist(err) {
		t.Error("staging directory left behind in mod tree")
	}
}

func TestRunLowerCaseAndLiteralNaming(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"MyMod/MyMod.tp2": "VERSION ~1~\n",
	})
	outDir := t.TempDir()

	summary, err := Run(context.Background(), Options{
		RootPath: root,
		OutDir:   outDir,
		Tokens:   []string{"naming=CoolName", "lower_case=true", "suffix=none"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := filepath.Join(outDir, "coolname.iemod")
	if got := summary.Results[0].Archive; got != want {
		t.Errorf("Archive = %q, want %q", got, want)
	}
}
