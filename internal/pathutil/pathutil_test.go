package pathutil

import "testing"

func TestParent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a/b/c", "a/b"},
		{"a/b", "a"},
		{"c", ""},
		{"", ""},
		{"mymod/mymod.tp2", "mymod"},
	}

	for _, tt := range tests {
		if got := Parent(tt.input); got != tt.expected {
			t.Errorf("Parent(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParentName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a/b/c", "b"},
		{"b/c", "b"},
		{"c", ""},
		{"sub/mymod/mymod.tp2", "mymod"},
	}

	for _, tt := range tests {
		if got := ParentName(tt.input); got != tt.expected {
			t.Errorf("ParentName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a/b/c.tp2", "c.tp2"},
		{"c.tp2", "c.tp2"},
		{"a/b/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FileName(tt.input); got != tt.expected {
			t.Errorf("FileName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFileBase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a/mymod.tp2", "mymod"},
		{"archive.tar.gz", "archive"},
		{"noext", "noext"},
		{"a/b.c.d", "b"},
	}

	for _, tt := range tests {
		if got := FileBase(tt.input); got != tt.expected {
			t.Errorf("FileBase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTp2Name(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"setup-MyMod.tp2", "MyMod"},
		{"MyMod.tp2", "MyMod"},
		{"SETUP-mymod.tp2", "mymod"},
		{"Setup-X.tp2", "X"},
		{"setup-.tp2", ""},
		{"mods/setup-foo.tp2", "foo"},
	}

	for _, tt := range tests {
		if got := Tp2Name(tt.input); got != tt.expected {
			t.Errorf("Tp2Name(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTp2Prefix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"setup-MyMod.tp2", "setup-"},
		{"SETUP-MyMod.tp2", "SETUP-"},
		{"Setup-MyMod.tp2", "Setup-"},
		{"MyMod.tp2", ""},
		{"setupMyMod.tp2", ""},
	}

	for _, tt := range tests {
		if got := Tp2Prefix(tt.input); got != tt.expected {
			t.Errorf("Tp2Prefix(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDepth(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"mymod.tp2", 1},
		{"mymod/mymod.tp2", 2},
		{"sub/mymod/mymod.tp2", 3},
		{"", 0},
	}

	for _, tt := range tests {
		if got := Depth(tt.input); got != tt.expected {
			t.Errorf("Depth(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`backup\mymod`, "backup/mymod"},
		{"./backup/mymod", "backup/mymod"},
		{`.\backup`, "backup"},
		{"already/clean", "already/clean"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
