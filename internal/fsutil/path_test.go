package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/saveforge/backupcore/internal/model"
)

func TestAssertWithinAcceptsDescendant(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "sub", "file.txt")
	got, err := AssertWithin(root, target, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := NormalizeAbs(target)
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestAssertWithinRejectsEscape(t *testing.T) {
	root := t.TempDir()
	escaped := filepath.Join(root, "..", "outside")
	_, err := AssertWithin(root, escaped, "test")
	if err == nil {
		t.Fatal("expected path escape error")
	}
	var pe *model.PathEscapeError
	if _, ok := err.(*model.PathEscapeError); !ok {
		t.Fatalf("expected *model.PathEscapeError, got %T", err)
	}
	_ = pe
}

func TestAssertWithinRejectsSiblingWithSamePrefix(t *testing.T) {
	root := filepath.Join(t.TempDir(), "snap")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	sibling := root + "-evil"
	_, err := AssertWithin(root, sibling, "test")
	if err == nil {
		t.Fatal("expected path escape error for prefix-sharing sibling")
	}
}

func TestSanitizeFilesystemName(t *testing.T) {
	got := SanitizeFilesystemName(`My:Game<Save>  Data  `)
	want := "MyGameSave Data"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{"Game": true, "Game (2)": true}
	got := UniqueName("Game", func(c string) bool { return taken[c] })
	if got != "Game (3)" {
		t.Fatalf("got %q want %q", got, "Game (3)")
	}
}
