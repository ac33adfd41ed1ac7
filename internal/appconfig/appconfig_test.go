package appconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsReachableCreatesMissingDir(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "nested", "data-root")

	if !IsReachable(child) {
		t.Fatal("expected a creatable nested path to be reachable")
	}
	if info, err := os.Stat(child); err != nil || !info.IsDir() {
		t.Error("expected IsReachable to have created the directory")
	}
}

func TestIsReachableRejectsEmptyDataRoot(t *testing.T) {
	if IsReachable("") {
		t.Error("expected an empty data root to be unreachable")
	}
}

func TestMigrateStorageRootRenamesWhenPossible(t *testing.T) {
	oldRoot := t.TempDir()
	newRoot := filepath.Join(t.TempDir(), "moved")

	gameDir := filepath.Join(oldRoot, "Game")
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(gameDir, "metadata.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MigrateStorageRoot(oldRoot, newRoot); err != nil {
		t.Fatalf("MigrateStorageRoot failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(newRoot, "Game", "metadata.json")); err != nil {
		t.Errorf("expected migrated file to exist at new root: %v", err)
	}
	if _, err := os.Stat(oldRoot); !os.IsNotExist(err) {
		t.Error("expected old root to be gone after a successful rename-based migration")
	}
}

func TestMigrateStorageRootSameRootIsNoop(t *testing.T) {
	root := t.TempDir()
	if err := MigrateStorageRoot(root, root); err != nil {
		t.Fatalf("expected no-op migration to succeed, got %v", err)
	}
}
