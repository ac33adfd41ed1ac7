package library

import (
	"path/filepath"
	"testing"

	"github.com/saveforge/backupcore/internal/model"
)

func TestAddGameDerivesUniqueFolderNameAndSidecar(t *testing.T) {
	dataRoot := t.TempDir()
	storageRoot := t.TempDir()
	idx := New(dataRoot, storageRoot)

	g1, err := idx.AddGame("Save Game", "", "")
	if err != nil {
		t.Fatalf("AddGame failed: %v", err)
	}
	g2, err := idx.AddGame("Save Game", "", "")
	if err != nil {
		t.Fatalf("AddGame failed: %v", err)
	}

	if g1.FolderName == g2.FolderName {
		t.Fatalf("expected distinct folder names, both got %q", g1.FolderName)
	}

	if !pathExists(filepath.Join(storageRoot, g1.FolderName, "metadata.json")) {
		t.Error("expected metadata sidecar to be written")
	}
}

func TestAddGameRejectsEmptyName(t *testing.T) {
	idx := New(t.TempDir(), t.TempDir())
	if _, err := idx.AddGame("   ", "", ""); err == nil {
		t.Fatal("expected an error for a blank name")
	}
}

func TestLibraryPersistsAcrossLoad(t *testing.T) {
	dataRoot := t.TempDir()
	storageRoot := t.TempDir()

	idx := New(dataRoot, storageRoot)
	g, err := idx.AddGame("Persisted Game", "C:\\game.exe", "C:\\Games\\Persisted")
	if err != nil {
		t.Fatalf("AddGame failed: %v", err)
	}
	if _, err := idx.AddLocation(g.ID, "C:\\Saves", model.LocationFolder, false); err != nil {
		t.Fatalf("AddLocation failed: %v", err)
	}

	reloaded := New(dataRoot, storageRoot)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	detail, err := reloaded.GetGameDetail(g.ID)
	if err != nil {
		t.Fatalf("GetGameDetail failed: %v", err)
	}
	if detail.Game.Name != "Persisted Game" {
		t.Errorf("name = %q, want Persisted Game", detail.Game.Name)
	}
	if len(detail.Locations) != 1 {
		t.Fatalf("expected 1 location after reload, got %d", len(detail.Locations))
	}
}

func TestRemoveGameCascadesLocationsAndSnapshots(t *testing.T) {
	idx := New(t.TempDir(), t.TempDir())
	g, err := idx.AddGame("Doomed Game", "", "")
	if err != nil {
		t.Fatal(err)
	}
	loc, err := idx.AddLocation(g.ID, "C:\\Saves", model.LocationFolder, false)
	if err != nil {
		t.Fatal(err)
	}
	snap := &model.Snapshot{ID: newID(), GameID: g.ID, StoragePath: t.TempDir()}
	if err := idx.CommitSnapshot(snap, []model.SnapshotFile{
		{ID: newID(), SnapshotID: snap.ID, LocationID: loc.ID, RelativePath: "a.sav"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := idx.RemoveGame(g.ID); err != nil {
		t.Fatalf("RemoveGame failed: %v", err)
	}

	if _, ok := idx.Game(g.ID); ok {
		t.Error("expected game to be gone")
	}
	if len(idx.LocationsForGame(g.ID)) != 0 {
		t.Error("expected locations to be cascaded away")
	}
	if len(idx.FilesForSnapshot(snap.ID)) != 0 {
		t.Error("expected snapshot files to be cascaded away")
	}
}

func TestToggleAndRemoveLocation(t *testing.T) {
	idx := New(t.TempDir(), t.TempDir())
	g, err := idx.AddGame("Toggle Game", "", "")
	if err != nil {
		t.Fatal(err)
	}
	loc, err := idx.AddLocation(g.ID, "C:\\Saves", model.LocationFolder, false)
	if err != nil {
		t.Fatal(err)
	}
	if !loc.Enabled {
		t.Fatal("expected a newly added location to default to enabled")
	}

	if err := idx.ToggleLocation(loc.ID, false); err != nil {
		t.Fatalf("ToggleLocation failed: %v", err)
	}
	locs := idx.LocationsForGame(g.ID)
	if len(locs) != 1 || locs[0].Enabled {
		t.Fatalf("expected location to be disabled, got %+v", locs)
	}

	if err := idx.RemoveLocation(loc.ID); err != nil {
		t.Fatalf("RemoveLocation failed: %v", err)
	}
	if len(idx.LocationsForGame(g.ID)) != 0 {
		t.Error("expected location to be removed")
	}
	if _, ok := idx.Game(g.ID); !ok {
		t.Error("removing a location must not cascade to its game")
	}
}
