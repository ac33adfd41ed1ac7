package scanner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/saveforge/backupcore/internal/model"
	"github.com/saveforge/backupcore/internal/snapshot"
)

type fakeIndex struct {
	games     map[string]*model.Game
	locations map[string]*model.SaveLocation
	snapshots map[string]*model.Snapshot
	files     map[string][]model.SnapshotFile
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		games:     make(map[string]*model.Game),
		locations: make(map[string]*model.SaveLocation),
		snapshots: make(map[string]*model.Snapshot),
		files:     make(map[string][]model.SnapshotFile),
	}
}

func (f *fakeIndex) AllGames() []model.Game {
	out := make([]model.Game, 0, len(f.games))
	for _, g := range f.games {
		out = append(out, *g)
	}
	return out
}

func (f *fakeIndex) UpsertGame(g *model.Game) error {
	cp := *g
	f.games[cp.ID] = &cp
	return nil
}

func (f *fakeIndex) UpsertLocation(loc *model.SaveLocation) error {
	cp := *loc
	f.locations[cp.ID] = &cp
	return nil
}

func (f *fakeIndex) FilesForSnapshot(snapshotID string) []model.SnapshotFile {
	return f.files[snapshotID]
}

func (f *fakeIndex) GetSnapshotsForGame(gameID string) []model.Snapshot {
	var out []model.Snapshot
	for _, s := range f.snapshots {
		if s.GameID == gameID {
			out = append(out, *s)
		}
	}
	return out
}

func (f *fakeIndex) CommitSnapshot(snap *model.Snapshot, files []model.SnapshotFile) error {
	cp := *snap
	f.snapshots[cp.ID] = &cp
	f.files[cp.ID] = files
	return nil
}

func (f *fakeIndex) DeleteSnapshotRows(snapshotID string) error {
	delete(f.snapshots, snapshotID)
	delete(f.files, snapshotID)
	return nil
}

func TestScanRecoversGameAndSnapshotFromSidecar(t *testing.T) {
	storageRoot := t.TempDir()
	gameID := uuid.NewString()
	locID := uuid.NewString()

	gameDir := filepath.Join(storageRoot, "Recovered Game")
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		t.Fatal(err)
	}

	sidecar := model.Game{ID: gameID, Name: "Recovered Game", FolderName: "Recovered Game"}
	writeJSON(t, filepath.Join(gameDir, "metadata.json"), sidecar)

	snapDir := filepath.Join(gameDir, "Snapshots", "2026-01-01_00-00-00.000")
	if err := os.MkdirAll(filepath.Join(snapDir, "Saves"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(snapDir, "Saves", "a.sav"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	manifest := &snapshot.Manifest{
		Version:    2,
		SnapshotID: uuid.NewString(),
		Reason:     model.ReasonManual,
		Locations: map[string]snapshot.ManifestLocation{
			locID: {Path: `C:\Saves`, Type: model.LocationFolder, Enabled: true, StorageFolder: "Saves"},
		},
	}
	if err := snapshot.WriteManifest(snapDir, manifest); err != nil {
		t.Fatal(err)
	}

	idx := newFakeIndex()
	sc := New(idx, func() string { return storageRoot })

	result, err := sc.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Added < 2 {
		t.Errorf("added = %d, want at least 2 (game + snapshot)", result.Added)
	}
	if len(idx.games) != 1 {
		t.Fatalf("expected 1 recovered game, got %d", len(idx.games))
	}
	if len(idx.snapshots) != 1 {
		t.Fatalf("expected 1 recovered snapshot, got %d", len(idx.snapshots))
	}

	var recoveredSnap *model.Snapshot
	for _, s := range idx.snapshots {
		recoveredSnap = s
	}
	files := idx.files[recoveredSnap.ID]
	if len(files) != 1 {
		t.Fatalf("expected 1 recovered file, got %d", len(files))
	}
	if files[0].LocationID != locID {
		t.Errorf("location id = %q, want %q", files[0].LocationID, locID)
	}
}

func TestScanSkipsAlreadyKnownSnapshot(t *testing.T) {
	storageRoot := t.TempDir()
	gameID := uuid.NewString()

	gameDir := filepath.Join(storageRoot, "Known Game")
	snapDir := filepath.Join(gameDir, "Snapshots", "2026-01-01_00-00-00.000")
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		t.Fatal(err)
	}

	idx := newFakeIndex()
	idx.games[gameID] = &model.Game{ID: gameID, Name: "Known Game", FolderName: "Known Game"}
	idx.snapshots[uuid.NewString()] = &model.Snapshot{GameID: gameID, StoragePath: snapDir}

	sc := New(idx, func() string { return storageRoot })
	result, err := sc.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.SkippedInvalid != 0 || result.Added != 0 {
		t.Errorf("expected the already-known snapshot to be skipped cleanly, got %+v", result)
	}
}

func TestScanPrunesMissingSnapshotDirectory(t *testing.T) {
	storageRoot := t.TempDir()
	gameID := uuid.NewString()

	idx := newFakeIndex()
	idx.games[gameID] = &model.Game{ID: gameID, Name: "Ghost Game", FolderName: "Ghost Game"}
	snapID := uuid.NewString()
	idx.snapshots[snapID] = &model.Snapshot{ID: snapID, GameID: gameID, StoragePath: filepath.Join(storageRoot, "nowhere")}
	idx.files[snapID] = []model.SnapshotFile{
		{ID: uuid.NewString(), SnapshotID: snapID, RelativePath: "a.sav"},
		{ID: uuid.NewString(), SnapshotID: snapID, RelativePath: "b.sav"},
	}

	sc := New(idx, func() string { return storageRoot })
	result, err := sc.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Removed != 1 {
		t.Errorf("removed = %d, want 1", result.Removed)
	}
	if result.RemovedFiles != 2 {
		t.Errorf("removed_files = %d, want 2", result.RemovedFiles)
	}
	if _, ok := idx.snapshots[snapID]; ok {
		t.Error("expected missing-directory snapshot row to be pruned")
	}
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}
