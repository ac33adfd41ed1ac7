package snapshot

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/saveforge/backupcore/internal/model"
)

// fakeIndex is a minimal in-memory Committer standing in for
// internal/library.Index, so the builder can be tested without a cycle
// back to the library package.
type fakeIndex struct {
	mu sync.Mutex

	game      model.Game
	locations []model.SaveLocation
	snapshots map[string]*model.Snapshot
	files     map[string][]model.SnapshotFile
	events    []model.EventLog
	status    model.GameStatus
}

func newFakeIndex(g model.Game, locs []model.SaveLocation) *fakeIndex {
	return &fakeIndex{
		game:      g,
		locations: locs,
		snapshots: make(map[string]*model.Snapshot),
		files:     make(map[string][]model.SnapshotFile),
	}
}

func (f *fakeIndex) LocationsForGame(gameID string) []model.SaveLocation { return f.locations }

func (f *fakeIndex) Game(gameID string) (*model.Game, bool) {
	if gameID != f.game.ID {
		return nil, false
	}
	cp := f.game
	return &cp, true
}

func (f *fakeIndex) CommitSnapshot(snap *model.Snapshot, files []model.SnapshotFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *snap
	f.snapshots[cp.ID] = &cp
	f.files[cp.ID] = files
	return nil
}

func (f *fakeIndex) GetSnapshotsForGame(gameID string) []model.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Snapshot
	for _, s := range f.snapshots {
		out = append(out, *s)
	}
	return out
}

func (f *fakeIndex) DeleteSnapshotRows(snapshotID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, snapshotID)
	delete(f.files, snapshotID)
	return nil
}

func (f *fakeIndex) UpdateStatus(gameID string, status model.GameStatus) error {
	f.status = status
	return nil
}

func (f *fakeIndex) LogEvent(gameID string, eventType model.EventType, message string) error {
	f.events = append(f.events, model.EventLog{Type: eventType, Message: message, GameID: gameID})
	return nil
}

func writeFile(t *testing.T, path string, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBackupHappyPath(t *testing.T) {
	saveDir := t.TempDir()
	storageRoot := t.TempDir()

	writeFile(t, filepath.Join(saveDir, "a.sav"), "abc")
	writeFile(t, filepath.Join(saveDir, "sub", "b.sav"), "xyz")

	gameID := uuid.NewString()
	locID := uuid.NewString()
	g := model.Game{ID: gameID, Name: "Test Game", FolderName: "Test Game"}
	locs := []model.SaveLocation{
		{ID: locID, GameID: gameID, Path: saveDir, Type: model.LocationFolder, Enabled: true},
	}
	idx := newFakeIndex(g, locs)

	b := NewBuilder(idx, func() string { return storageRoot }, func() int { return 10 })

	snap, err := b.Backup(gameID, model.ReasonManual, false)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot, got nil")
	}

	files := idx.files[snap.ID]
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	wantChecksum := expectedAggregate(t, locID, files)
	if snap.Checksum != wantChecksum {
		t.Errorf("checksum = %q, want %q", snap.Checksum, wantChecksum)
	}

	if idx.status != model.StatusProtected {
		t.Errorf("status = %q, want protected", idx.status)
	}

	foundEvent := false
	for _, e := range idx.events {
		if e.Message == "Snapshot created (manual)." {
			foundEvent = true
		}
	}
	if !foundEvent {
		t.Error("expected 'Snapshot created (manual).' event")
	}
}

func expectedAggregate(t *testing.T, locID string, files []model.SnapshotFile) string {
	t.Helper()
	return AggregateChecksum(files)
}

func TestBackupSkipsWhenNoFilesFound(t *testing.T) {
	saveDir := t.TempDir() // empty directory
	storageRoot := t.TempDir()

	gameID := uuid.NewString()
	locID := uuid.NewString()
	g := model.Game{ID: gameID, Name: "Empty Game", FolderName: "Empty Game"}
	locs := []model.SaveLocation{
		{ID: locID, GameID: gameID, Path: saveDir, Type: model.LocationFolder, Enabled: true},
	}
	idx := newFakeIndex(g, locs)
	b := NewBuilder(idx, func() string { return storageRoot }, func() int { return 10 })

	snap, err := b.Backup(gameID, model.ReasonManual, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot for empty location")
	}
	if idx.status != model.StatusWarning {
		t.Errorf("status = %q, want warning", idx.status)
	}

	entries, _ := os.ReadDir(filepath.Join(storageRoot, g.FolderName, "Snapshots"))
	if len(entries) != 0 {
		t.Errorf("expected snapshot directory to be removed, found %d entries", len(entries))
	}
}

func TestBackupBusyGameReturnsNil(t *testing.T) {
	saveDir := t.TempDir()
	storageRoot := t.TempDir()
	writeFile(t, filepath.Join(saveDir, "a.sav"), "abc")

	gameID := uuid.NewString()
	locID := uuid.NewString()
	g := model.Game{ID: gameID, Name: "Busy Game", FolderName: "Busy Game"}
	locs := []model.SaveLocation{
		{ID: locID, GameID: gameID, Path: saveDir, Type: model.LocationFolder, Enabled: true},
	}
	idx := newFakeIndex(g, locs)
	b := NewBuilder(idx, func() string { return storageRoot }, func() int { return 10 })

	b.inFlight[gameID] = struct{}{}
	defer delete(b.inFlight, gameID)

	snap, err := b.Backup(gameID, model.ReasonManual, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot while a backup is in flight")
	}
}

func TestApplyRetentionKeepsNewest(t *testing.T) {
	storageRoot := t.TempDir()
	gameID := uuid.NewString()
	g := model.Game{ID: gameID, Name: "Retain Game", FolderName: "Retain Game"}
	idx := newFakeIndex(g, nil)
	b := NewBuilder(idx, func() string { return storageRoot }, func() int { return 1 })

	base := filepath.Join(storageRoot, g.FolderName, "Snapshots")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var newestID string
	for i := 0; i < 3; i++ {
		dir := filepath.Join(base, uuid.NewString())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		snap := &model.Snapshot{ID: uuid.NewString(), GameID: gameID, StoragePath: dir, CreatedAt: start.Add(time.Duration(i) * time.Hour)}
		idx.snapshots[snap.ID] = snap
		newestID = snap.ID
	}

	if err := b.applyRetention(gameID); err != nil {
		t.Fatalf("applyRetention failed: %v", err)
	}
	if len(idx.snapshots) != 1 {
		t.Fatalf("expected 1 retained snapshot, got %d", len(idx.snapshots))
	}
	if _, ok := idx.snapshots[newestID]; !ok {
		t.Error("expected the newest snapshot to be the one retained")
	}
}
