package restore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
	"github.com/saveforge/backupcore/internal/snapshot"
)

type fakeIndex struct {
	snapshots map[string]*model.Snapshot
	files     map[string][]model.SnapshotFile
	locations []model.SaveLocation
	events    []model.EventLog
	deleted   []string
}

func (f *fakeIndex) SnapshotByID(id string) (*model.Snapshot, bool) {
	s, ok := f.snapshots[id]
	return s, ok
}

func (f *fakeIndex) FilesForSnapshot(id string) []model.SnapshotFile { return f.files[id] }

func (f *fakeIndex) LocationsForGame(gameID string) []model.SaveLocation { return f.locations }

func (f *fakeIndex) DeleteSnapshotRows(id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.snapshots, id)
	delete(f.files, id)
	return nil
}

func (f *fakeIndex) LogEvent(gameID string, t model.EventType, msg string) error {
	f.events = append(f.events, model.EventLog{GameID: gameID, Type: t, Message: msg})
	return nil
}

type fakeBuilder struct {
	result *model.Snapshot
	err    error
}

func (b *fakeBuilder) Backup(gameID string, reason model.SnapshotReason, skipRetention bool) (*model.Snapshot, error) {
	return b.result, b.err
}

func setupSnapshot(t *testing.T) (string, *fakeIndex, string, string) {
	t.Helper()
	root := t.TempDir()
	destDir := t.TempDir()

	gameID := uuid.NewString()
	locID := uuid.NewString()
	snapID := uuid.NewString()

	storageFolder := "Saves"
	if err := os.MkdirAll(filepath.Join(root, storageFolder), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, storageFolder, "a.sav"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := &snapshot.Manifest{
		Version:    2,
		SnapshotID: snapID,
		Reason:     model.ReasonManual,
		Locations: map[string]snapshot.ManifestLocation{
			locID: {Path: destDir, Type: model.LocationFolder, Enabled: true, StorageFolder: storageFolder},
		},
	}
	if err := snapshot.WriteManifest(root, m); err != nil {
		t.Fatal(err)
	}

	idx := &fakeIndex{
		snapshots: map[string]*model.Snapshot{
			snapID: {ID: snapID, GameID: gameID, StoragePath: root, Reason: model.ReasonManual},
		},
		files: map[string][]model.SnapshotFile{
			snapID: {{ID: uuid.NewString(), SnapshotID: snapID, LocationID: locID, RelativePath: "a.sav", Checksum: fsutil.HashString("abc"), SizeBytes: 3}},
		},
		locations: []model.SaveLocation{
			{ID: locID, GameID: gameID, Path: destDir, Type: model.LocationFolder, Enabled: true},
		},
	}

	return snapID, idx, destDir, gameID
}

func TestVerifyOKAfterBackup(t *testing.T) {
	snapID, idx, _, _ := setupSnapshot(t)
	svc := NewService(idx, &fakeBuilder{})

	result, err := svc.Verify(snapID)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !result.OK || result.Issues != 0 {
		t.Errorf("got %+v, want ok with 0 issues", result)
	}
}

func TestRestoreCopiesFilesAfterSafetySnapshot(t *testing.T) {
	snapID, idx, destDir, gameID := setupSnapshot(t)
	safety := &model.Snapshot{ID: uuid.NewString(), GameID: gameID}
	svc := NewService(idx, &fakeBuilder{result: safety})

	if err := svc.Restore(snapID); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(destDir, "a.sav"))
	if err != nil {
		t.Fatalf("expected restored file: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("got %q, want %q", data, "abc")
	}
}

func TestRestoreFailsSafetyBackupBlocked(t *testing.T) {
	snapID, idx, _, _ := setupSnapshot(t)
	svc := NewService(idx, &fakeBuilder{result: nil})

	err := svc.Restore(snapID)
	if err == nil {
		t.Fatal("expected SafetyBackupFailedError")
	}
	if _, ok := err.(*model.SafetyBackupFailedError); !ok {
		t.Errorf("got %T, want *model.SafetyBackupFailedError", err)
	}
}

func TestDeleteRemovesRowsOnSuccess(t *testing.T) {
	snapID, idx, _, _ := setupSnapshot(t)
	svc := NewService(idx, &fakeBuilder{})

	if err := svc.Delete(snapID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := idx.snapshots[snapID]; ok {
		t.Error("expected snapshot row removed after successful delete")
	}
	if len(idx.deleted) != 1 || idx.deleted[0] != snapID {
		t.Errorf("deleted = %v, want [%s]", idx.deleted, snapID)
	}
}
