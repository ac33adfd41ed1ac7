// Package restore implements the Restore/Verify pipeline (C6): replaying a
// snapshot's files back to their origin locations, recomputing checksums
// to verify a snapshot's integrity, and deleting a snapshot.
package restore

import (
	"log/slog"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
	"github.com/saveforge/backupcore/internal/snapshot"
)

// SafetyBackupper is the narrow slice of snapshot.Builder Restore needs: a
// way to take the mandatory pre-restore safety snapshot.
type SafetyBackupper interface {
	Backup(gameID string, reason model.SnapshotReason, skipRetention bool) (*model.Snapshot, error)
}

// Index is the library-index slice Restore/Verify/Delete read and write.
type Index interface {
	SnapshotByID(snapshotID string) (*model.Snapshot, bool)
	FilesForSnapshot(snapshotID string) []model.SnapshotFile
	LocationsForGame(gameID string) []model.SaveLocation
	DeleteSnapshotRows(snapshotID string) error
	LogEvent(gameID string, eventType model.EventType, message string) error
}

// Service implements Restore(snapshot_id), Verify(snapshot_id), and
// Delete(snapshot_id).
type Service struct {
	Index   Index
	Builder SafetyBackupper
}

// NewService wires a Service against idx and the snapshot builder used for
// pre-restore safety snapshots.
func NewService(idx Index, builder SafetyBackupper) *Service {
	return &Service{Index: idx, Builder: builder}
}

// VerifyResult is the { ok, issues } pair Verify returns.
type VerifyResult struct {
	OK     bool `json:"ok"`
	Issues int  `json:"issues"`
}

// Restore replays a snapshot's files back to their origin locations, after
// taking a mandatory pre-restore safety snapshot. Disabled or deleted
// locations are silently skipped.
func (s *Service) Restore(snapshotID string) error {
	snap, files, manifest, err := s.loadAndValidate(snapshotID)
	if err != nil {
		return err
	}

	slog.Info("restore started", "snapshot_id", snapshotID, "game_id", snap.GameID)

	safety, err := s.Builder.Backup(snap.GameID, model.ReasonPreRestore, true)
	if err != nil {
		slog.Error("restore blocked: safety backup failed", "snapshot_id", snapshotID, "game_id", snap.GameID, "error", err)
		return err
	}
	if safety == nil {
		slog.Error("restore blocked: safety backup returned no snapshot", "snapshot_id", snapshotID, "game_id", snap.GameID)
		return &model.SafetyBackupFailedError{GameID: snap.GameID}
	}

	locationsByID := make(map[string]model.SaveLocation)
	for _, l := range s.Index.LocationsForGame(snap.GameID) {
		locationsByID[l.ID] = l
	}

	for _, f := range files {
		loc, ok := locationsByID[f.LocationID]
		if !ok || !loc.Enabled {
			continue
		}

		mloc, ok := manifest.Locations[f.LocationID]
		if !ok {
			continue
		}

		srcPath, err := fsutil.JoinSafe(snap.StoragePath, "restore source", mloc.StorageFolder, f.RelativePath)
		if err != nil {
			return err
		}

		destRoot := loc.Path
		if loc.Type == model.LocationFile {
			destRoot = filepath.Dir(loc.Path)
		}
		destPath, err := fsutil.JoinSafe(destRoot, "restore destination", f.RelativePath)
		if err != nil {
			return err
		}

		if err := fsutil.CopyWithRetry(srcPath, destPath); err != nil {
			slog.Error("restore failed: file copy aborted", "snapshot_id", snapshotID, "game_id", snap.GameID, "error", err)
			return err
		}
	}

	_ = s.Index.LogEvent(snap.GameID, model.EventRestore, "Snapshot restored ("+snap.CreatedAt.Format("2006-01-02T15:04:05Z07:00")+").")
	slog.Info("restore finished", "snapshot_id", snapshotID, "game_id", snap.GameID, "files", len(files))
	return nil
}

// Verify recomputes SHA-256 for every file recorded in a snapshot and
// compares it with the recorded checksum.
func (s *Service) Verify(snapshotID string) (VerifyResult, error) {
	snap, files, manifest, err := s.loadAndValidate(snapshotID)
	if err != nil {
		return VerifyResult{}, err
	}

	issues := 0
	for _, f := range files {
		mloc, ok := manifest.Locations[f.LocationID]
		if !ok {
			issues++
			continue
		}
		path, err := fsutil.JoinSafe(snap.StoragePath, "verify", mloc.StorageFolder, f.RelativePath)
		if err != nil {
			return VerifyResult{}, err
		}
		sum, err := fsutil.HashFile(path)
		if err != nil {
			issues++
			continue
		}
		if sum != f.Checksum {
			issues++
		}
	}

	if issues > 0 {
		slog.Warn("verify found issues", "snapshot_id", snapshotID, "issues", issues)
	} else {
		slog.Info("verify passed", "snapshot_id", snapshotID, "files", len(files))
	}
	return VerifyResult{OK: issues == 0, Issues: issues}, nil
}

// Delete removes a snapshot's on-disk directory, then its rows. If the
// directory cannot be removed, the rows are left intact and the error is
// propagated so a retry can see consistent state.
func (s *Service) Delete(snapshotID string) error {
	snap, ok := s.Index.SnapshotByID(snapshotID)
	if !ok {
		return &model.NotFoundError{Kind: model.NotFoundSnapshot, ID: snapshotID}
	}

	if err := removeDirChecked(snap.StoragePath); err != nil {
		slog.Error("delete failed: unable to remove snapshot directory", "snapshot_id", snapshotID, "error", err)
		return errors.Wrapf(err, "unable to remove snapshot directory %q", snap.StoragePath)
	}

	if err := s.Index.DeleteSnapshotRows(snapshotID); err != nil {
		return err
	}
	_ = s.Index.LogEvent(snap.GameID, model.EventBackup, "Snapshot deleted.")
	slog.Info("snapshot deleted", "snapshot_id", snapshotID, "game_id", snap.GameID)
	return nil
}

// loadAndValidate loads the snapshot row, its file rows, and its manifest,
// failing with ManifestInvalidError if any is missing or malformed.
func (s *Service) loadAndValidate(snapshotID string) (*model.Snapshot, []model.SnapshotFile, *snapshot.Manifest, error) {
	snap, ok := s.Index.SnapshotByID(snapshotID)
	if !ok {
		return nil, nil, nil, &model.NotFoundError{Kind: model.NotFoundSnapshot, ID: snapshotID}
	}
	files := s.Index.FilesForSnapshot(snapshotID)

	manifest, err := snapshot.ReadManifest(snap.StoragePath)
	if err != nil {
		return nil, nil, nil, err
	}
	return snap, files, manifest, nil
}
