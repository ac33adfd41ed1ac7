// Package scanner implements the Scanner/Recoverer (C7): it walks the
// storage root and rebuilds library index rows from manifests and game
// metadata sidecars, bridging disk to index when state is partially lost.
package scanner

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
	"github.com/saveforge/backupcore/internal/snapshot"
)

// Index is the library-index slice the scanner reads and writes.
type Index interface {
	AllGames() []model.Game
	UpsertGame(g *model.Game) error
	UpsertLocation(loc *model.SaveLocation) error
	GetSnapshotsForGame(gameID string) []model.Snapshot
	FilesForSnapshot(snapshotID string) []model.SnapshotFile
	CommitSnapshot(snap *model.Snapshot, files []model.SnapshotFile) error
	DeleteSnapshotRows(snapshotID string) error
}

// Result is the counts object scan_snapshots_from_disk returns.
type Result struct {
	Added               int `json:"added"`
	Removed             int `json:"removed"`
	RemovedFiles        int `json:"removed_files"`
	SkippedUnknownGames int `json:"skipped_unknown_games"`
	SkippedInvalid      int `json:"skipped_invalid"`
}

// Scanner implements scan_snapshots_from_disk.
type Scanner struct {
	Index       Index
	StorageRoot func() string
}

// New wires a Scanner against idx and a storage-root accessor.
func New(idx Index, storageRoot func() string) *Scanner {
	return &Scanner{Index: idx, StorageRoot: storageRoot}
}

// Scan walks the storage root and reconciles it with the index.
func (s *Scanner) Scan() (Result, error) {
	var result Result

	root := s.StorageRoot()
	slog.Info("scan started", "storage_root", root)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("scan skipped: storage root does not exist", "storage_root", root)
			return result, nil
		}
		slog.Error("scan failed: unable to read storage root", "storage_root", root, "error", err)
		return result, err
	}

	byFolder := make(map[string]*model.Game)
	byID := make(map[string]*model.Game)
	for _, g := range s.Index.AllGames() {
		cp := g
		byFolder[fsutil.CanonicalCase(cp.FolderName)] = &cp
		byID[cp.ID] = &cp
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folderName := entry.Name()
		gameDir := filepath.Join(root, folderName)

		game := byFolder[fsutil.CanonicalCase(folderName)]
		if game == nil {
			recovered, ok := s.recoverGameFromSidecar(gameDir, folderName, byID)
			if !ok {
				slog.Warn("scan skipped unknown game directory", "folder", folderName)
				result.SkippedUnknownGames++
				continue
			}
			game = recovered
			byFolder[fsutil.CanonicalCase(game.FolderName)] = game
			byID[game.ID] = game
			result.Added++
			slog.Info("scan recovered game from sidecar", "game_id", game.ID, "folder", folderName)
		}

		snapshotsDir := filepath.Join(gameDir, "Snapshots")
		sub, err := s.scanGameSnapshots(game, snapshotsDir)
		if err != nil {
			return result, err
		}
		result.Added += sub.Added
		result.SkippedInvalid += sub.SkippedInvalid
	}

	pruned, err := s.pruneMissingSnapshots()
	if err != nil {
		return result, err
	}
	result.Removed += pruned.Removed
	result.RemovedFiles += pruned.RemovedFiles

	slog.Info("scan finished", "added", result.Added, "removed", result.Removed,
		"removed_files", result.RemovedFiles, "skipped_unknown_games", result.SkippedUnknownGames,
		"skipped_invalid", result.SkippedInvalid)

	return result, nil
}

// recoverGameFromSidecar reads <gameDir>/metadata.json and either re-links
// to an existing game by id (updating folder_name if it drifted) or
// inserts a recovered game row with status=warning.
func (s *Scanner) recoverGameFromSidecar(gameDir, folderName string, byID map[string]*model.Game) (*model.Game, bool) {
	data, err := os.ReadFile(filepath.Join(gameDir, "metadata.json"))
	if err != nil {
		return nil, false
	}
	var sidecar model.Game
	if err := json.Unmarshal(data, &sidecar); err != nil || sidecar.ID == "" || sidecar.Name == "" {
		return nil, false
	}

	if existing, ok := byID[sidecar.ID]; ok {
		if existing.FolderName != folderName {
			existing.FolderName = folderName
			_ = s.Index.UpsertGame(existing)
		}
		return existing, true
	}

	sidecar.FolderName = folderName
	sidecar.Status = model.StatusWarning
	if err := s.Index.UpsertGame(&sidecar); err != nil {
		return nil, false
	}
	return &sidecar, true
}

type gameScanResult struct {
	Added          int
	SkippedInvalid int
}

// scanGameSnapshots walks <gameDir>/Snapshots and reconciles each
// on-disk snapshot directory with the index.
func (s *Scanner) scanGameSnapshots(game *model.Game, snapshotsDir string) (gameScanResult, error) {
	var result gameScanResult

	entries, err := os.ReadDir(snapshotsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, err
	}

	known := make(map[string]bool)
	existingIDs := make(map[string]bool)
	for _, snap := range s.Index.GetSnapshotsForGame(game.ID) {
		existingIDs[snap.ID] = true
		if normalized, err := fsutil.NormalizeAbs(snap.StoragePath); err == nil {
			known[fsutil.CanonicalCase(normalized)] = true
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		snapshotRoot := filepath.Join(snapshotsDir, entry.Name())
		normalized, err := fsutil.NormalizeAbs(snapshotRoot)
		if err != nil {
			result.SkippedInvalid++
			continue
		}
		if known[fsutil.CanonicalCase(normalized)] {
			continue
		}

		manifest, err := snapshot.ReadManifest(snapshotRoot)
		if err != nil {
			slog.Warn("scan skipped snapshot: invalid manifest", "game_id", game.ID, "path", snapshotRoot, "error", err)
			result.SkippedInvalid++
			continue
		}

		snap, files, locSeeds, err := reconstructFromManifest(game, snapshotRoot, manifest)
		if err != nil {
			slog.Warn("scan skipped snapshot: reconstruction failed", "game_id", game.ID, "path", snapshotRoot, "error", err)
			result.SkippedInvalid++
			continue
		}

		if existingIDs[snap.ID] {
			fresh := uuid.NewString()
			for i := range files {
				files[i].SnapshotID = fresh
			}
			snap.ID = fresh
		}
		existingIDs[snap.ID] = true

		for i := range locSeeds {
			_ = s.Index.UpsertLocation(&locSeeds[i])
		}
		if err := s.Index.CommitSnapshot(snap, files); err != nil {
			return result, err
		}
		result.Added++
	}

	return result, nil
}

const manifestFileName = "snapshot.manifest.json"

// reconstructFromManifest rebuilds a Snapshot row, its SnapshotFile rows,
// and minimal SaveLocation seeds from a manifest and the files actually
// present on disk under snapshotRoot.
func reconstructFromManifest(game *model.Game, snapshotRoot string, manifest *snapshot.Manifest) (*model.Snapshot, []model.SnapshotFile, []model.SaveLocation, error) {
	var files []model.SnapshotFile

	err := fsutil.Walk(snapshotRoot, func(absPath, relPath string, info fs.FileInfo) error {
		if relPath == manifestFileName {
			return nil
		}
		storageFolder, rest := splitFirstSegment(relPath)
		if rest == "" {
			return nil
		}
		locID, ok := manifest.LookupLocationID(storageFolder)
		if !ok {
			return nil
		}
		sum, err := fsutil.HashFile(absPath)
		if err != nil {
			return nil
		}
		files = append(files, model.SnapshotFile{
			ID:           uuid.NewString(),
			SnapshotID:   manifest.SnapshotID,
			LocationID:   locID,
			RelativePath: rest,
			SizeBytes:    info.Size(),
			Checksum:     sum,
		})
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	snap := &model.Snapshot{
		ID:          manifest.SnapshotID,
		GameID:      game.ID,
		CreatedAt:   manifest.CreatedAt,
		Reason:      manifest.Reason,
		StoragePath: snapshotRoot,
		SizeBytes:   totalSize(files),
		Checksum:    snapshot.AggregateChecksum(files),
	}

	var locSeeds []model.SaveLocation
	for locID, mloc := range manifest.Locations {
		locSeeds = append(locSeeds, model.SaveLocation{
			ID:           locID,
			GameID:       game.ID,
			Path:         mloc.Path,
			Type:         mloc.Type,
			AutoDetected: mloc.AutoDetected,
			Enabled:      mloc.Enabled,
		})
	}

	return snap, files, locSeeds, nil
}

// pruneResult mirrors the removed/removed_files half of Result.
type pruneResult struct {
	Removed      int
	RemovedFiles int
}

// pruneMissingSnapshots removes snapshot rows whose storage_path no longer
// resolves to a directory, cascading to their file rows.
func (s *Scanner) pruneMissingSnapshots() (pruneResult, error) {
	var result pruneResult

	for _, g := range s.Index.AllGames() {
		for _, snap := range s.Index.GetSnapshotsForGame(g.ID) {
			info, err := os.Stat(snap.StoragePath)
			if err == nil && info.IsDir() {
				continue
			}
			fileCount := len(s.Index.FilesForSnapshot(snap.ID))
			result.RemovedFiles += fileCount
			if err := s.Index.DeleteSnapshotRows(snap.ID); err != nil {
				return result, err
			}
			slog.Info("scan pruned missing snapshot", "game_id", g.ID, "snapshot_id", snap.ID, "files", fileCount)
			result.Removed++
		}
	}
	return result, nil
}

// splitFirstSegment splits a slash-normalized relative path into its first
// path segment (the storage folder) and the remainder (the location-
// relative path). For a single-segment path (a file lying directly in the
// snapshot root), both return values are that segment.
func splitFirstSegment(relPath string) (first, rest string) {
	clean := filepath.ToSlash(relPath)
	parts := strings.Split(clean, "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], parts[0]
	}
	return parts[0], filepath.Join(parts[1:]...)
}

func totalSize(files []model.SnapshotFile) int64 {
	var total int64
	for _, f := range files {
		total += f.SizeBytes
	}
	return total
}
