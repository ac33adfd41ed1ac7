package snapshot

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
)

// LocationLister is the slice of *library.Index the builder depends on: it
// takes its collaborator as an interface rather than importing
// internal/library directly, so internal/restore can depend on both the
// builder and the index without an import cycle.
type LocationLister interface {
	LocationsForGame(gameID string) []model.SaveLocation
}

// Committer is the library-index slice the builder writes results through.
type Committer interface {
	LocationLister
	Game(gameID string) (*model.Game, bool)
	CommitSnapshot(snap *model.Snapshot, files []model.SnapshotFile) error
	GetSnapshotsForGame(gameID string) []model.Snapshot
	DeleteSnapshotRows(snapshotID string) error
	UpdateStatus(gameID string, status model.GameStatus) error
	LogEvent(gameID string, eventType model.EventType, message string) error
}

// Builder implements backup(game_id, reason, skip_retention) (C5): the
// per-game mutual exclusion, the copy-and-hash walk, manifest write, and
// retention.
type Builder struct {
	Index          Committer
	StorageRoot    func() string
	RetentionCount func() int

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewBuilder wires a Builder against idx and storage-root/retention-count
// accessors (funcs, so settings changes and storage-root migrations are
// observed without re-wiring the builder).
func NewBuilder(idx Committer, storageRoot func() string, retentionCount func() int) *Builder {
	return &Builder{
		Index:          idx,
		StorageRoot:    storageRoot,
		RetentionCount: retentionCount,
		inFlight:       make(map[string]struct{}),
	}
}

func (b *Builder) tryAcquire(gameID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.inFlight[gameID]; busy {
		return false
	}
	b.inFlight[gameID] = struct{}{}
	return true
}

func (b *Builder) release(gameID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inFlight, gameID)
}

// Backup runs the full snapshot algorithm for gameID. It returns (nil, nil) for
// every "null" case (busy game, no enabled locations, zero files copied) —
// those are not errors, they are no-ops the caller can observe via the
// returned *model.Snapshot being nil.
func (b *Builder) Backup(gameID string, reason model.SnapshotReason, skipRetention bool) (*model.Snapshot, error) {
	if !b.tryAcquire(gameID) {
		slog.Warn("backup already in progress, skipping", "game_id", gameID)
		return nil, nil
	}
	defer b.release(gameID)

	slog.Info("backup started", "game_id", gameID, "reason", reason)

	g, ok := b.Index.Game(gameID)
	if !ok {
		return nil, &model.NotFoundError{Kind: model.NotFoundGame, ID: gameID}
	}

	locations := enabledOnly(b.Index.LocationsForGame(gameID))
	if len(locations) == 0 {
		slog.Warn("backup skipped: no enabled save locations", "game_id", gameID)
		_ = b.Index.LogEvent(gameID, model.EventError, "Backup skipped: no enabled save locations.")
		_ = b.Index.UpdateStatus(gameID, model.StatusWarning)
		return nil, nil
	}

	gameDir := filepath.Join(b.StorageRoot(), g.FolderName)
	snapshotsDir := filepath.Join(gameDir, "Snapshots")
	if err := fsutil.EnsureDir(snapshotsDir); err != nil {
		slog.Error("backup failed: unable to create snapshots directory", "game_id", gameID, "error", err)
		return nil, err
	}

	folderName := uniqueSnapshotFolderName(snapshotsDir, time.Now())
	snapshotRoot := filepath.Join(snapshotsDir, folderName)
	if err := fsutil.EnsureDir(snapshotRoot); err != nil {
		slog.Error("backup failed: unable to create snapshot directory", "game_id", gameID, "error", err)
		return nil, err
	}

	snap, files, warned, err := populate(b.Index, snapshotRoot, gameID, reason, locations)
	if err != nil {
		slog.Error("backup failed: file copy aborted", "game_id", gameID, "error", err)
		fsutil.RemoveAllSafe(snapshotRoot)
		return nil, err
	}
	if len(files) == 0 {
		slog.Warn("backup skipped: no files found in enabled save locations", "game_id", gameID)
		_ = b.Index.LogEvent(gameID, model.EventError, "Backup skipped: no files found in enabled save locations.")
		_ = b.Index.UpdateStatus(gameID, model.StatusWarning)
		fsutil.RemoveAllSafe(snapshotRoot)
		return nil, nil
	}

	snap.StoragePath = snapshotRoot
	snap.Checksum = AggregateChecksum(files)
	manifest := buildManifest(snap, locations, files)
	if err := WriteManifest(snapshotRoot, manifest); err != nil {
		slog.Error("backup failed: unable to write manifest", "game_id", gameID, "error", err)
		fsutil.RemoveAllSafe(snapshotRoot)
		return nil, err
	}

	if err := b.Index.CommitSnapshot(snap, files); err != nil {
		slog.Error("backup failed: unable to commit snapshot rows", "game_id", gameID, "error", err)
		fsutil.RemoveAllSafe(snapshotRoot)
		return nil, err
	}

	if !skipRetention {
		if err := b.applyRetention(gameID); err != nil {
			slog.Error("backup succeeded but retention failed", "game_id", gameID, "error", err)
			return nil, err
		}
	}

	status := model.StatusProtected
	if warned {
		status = model.StatusWarning
	}
	_ = b.Index.UpdateStatus(gameID, status)
	_ = b.Index.LogEvent(gameID, model.EventBackup, "Snapshot created ("+string(reason)+").")
	slog.Info("backup finished", "game_id", gameID, "snapshot_id", snap.ID, "files", len(files), "size_bytes", snap.SizeBytes)

	return snap, nil
}

// populate walks every enabled location, copying and hashing files into
// snapshotRoot. It returns the in-progress snapshot row, the file rows
// recorded so far, and whether any location-level warning occurred.
// Errors returned here are integrity failures (copy exhaustion) that abort
// the whole backup; missing locations are recorded as warnings instead.
func populate(idx Committer, snapshotRoot, gameID string, reason model.SnapshotReason, locations []model.SaveLocation) (*model.Snapshot, []model.SnapshotFile, bool, error) {
	snap := &model.Snapshot{
		ID:        newID(),
		GameID:    gameID,
		CreatedAt: time.Now().UTC(),
		Reason:    reason,
	}

	storageFolders := assignStorageFolders(locations)

	var files []model.SnapshotFile
	warned := false
	var totalSize int64

	for _, loc := range locations {
		storageFolder := storageFolders[loc.ID]
		destRoot := filepath.Join(snapshotRoot, storageFolder)

		if !pathExistsOnDisk(loc.Path) {
			warned = true
			slog.Warn("save location missing", "game_id", gameID, "location_id", loc.ID, "path", loc.Path)
			_ = idx.LogEvent(gameID, model.EventError, "Save location missing: "+loc.Path)
			continue
		}

		switch loc.Type {
		case model.LocationFile:
			f, err := copyOneFile(loc.ID, loc.Path, destRoot, filepath.Base(loc.Path))
			if err != nil {
				return nil, nil, false, err
			}
			files = append(files, *f)
			totalSize += f.SizeBytes

		case model.LocationFolder:
			walkErr := fsutil.Walk(loc.Path, func(absPath, relPath string, info fs.FileInfo) error {
				f, err := copyOneFile(loc.ID, absPath, destRoot, relPath)
				if err != nil {
					return err
				}
				files = append(files, *f)
				totalSize += f.SizeBytes
				return nil
			})
			if walkErr != nil {
				return nil, nil, false, walkErr
			}
		}
	}

	snap.SizeBytes = totalSize
	return snap, files, warned, nil
}

func copyOneFile(locationID, sourcePath, destRoot, relPath string) (*model.SnapshotFile, error) {
	dest := filepath.Join(destRoot, relPath)
	if err := fsutil.EnsureDir(filepath.Dir(dest)); err != nil {
		return nil, err
	}
	if err := fsutil.CopyWithRetry(sourcePath, dest); err != nil {
		return nil, err
	}
	sum, err := fsutil.HashFile(dest)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dest)
	if err != nil {
		return nil, errors.Wrap(err, "unable to stat copied file")
	}
	return &model.SnapshotFile{
		ID:           newID(),
		LocationID:   locationID,
		RelativePath: relPath,
		SizeBytes:    info.Size(),
		Checksum:     sum,
	}, nil
}

// assignStorageFolders computes and uniquifies the per-location storage
// folder for a snapshot, from the basename of each location's path.
func assignStorageFolders(locations []model.SaveLocation) map[string]string {
	taken := make(map[string]bool, len(locations))
	out := make(map[string]string, len(locations))
	for _, loc := range locations {
		base := fsutil.SanitizeFilesystemName(filepath.Base(strings.TrimRight(loc.Path, `/\`)))
		name := fsutil.UniqueName(base, func(candidate string) bool {
			return taken[fsutil.CanonicalCase(candidate)]
		})
		taken[fsutil.CanonicalCase(name)] = true
		out[loc.ID] = name
	}
	return out
}

func buildManifest(snap *model.Snapshot, locations []model.SaveLocation, files []model.SnapshotFile) *Manifest {
	storageFolders := assignStorageFolders(locations)
	m := &Manifest{
		Version:    manifestVersion,
		SnapshotID: snap.ID,
		CreatedAt:  snap.CreatedAt,
		Reason:     snap.Reason,
		Locations:  make(map[string]ManifestLocation, len(locations)),
	}
	for _, loc := range locations {
		m.Locations[loc.ID] = ManifestLocation{
			Path:          loc.Path,
			Type:          loc.Type,
			AutoDetected:  loc.AutoDetected,
			Enabled:       loc.Enabled,
			StorageFolder: storageFolders[loc.ID],
		}
	}
	return m
}

// AggregateChecksum implements invariant 2: a deterministic hash over the
// sorted (location_id, relative_path, per_file_checksum, size_bytes)
// tuples. Exported so the scanner (C7) can recompute the identical value
// when rebuilding a Snapshot row from a manifest found on disk.
func AggregateChecksum(files []model.SnapshotFile) string {
	sorted := make([]model.SnapshotFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].LocationID != sorted[j].LocationID {
			return sorted[i].LocationID < sorted[j].LocationID
		}
		return sorted[i].RelativePath < sorted[j].RelativePath
	})

	var b strings.Builder
	for i, f := range sorted {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(f.LocationID)
		b.WriteByte(':')
		b.WriteString(f.RelativePath)
		b.WriteByte(':')
		b.WriteString(f.Checksum)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(f.SizeBytes, 10))
	}
	return fsutil.HashString(b.String())
}

// applyRetention keeps the top retention_count snapshots by created_at
// desc, deleting the remainder (directory + rows, no event log entries).
func (b *Builder) applyRetention(gameID string) error {
	retentionCount := b.RetentionCount()
	if retentionCount < 1 {
		retentionCount = 1
	}

	snaps := b.Index.GetSnapshotsForGame(gameID)
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CreatedAt.After(snaps[j].CreatedAt) })

	if len(snaps) <= retentionCount {
		return nil
	}
	for _, s := range snaps[retentionCount:] {
		fsutil.RemoveAllSafe(s.StoragePath)
		if err := b.Index.DeleteSnapshotRows(s.ID); err != nil {
			return errors.Wrapf(err, "unable to drop retained snapshot %q rows", s.ID)
		}
		slog.Info("retention pruned snapshot", "game_id", gameID, "snapshot_id", s.ID)
	}
	return nil
}

func enabledOnly(locations []model.SaveLocation) []model.SaveLocation {
	var out []model.SaveLocation
	for _, l := range locations {
		if l.Enabled {
			out = append(out, l)
		}
	}
	return out
}

func newID() string { return uuid.NewString() }

func pathExistsOnDisk(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
