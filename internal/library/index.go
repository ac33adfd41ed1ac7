// Package library implements the in-memory authoritative library index
// (C4): games, save locations, snapshots, snapshot files, and the event
// log, durably persisted as JSON. Index mutations are serialized by a
// single mutex under a cooperative single-writer model: there is exactly
// one goroutine-safe entry point per operation. Filesystem work done by
// an operation (persisting the document, writing a game sidecar,
// removing a game folder, stat-ing location paths) runs while the lock
// is held.
package library

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
)

const maxEventLogEntries = 5000

// RunningChecker reports whether a game's process is currently running.
// It is the library's view of the out-of-scope session-monitor
// collaborator; callers that don't have one can leave it nil.
type RunningChecker interface {
	IsRunning(gameID string) bool
}

// Index is the in-memory library store, durably persisted at
// <dataRoot>/AppState/library.json.
type Index struct {
	mu sync.Mutex

	dataRoot    string
	storageRoot string

	games     map[string]*model.Game
	locations map[string]*model.SaveLocation
	snapshots map[string]*model.Snapshot
	files     map[string]*model.SnapshotFile
	events    []model.EventLog

	running RunningChecker
}

// New returns an empty index rooted at dataRoot/storageRoot. Call Load to
// populate it from disk.
func New(dataRoot, storageRoot string) *Index {
	return &Index{
		dataRoot:    dataRoot,
		storageRoot: storageRoot,
		games:       make(map[string]*model.Game),
		locations:   make(map[string]*model.SaveLocation),
		snapshots:   make(map[string]*model.Snapshot),
		files:       make(map[string]*model.SnapshotFile),
	}
}

// SetRunningChecker wires the session-monitor collaborator used to
// populate GameSummary.Running.
func (idx *Index) SetRunningChecker(rc RunningChecker) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.running = rc
}

// StorageRoot returns the directory all per-game backup payloads live
// under.
func (idx *Index) StorageRoot() string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.storageRoot
}

// SetStorageRoot updates the storage root used for new sidecars and
// snapshot directories. It does not move any existing on-disk data —
// callers performing a storage-root migration handle the move themselves
// (see internal/appconfig) before calling this.
func (idx *Index) SetStorageRoot(root string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.storageRoot = root
}

func newID() string { return uuid.NewString() }

func nowUTC() time.Time { return time.Now().UTC() }

// folderNameTaken reports whether name collides (case-insensitively) with
// an existing game's folder name, excluding excludeGameID.
func (idx *Index) folderNameTaken(name, excludeGameID string) bool {
	folded := fsutil.CanonicalCase(name)
	for id, g := range idx.games {
		if id == excludeGameID {
			continue
		}
		if fsutil.CanonicalCase(g.FolderName) == folded {
			return true
		}
	}
	return false
}

// DeriveFolderName implements the folder-name derivation:
// strip filesystem-reserved characters, collapse whitespace, truncate,
// and uniquify against existing games.
func (idx *Index) DeriveFolderName(name string) string {
	base := fsutil.SanitizeFilesystemName(name)
	return fsutil.UniqueName(base, func(candidate string) bool {
		return idx.folderNameTaken(candidate, "")
	})
}
