package library

import (
	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
)

// CommitSnapshot persists a freshly built snapshot and its file rows,
// implementing the Committer collaborator internal/snapshot.Builder needs.
func (idx *Index) CommitSnapshot(snap *model.Snapshot, files []model.SnapshotFile) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cp := *snap
	idx.snapshots[cp.ID] = &cp
	for i := range files {
		f := files[i]
		f.SnapshotID = snap.ID
		idx.files[f.ID] = &f
	}
	return idx.save()
}

// DeleteSnapshotRows removes a snapshot row and its file rows, without
// touching the on-disk snapshot directory (callers handle that
// separately, as part of Delete(snapshot_id)'s ordering).
func (idx *Index) DeleteSnapshotRows(snapshotID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.snapshots, snapshotID)
	for id, f := range idx.files {
		if f.SnapshotID == snapshotID {
			delete(idx.files, id)
		}
	}
	return idx.save()
}

// SnapshotByID looks up a single snapshot row.
func (idx *Index) SnapshotByID(snapshotID string) (*model.Snapshot, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	s, ok := idx.snapshots[snapshotID]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

// FilesForSnapshot returns every SnapshotFile row belonging to a snapshot.
func (idx *Index) FilesForSnapshot(snapshotID string) []model.SnapshotFile {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var out []model.SnapshotFile
	for _, f := range idx.files {
		if f.SnapshotID == snapshotID {
			out = append(out, *f)
		}
	}
	return out
}

// UpsertLocation inserts or replaces a SaveLocation row by id, used by the
// scanner (C7) to reconstruct minimal location seeds from manifest data.
func (idx *Index) UpsertLocation(loc *model.SaveLocation) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	cp := *loc
	idx.locations[cp.ID] = &cp
	return idx.save()
}

// UpsertGame inserts or replaces a Game row by id, used by the scanner to
// recover a game from its metadata sidecar.
func (idx *Index) UpsertGame(g *model.Game) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	cp := *g
	idx.games[cp.ID] = &cp
	return idx.save()
}

// AllGames returns every game row, unenriched, for callers (the scanner)
// that need the raw rows rather than ListGames' summarized view.
func (idx *Index) AllGames() []model.Game {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]model.Game, 0, len(idx.games))
	for _, g := range idx.games {
		out = append(out, *g)
	}
	return out
}

// GameByFolderName looks up a game by its (case-folded) folder name.
func (idx *Index) GameByFolderName(folderName string) (*model.Game, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	folded := fsutil.CanonicalCase(folderName)
	for _, g := range idx.games {
		if fsutil.CanonicalCase(g.FolderName) == folded {
			cp := *g
			return &cp, true
		}
	}
	return nil, false
}
