package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
)

// GameSummary is the enriched view list_games returns: the stored Game
// plus last-backup time, a recent-issue count, and a running flag sourced
// from the (optional) session-monitor collaborator.
type GameSummary struct {
	model.Game
	LastBackupAt *time.Time `json:"last_backup_at,omitempty"`
	IssueCount   int        `json:"issue_count"`
	Running      bool       `json:"running"`
}

// GameDetail is the full view get_game_detail returns.
type GameDetail struct {
	Game      model.Game           `json:"game"`
	Locations []model.SaveLocation `json:"locations"`
	Snapshots []model.Snapshot     `json:"snapshots"`
}

// AddGame validates input, derives a unique folder name, creates the game
// row, writes its metadata sidecar, and persists the index.
func (idx *Index) AddGame(name, exePath, installPath string) (*model.Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &model.InvalidInputError{Field: "name", Reason: "must not be empty"}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	g := &model.Game{
		ID:          newID(),
		Name:        name,
		InstallPath: strings.TrimSpace(installPath),
		ExePath:     strings.TrimSpace(exePath),
		CreatedAt:   nowUTC(),
		Status:      model.StatusWarning,
		FolderName:  idx.DeriveFolderName(name),
	}

	if err := writeGameSidecar(idx.storageRoot, g); err != nil {
		return nil, err
	}

	idx.games[g.ID] = g
	idx.appendEventLocked(g.ID, model.EventBackup, "Game added: "+g.Name)

	if err := idx.save(); err != nil {
		return nil, err
	}
	return g, nil
}

// RemoveGame deletes a game and cascades to its locations, snapshots,
// snapshot files, and event log rows.
func (idx *Index) RemoveGame(gameID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	g, ok := idx.games[gameID]
	if !ok {
		return &model.NotFoundError{Kind: model.NotFoundGame, ID: gameID}
	}

	for id, loc := range idx.locations {
		if loc.GameID == gameID {
			delete(idx.locations, id)
		}
	}
	for id, snap := range idx.snapshots {
		if snap.GameID == gameID {
			delete(idx.snapshots, id)
			for fid, f := range idx.files {
				if f.SnapshotID == id {
					delete(idx.files, fid)
				}
			}
		}
	}

	kept := idx.events[:0:0]
	for _, e := range idx.events {
		if e.GameID != gameID {
			kept = append(kept, e)
		}
	}
	idx.events = kept

	delete(idx.games, gameID)

	fsutil.RemoveAllSafe(filepath.Join(idx.storageRoot, g.FolderName))

	return idx.save()
}

// ListGames returns every game, enriched and sorted by name.
func (idx *Index) ListGames() []GameSummary {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]GameSummary, 0, len(idx.games))
	for _, g := range idx.games {
		out = append(out, idx.summarizeLocked(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (idx *Index) summarizeLocked(g *model.Game) GameSummary {
	summary := GameSummary{Game: *g}

	var latest *model.Snapshot
	for _, s := range idx.snapshots {
		if s.GameID != g.ID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest != nil {
		t := latest.CreatedAt
		summary.LastBackupAt = &t
	}

	recent := idx.recentEventsLocked(g.ID, 20)
	for _, e := range recent {
		if e.Type == model.EventError {
			summary.IssueCount++
		}
	}

	if idx.running != nil {
		summary.Running = idx.running.IsRunning(g.ID)
	}

	return summary
}

// GetGameDetail returns the full detail view for one game.
func (idx *Index) GetGameDetail(gameID string) (*GameDetail, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	g, ok := idx.games[gameID]
	if !ok {
		return nil, &model.NotFoundError{Kind: model.NotFoundGame, ID: gameID}
	}

	detail := &GameDetail{Game: *g}
	for _, l := range idx.locations {
		if l.GameID == gameID {
			loc := *l
			loc.Exists = pathExists(loc.Path)
			detail.Locations = append(detail.Locations, loc)
		}
	}
	for _, s := range idx.snapshots {
		if s.GameID == gameID {
			detail.Snapshots = append(detail.Snapshots, *s)
		}
	}
	sort.Slice(detail.Snapshots, func(i, j int) bool {
		return detail.Snapshots[i].CreatedAt.After(detail.Snapshots[j].CreatedAt)
	})

	return detail, nil
}

// UpdateStatus sets a game's status and persists the index.
func (idx *Index) UpdateStatus(gameID string, status model.GameStatus) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	g, ok := idx.games[gameID]
	if !ok {
		return &model.NotFoundError{Kind: model.NotFoundGame, ID: gameID}
	}
	g.Status = status
	return idx.save()
}

// Game looks up a game row by id without the enrichment list_games adds.
func (idx *Index) Game(gameID string) (*model.Game, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	g, ok := idx.games[gameID]
	if !ok {
		return nil, false
	}
	cp := *g
	return &cp, true
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
