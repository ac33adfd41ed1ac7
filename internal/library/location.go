package library

import (
	"sort"
	"strings"

	"github.com/saveforge/backupcore/internal/model"
)

// AddLocation registers a new save location for a game. autoDetected marks
// rows populated by the detector (C3) rather than entered by hand.
func (idx *Index) AddLocation(gameID, path string, locType model.LocationType, autoDetected bool) (*model.SaveLocation, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &model.InvalidInputError{Field: "path", Reason: "must not be empty"}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.games[gameID]; !ok {
		return nil, &model.NotFoundError{Kind: model.NotFoundGame, ID: gameID}
	}

	for _, l := range idx.locations {
		if l.GameID == gameID && l.Path == path {
			return l, nil
		}
	}

	loc := &model.SaveLocation{
		ID:           newID(),
		GameID:       gameID,
		Path:         path,
		Type:         locType,
		AutoDetected: autoDetected,
		Enabled:      true,
	}
	idx.locations[loc.ID] = loc

	if err := idx.save(); err != nil {
		return nil, err
	}
	return loc, nil
}

// ToggleLocation flips whether a location participates in future snapshots.
// Disabling a location never touches snapshots already taken from it.
func (idx *Index) ToggleLocation(locationID string, enabled bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	loc, ok := idx.locations[locationID]
	if !ok {
		return &model.NotFoundError{Kind: model.NotFoundLocation, ID: locationID}
	}
	loc.Enabled = enabled
	return idx.save()
}

// RemoveLocation detaches a location from future backups. This is a
// detach, not a cascade delete: existing SnapshotFile rows keep
// referencing the (now-gone) LocationID so historical snapshots remain
// readable by checksum and relative path alone.
func (idx *Index) RemoveLocation(locationID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.locations[locationID]; !ok {
		return &model.NotFoundError{Kind: model.NotFoundLocation, ID: locationID}
	}
	delete(idx.locations, locationID)
	return idx.save()
}

// LocationsForGame returns every tracked location for a game, enabled and
// disabled alike.
func (idx *Index) LocationsForGame(gameID string) []model.SaveLocation {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var out []model.SaveLocation
	for _, l := range idx.locations {
		if l.GameID == gameID {
			loc := *l
			loc.Exists = pathExists(loc.Path)
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// GetSnapshotsForGame returns every snapshot recorded for a game, newest
// first.
func (idx *Index) GetSnapshotsForGame(gameID string) []model.Snapshot {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var out []model.Snapshot
	for _, s := range idx.snapshots {
		if s.GameID == gameID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
