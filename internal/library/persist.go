package library

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
)

type document struct {
	Games     []*model.Game         `json:"games"`
	Locations []*model.SaveLocation `json:"locations"`
	Snapshots []*model.Snapshot     `json:"snapshots"`
	Files     []*model.SnapshotFile `json:"files"`
	Events    []model.EventLog      `json:"events"`
}

func (idx *Index) libraryPath() string {
	return filepath.Join(idx.dataRoot, "AppState", "library.json")
}

// SettingsPath returns <dataRoot>/AppState/settings.json.
func SettingsPath(dataRoot string) string {
	return filepath.Join(dataRoot, "AppState", "settings.json")
}

// Load reads the persisted library document, if any. A missing file is
// not an error — a fresh install starts with an empty index.
func (idx *Index) Load() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	data, err := os.ReadFile(idx.libraryPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "unable to read library index")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "unable to parse library index")
	}

	idx.games = make(map[string]*model.Game, len(doc.Games))
	for _, g := range doc.Games {
		idx.games[g.ID] = g
	}
	idx.locations = make(map[string]*model.SaveLocation, len(doc.Locations))
	for _, l := range doc.Locations {
		idx.locations[l.ID] = l
	}
	idx.snapshots = make(map[string]*model.Snapshot, len(doc.Snapshots))
	for _, s := range doc.Snapshots {
		idx.snapshots[s.ID] = s
	}
	idx.files = make(map[string]*model.SnapshotFile, len(doc.Files))
	for _, f := range doc.Files {
		idx.files[f.ID] = f
	}
	idx.events = doc.Events

	return nil
}

// save persists the index atomically. Callers must hold idx.mu.
func (idx *Index) save() error {
	doc := document{
		Games:     make([]*model.Game, 0, len(idx.games)),
		Locations: make([]*model.SaveLocation, 0, len(idx.locations)),
		Snapshots: make([]*model.Snapshot, 0, len(idx.snapshots)),
		Files:     make([]*model.SnapshotFile, 0, len(idx.files)),
		Events:    idx.events,
	}
	for _, g := range idx.games {
		doc.Games = append(doc.Games, g)
	}
	for _, l := range idx.locations {
		doc.Locations = append(doc.Locations, l)
	}
	for _, s := range idx.snapshots {
		doc.Snapshots = append(doc.Snapshots, s)
	}
	for _, f := range idx.files {
		doc.Files = append(doc.Files, f)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal library index")
	}

	return fsutil.WriteFileAtomic(idx.libraryPath(), data, 0o644)
}

// LoadSettings reads settings.json, returning defaults if it doesn't
// exist yet.
func LoadSettings(dataRoot, storageRoot string) (model.Settings, error) {
	path := SettingsPath(dataRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultSettings(dataRoot, storageRoot), nil
		}
		return model.Settings{}, errors.Wrap(err, "unable to read settings")
	}
	var s model.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Settings{}, errors.Wrap(err, "unable to parse settings")
	}
	return s, nil
}

// SaveSettings writes settings.json atomically.
func SaveSettings(dataRoot string, s model.Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal settings")
	}
	return fsutil.WriteFileAtomic(SettingsPath(dataRoot), data, 0o644)
}

// writeGameSidecar writes <storageRoot>/<folderName>/metadata.json, the
// sole ground truth the scanner (C7) reads to recover library state.
func writeGameSidecar(storageRoot string, g *model.Game) error {
	dir := filepath.Join(storageRoot, g.FolderName)
	if err := fsutil.EnsureDir(dir); err != nil {
		return err
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal game metadata")
	}
	return fsutil.WriteFileAtomic(filepath.Join(dir, "metadata.json"), data, 0o644)
}
