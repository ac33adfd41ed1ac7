// Package snapshot implements the Snapshot Builder (C5): it walks a game's
// enabled save locations, copies files into a content-addressed snapshot
// directory, writes a version-2 manifest, commits rows to the library
// index, and applies retention.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/model"
)

const manifestFileName = "snapshot.manifest.json"

// manifestVersion is the only manifest version this builder writes or
// accepts on read; anything else is ManifestInvalid.
const manifestVersion = 2

// ManifestLocation is one entry in a manifest's locations map: the source
// location as it existed at backup time, plus where its files landed
// under the snapshot root.
type ManifestLocation struct {
	Path          string              `json:"path"`
	Type          model.LocationType  `json:"type"`
	AutoDetected  bool                `json:"auto_detected"`
	Enabled       bool                `json:"enabled"`
	StorageFolder string              `json:"storage_folder"`
}

// Manifest is the version-2 on-disk manifest written at
// <snapshot_root>/snapshot.manifest.json.
type Manifest struct {
	Version    int                          `json:"version"`
	SnapshotID string                       `json:"snapshot_id"`
	CreatedAt  time.Time                    `json:"created_at"`
	Reason     model.SnapshotReason         `json:"reason"`
	Locations  map[string]ManifestLocation  `json:"locations"`
}

// Validate checks the structural requirements invariant 3 demands: version
// 2, and every location referenced by an entry present in the map (checked
// by callers walking files, not here, since Manifest alone doesn't know
// about file rows).
func (m *Manifest) Validate(path string) error {
	if m.Version != manifestVersion {
		return &model.ManifestInvalidError{Path: path, Reason: "unsupported manifest version"}
	}
	if m.SnapshotID == "" {
		return &model.ManifestInvalidError{Path: path, Reason: "missing snapshot_id"}
	}
	if m.Locations == nil {
		return &model.ManifestInvalidError{Path: path, Reason: "missing locations map"}
	}
	return nil
}

// WriteManifest pretty-prints m at <snapshotRoot>/snapshot.manifest.json.
func WriteManifest(snapshotRoot string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal manifest")
	}
	return fsutil.WriteFileAtomic(ManifestPath(snapshotRoot), data, 0o644)
}

// ReadManifest loads and validates the manifest at snapshotRoot. Any
// missing-file or parse error, or a failed Validate, is reported as
// ManifestInvalidError.
func ReadManifest(snapshotRoot string) (*Manifest, error) {
	path := ManifestPath(snapshotRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ManifestInvalidError{Path: path, Reason: "manifest file unreadable"}
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &model.ManifestInvalidError{Path: path, Reason: "manifest is not valid JSON"}
	}
	if err := m.Validate(path); err != nil {
		return nil, err
	}
	return &m, nil
}

// ManifestPath returns <snapshotRoot>/snapshot.manifest.json.
func ManifestPath(snapshotRoot string) string {
	return filepath.Join(snapshotRoot, manifestFileName)
}

// LookupLocationID resolves a storage folder name to the location_id it
// belongs to, case-insensitively, matching the scanner's recovery fallback.
func (m *Manifest) LookupLocationID(storageFolder string) (string, bool) {
	folded := fsutil.CanonicalCase(storageFolder)
	for locID, loc := range m.Locations {
		if fsutil.CanonicalCase(loc.StorageFolder) == folded {
			return locID, true
		}
	}
	return "", false
}
