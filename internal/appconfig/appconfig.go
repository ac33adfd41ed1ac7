// Package appconfig implements the settings/data-root bootstrap: a small
// file under the OS application-data area that remembers the chosen
// data_root across runs, plus storage-root migration (rename, falling
// back to recursive copy+remove).
package appconfig

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/saveforge/backupcore/internal/fsutil"
	"github.com/saveforge/backupcore/internal/library"
	"github.com/saveforge/backupcore/internal/model"
)

const appName = "SaveForge"

type bootstrap struct {
	DataRoot string `json:"dataRoot"`
}

// bootstrapPath returns <os-config-dir>/SaveForge/bootstrap.json.
func bootstrapPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve OS application-data directory")
	}
	return filepath.Join(dir, appName, "bootstrap.json"), nil
}

// ResolveDataRoot reads the bootstrap file, if any, returning its
// remembered data_root. If no bootstrap file exists, it returns
// defaultDataRoot without error — the caller is expected to persist that
// choice via SetDataRoot on first successful startup.
func ResolveDataRoot(defaultDataRoot string) (string, error) {
	path, err := bootstrapPath()
	if err != nil {
		return defaultDataRoot, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultDataRoot, nil
		}
		return defaultDataRoot, nil
	}
	var b bootstrap
	if err := json.Unmarshal(data, &b); err != nil || b.DataRoot == "" {
		return defaultDataRoot, nil
	}
	return b.DataRoot, nil
}

// SetDataRoot writes the bootstrap file recording dataRoot as the data
// root future launches should use.
func SetDataRoot(dataRoot string) error {
	path, err := bootstrapPath()
	if err != nil {
		return err
	}
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(bootstrap{DataRoot: dataRoot}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal bootstrap file")
	}
	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// IsReachable reports whether dataRoot can be used: it exists as a
// directory, or it (with any missing parents) can be created, in which
// case IsReachable creates it. A mutating
// operation attempted while this is false must refuse with
// RecoveryModeError.
func IsReachable(dataRoot string) bool {
	if dataRoot == "" {
		return false
	}
	if info, err := os.Stat(dataRoot); err == nil {
		return info.IsDir()
	}
	return fsutil.EnsureDir(dataRoot) == nil
}

// MigrateStorageRoot moves every game folder from oldRoot to newRoot,
// trying a plain rename first and falling back to a recursive copy+remove
// if the rename fails (e.g. a cross-device move). On total failure, the
// old location is left intact and the caller must not update settings.
func MigrateStorageRoot(oldRoot, newRoot string) error {
	if oldRoot == newRoot {
		return nil
	}
	slog.Info("storage root migration started", "from", oldRoot, "to", newRoot)
	if _, err := os.Stat(oldRoot); os.IsNotExist(err) {
		return fsutil.EnsureDir(newRoot)
	}

	if err := fsutil.EnsureDir(filepath.Dir(newRoot)); err != nil {
		slog.Error("storage root migration failed: unable to create target parent", "to", newRoot, "error", err)
		return &model.StorageMigrationFailedError{Target: newRoot, Cause: err}
	}

	if err := os.Rename(oldRoot, newRoot); err == nil {
		slog.Info("storage root migration finished via rename", "from", oldRoot, "to", newRoot)
		return nil
	}

	slog.Warn("storage root rename failed, falling back to copy", "from", oldRoot, "to", newRoot)
	if err := copyRecursive(oldRoot, newRoot); err != nil {
		slog.Error("storage root migration failed", "from", oldRoot, "to", newRoot, "error", err)
		fsutil.RemoveAllSafe(newRoot)
		return &model.StorageMigrationFailedError{Target: newRoot, Cause: err}
	}
	fsutil.RemoveAllSafe(oldRoot)
	slog.Info("storage root migration finished via copy", "from", oldRoot, "to", newRoot)
	return nil
}

// copyRecursive is the fallback path for a storage-root migration when a
// plain rename isn't possible (e.g. the target is on a different volume).
func copyRecursive(src, dst string) error {
	if err := fsutil.EnsureDir(dst); err != nil {
		return err
	}
	return fsutil.Walk(src, func(absPath, relPath string, info os.FileInfo) error {
		dest := filepath.Join(dst, relPath)
		return fsutil.CopyWithRetry(absPath, dest)
	})
}

// Bootstrap ties together the on-disk layout: it resolves the data root,
// loads (or defaults) settings, and constructs the library
// index rooted there — the single entry point internal/engine uses at
// startup.
type Bootstrap struct {
	DataRoot    string
	StorageRoot string
	Settings    model.Settings
	Index       *library.Index
}

// Load resolves the data root, loads settings (defaulting on a fresh
// install), loads the library index, and persists the resolved data root
// to the bootstrap file.
func Load() (*Bootstrap, error) {
	defaultDataRoot, err := defaultDataRootPath()
	if err != nil {
		return nil, err
	}

	dataRoot, err := ResolveDataRoot(defaultDataRoot)
	if err != nil {
		return nil, err
	}
	if !IsReachable(dataRoot) {
		return nil, &model.RecoveryModeError{DataRoot: dataRoot}
	}

	defaultStorageRoot := filepath.Join(dataRoot, "Backups")
	settings, err := library.LoadSettings(dataRoot, defaultStorageRoot)
	if err != nil {
		return nil, err
	}

	idx := library.New(dataRoot, settings.StorageRoot)
	if err := idx.Load(); err != nil {
		return nil, err
	}

	_ = SetDataRoot(dataRoot)

	return &Bootstrap{
		DataRoot:    dataRoot,
		StorageRoot: settings.StorageRoot,
		Settings:    settings,
		Index:       idx,
	}, nil
}

// UpdateStorageRoot migrates the on-disk storage root to newRoot, then
// persists the new settings and re-points the index. Settings are left
// unchanged if the migration fails.
func (b *Bootstrap) UpdateStorageRoot(newRoot string) error {
	if err := MigrateStorageRoot(b.StorageRoot, newRoot); err != nil {
		return err
	}
	b.Settings.StorageRoot = newRoot
	if err := library.SaveSettings(b.DataRoot, b.Settings); err != nil {
		return err
	}
	b.StorageRoot = newRoot
	b.Index.SetStorageRoot(newRoot)
	return nil
}

func defaultDataRootPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve default data root")
	}
	return filepath.Join(dir, appName), nil
}
