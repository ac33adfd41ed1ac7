// Package engine is the facade tying together the catalog, detector,
// library index, snapshot builder, restore service, and scanner into the
// operations list exposed to collaborators: list_games, get_game_detail,
// add_game, remove_game, add/toggle/remove_save_location,
// detect_catalog_save_paths, backup, restore, verify, delete, scan.
package engine

import (
	"log/slog"

	"github.com/saveforge/backupcore/internal/appconfig"
	"github.com/saveforge/backupcore/internal/catalog"
	"github.com/saveforge/backupcore/internal/detect"
	"github.com/saveforge/backupcore/internal/library"
	"github.com/saveforge/backupcore/internal/model"
	"github.com/saveforge/backupcore/internal/restore"
	"github.com/saveforge/backupcore/internal/scanner"
	"github.com/saveforge/backupcore/internal/snapshot"
)

// Engine is the process-wide singleton wiring every component together:
// constructed once at startup and passed explicitly into every caller,
// with no ambient globals beyond what each component itself guards with
// a mutex.
type Engine struct {
	Boot     *appconfig.Bootstrap
	Index    *library.Index
	Catalog  *catalog.Store
	Detector *detect.Detector
	Builder  *snapshot.Builder
	Restore  *restore.Service
	Scanner  *scanner.Scanner

	CatalogPath string
}

// New wires every component against boot's library index and settings.
// metadataAdapter/registryAdapter/steamLibraries are the OS-specific
// collaborators (internal/winadapter on Windows, internal/noopadapter
// elsewhere); catalogPath is the on-disk catalog JSON file location.
func New(boot *appconfig.Bootstrap, catalogPath string, metadataAdapter detect.MetadataAdapter, registryAdapter detect.RegistryAdapter, steamLibraries func() []string) *Engine {
	catalogStore := catalog.NewStore()

	detector := &detect.Detector{
		Catalog:         catalogStore,
		MetadataAdapter: metadataAdapter,
		RegistryAdapter: registryAdapter,
		SteamLibraries:  steamLibraries,
	}

	builder := snapshot.NewBuilder(boot.Index,
		func() string { return boot.Index.StorageRoot() },
		func() int { return boot.Settings.RetentionCount },
	)

	restoreSvc := restore.NewService(boot.Index, builder)

	scan := scanner.New(boot.Index, func() string { return boot.Index.StorageRoot() })

	return &Engine{
		Boot:        boot,
		Index:       boot.Index,
		Catalog:     catalogStore,
		Detector:    detector,
		Builder:     builder,
		Restore:     restoreSvc,
		Scanner:     scan,
		CatalogPath: catalogPath,
	}
}

// requireReachable refuses mutating operations while the configured data
// root is unreachable, per the recovery-mode contract.
func (e *Engine) requireReachable() error {
	if appconfig.IsReachable(e.Boot.DataRoot) {
		return nil
	}
	slog.Warn("operation refused: data root unreachable", "data_root", e.Boot.DataRoot)
	return &model.RecoveryModeError{DataRoot: e.Boot.DataRoot}
}

// ListGames implements list_games().
func (e *Engine) ListGames() []library.GameSummary {
	return e.Index.ListGames()
}

// GetGameDetail implements get_game_detail(id).
func (e *Engine) GetGameDetail(gameID string) (*library.GameDetail, error) {
	return e.Index.GetGameDetail(gameID)
}

// AddGame implements add_game(name, exe_path, install_path).
func (e *Engine) AddGame(name, exePath, installPath string) (*model.Game, error) {
	if err := e.requireReachable(); err != nil {
		return nil, err
	}
	return e.Index.AddGame(name, exePath, installPath)
}

// RemoveGame implements remove_game(id).
func (e *Engine) RemoveGame(gameID string) error {
	if err := e.requireReachable(); err != nil {
		return err
	}
	return e.Index.RemoveGame(gameID)
}

// AddSaveLocation implements add_save_location(...).
func (e *Engine) AddSaveLocation(gameID, path string, locType model.LocationType, autoDetected bool) (*model.SaveLocation, error) {
	if err := e.requireReachable(); err != nil {
		return nil, err
	}
	return e.Index.AddLocation(gameID, path, locType, autoDetected)
}

// ToggleSaveLocation implements toggle_save_location(...).
func (e *Engine) ToggleSaveLocation(locationID string, enabled bool) error {
	if err := e.requireReachable(); err != nil {
		return err
	}
	return e.Index.ToggleLocation(locationID, enabled)
}

// RemoveSaveLocation implements remove_save_location(...).
func (e *Engine) RemoveSaveLocation(locationID string) error {
	if err := e.requireReachable(); err != nil {
		return err
	}
	return e.Index.RemoveLocation(locationID)
}

// DetectCatalogSavePaths implements detect_catalog_save_paths(...) (C3).
func (e *Engine) DetectCatalogSavePaths(gameName, exePath, installPath string, progress detect.ProgressFunc) (*detect.Result, error) {
	return e.Detector.Detect(detect.Input{
		CatalogPath: e.CatalogPath,
		GameName:    gameName,
		ExePath:     exePath,
		InstallPath: installPath,
	}, progress)
}

// Backup implements backup(game_id, reason).
func (e *Engine) Backup(gameID string, reason model.SnapshotReason) (*model.Snapshot, error) {
	if err := e.requireReachable(); err != nil {
		return nil, err
	}
	return e.Builder.Backup(gameID, reason, false)
}

// RestoreSnapshot implements restore(snapshot_id).
func (e *Engine) RestoreSnapshot(snapshotID string) error {
	if err := e.requireReachable(); err != nil {
		return err
	}
	return e.Restore.Restore(snapshotID)
}

// Verify implements verify(snapshot_id).
func (e *Engine) Verify(snapshotID string) (restore.VerifyResult, error) {
	return e.Restore.Verify(snapshotID)
}

// Delete implements delete(snapshot_id).
func (e *Engine) Delete(snapshotID string) error {
	if err := e.requireReachable(); err != nil {
		return err
	}
	return e.Restore.Delete(snapshotID)
}

// Scan implements scan().
func (e *Engine) Scan() (scanner.Result, error) {
	if err := e.requireReachable(); err != nil {
		return scanner.Result{}, err
	}
	return e.Scanner.Scan()
}

// UpdateSettings persists new settings, migrating the storage root first
// if it changed.
func (e *Engine) UpdateSettings(s model.Settings) error {
	if s.StorageRoot != e.Boot.Settings.StorageRoot {
		if err := e.Boot.UpdateStorageRoot(s.StorageRoot); err != nil {
			return err
		}
	}
	e.Boot.Settings = s
	return library.SaveSettings(e.Boot.DataRoot, s)
}
