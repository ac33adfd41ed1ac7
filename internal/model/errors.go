package model

import "fmt"

// NotFoundKind names what kind of row a NotFoundError refers to.
type NotFoundKind string

const (
	NotFoundGame     NotFoundKind = "game"
	NotFoundSnapshot NotFoundKind = "snapshot"
	NotFoundLocation NotFoundKind = "location"
)

// NotFoundError is returned when an operation is given an id that doesn't
// resolve to an existing row.
type NotFoundError struct {
	Kind NotFoundKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvalidInputError flags a caller-supplied value that fails validation at
// the operation boundary (empty/whitespace strings, non-positive integers,
// malformed payloads).
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ManifestInvalidError flags a snapshot manifest that is missing, the wrong
// version, missing required fields, or otherwise unusable.
type ManifestInvalidError struct {
	Path   string
	Reason string
}

func (e *ManifestInvalidError) Error() string {
	return fmt.Sprintf("manifest at %q is invalid: %s", e.Path, e.Reason)
}

// PathEscapeError flags a derived path that would resolve outside its
// declared root — the containment guard's failure mode.
type PathEscapeError struct {
	Context string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("%s: path resolves outside its allowed root", e.Context)
}

// CopyFailedError flags a copy-with-retries operation that exhausted its
// retry budget.
type CopyFailedError struct {
	Source string
	Dest   string
	Cause  error
}

func (e *CopyFailedError) Error() string {
	return fmt.Sprintf("copy %q -> %q failed: %v", e.Source, e.Dest, e.Cause)
}

func (e *CopyFailedError) Unwrap() error { return e.Cause }

// StorageMigrationFailedError flags a storage-root migration where both the
// rename and the fallback copy+remove failed. The old location is left
// intact and settings are left unchanged.
type StorageMigrationFailedError struct {
	Target string
	Cause  error
}

func (e *StorageMigrationFailedError) Error() string {
	return fmt.Sprintf("storage migration to %q failed: %v", e.Target, e.Cause)
}

func (e *StorageMigrationFailedError) Unwrap() error { return e.Cause }

// CatalogMissingError flags a catalog file that could not be found.
type CatalogMissingError struct {
	Path string
}

func (e *CatalogMissingError) Error() string {
	return fmt.Sprintf("catalog file %q not found", e.Path)
}

// CatalogInvalidError flags a catalog file that failed to parse.
type CatalogInvalidError struct {
	Path  string
	Cause error
}

func (e *CatalogInvalidError) Error() string {
	return fmt.Sprintf("catalog file %q is invalid: %v", e.Path, e.Cause)
}

func (e *CatalogInvalidError) Unwrap() error { return e.Cause }

// SafetyBackupFailedError flags a restore that was blocked because the
// pre-restore safety snapshot returned nil instead of succeeding.
type SafetyBackupFailedError struct {
	GameID string
}

func (e *SafetyBackupFailedError) Error() string {
	return "Restore blocked: failed to create safety backup before restore."
}

// RecoveryModeError flags a mutating operation refused because the
// configured data root is unreachable.
type RecoveryModeError struct {
	DataRoot string
}

func (e *RecoveryModeError) Error() string {
	return fmt.Sprintf("recovery mode: data root %q is unreachable; update settings to unblock", e.DataRoot)
}
