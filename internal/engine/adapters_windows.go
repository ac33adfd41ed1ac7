//go:build windows

package engine

import (
	"github.com/saveforge/backupcore/internal/detect"
	"github.com/saveforge/backupcore/internal/winadapter"
)

// DefaultAdapters returns the host-appropriate detect.MetadataAdapter,
// detect.RegistryAdapter, and Steam-library accessor for New: on Windows
// these are backed by PE version-resource reads, registry queries, and
// libraryfolders.vdf parsing.
func DefaultAdapters() (detect.MetadataAdapter, detect.RegistryAdapter, func() []string) {
	return winadapter.Metadata{}, winadapter.Registry{}, winadapter.SteamLibraries
}
