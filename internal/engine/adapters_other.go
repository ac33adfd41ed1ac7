//go:build !windows

package engine

import (
	"github.com/saveforge/backupcore/internal/detect"
	"github.com/saveforge/backupcore/internal/noopadapter"
)

// DefaultAdapters returns the host-appropriate detect.MetadataAdapter,
// detect.RegistryAdapter, and Steam-library accessor for New. Off Windows,
// detection still runs end to end but never finds PE metadata, registry
// values, or Steam libraries.
func DefaultAdapters() (detect.MetadataAdapter, detect.RegistryAdapter, func() []string) {
	return noopadapter.Metadata{}, noopadapter.Registry{}, func() []string { return nil }
}
