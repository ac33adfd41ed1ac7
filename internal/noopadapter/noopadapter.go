// Package noopadapter provides the MetadataAdapter and RegistryAdapter
// implementations used on non-Windows hosts: detection still runs end to
// end, it simply never finds PE metadata or registry values, so the
// detector falls back to yielding no-windows-locations or no-match as
// appropriate.
package noopadapter

// Metadata always reports unavailable.
type Metadata struct{}

func (Metadata) Extract(string) (string, string, bool) { return "", "", false }

// Registry always reports unreachable.
type Registry struct{}

func (Registry) QueryStringValues(string) []string { return nil }
func (Registry) Available() bool                   { return false }
