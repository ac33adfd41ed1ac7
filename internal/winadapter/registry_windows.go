//go:build windows

package winadapter

import (
	"strings"

	"golang.org/x/sys/windows/registry"
)

// Registry queries string values under HKCU or HKLM, checking both the
// 32- and 64-bit registry views.
type Registry struct{}

// Available implements detect.RegistryAdapter.
func (Registry) Available() bool { return true }

// QueryStringValues implements detect.RegistryAdapter. registryPath looks
// like `HKEY_CURRENT_USER\SOFTWARE\Vendor\Game` or `HKCU\...`/`HKLM\...`.
func (Registry) QueryStringValues(registryPath string) []string {
	root, subKey, ok := splitRegistryPath(registryPath)
	if !ok {
		return nil
	}

	var out []string
	for _, view := range []uint32{registry.WOW64_64KEY, registry.WOW64_32KEY} {
		out = append(out, queryView(root, subKey, view)...)
	}
	return dedupPreserveOrder(out)
}

func splitRegistryPath(path string) (registry.Key, string, bool) {
	idx := strings.IndexByte(path, '\\')
	if idx < 0 {
		return 0, "", false
	}
	rootName := strings.ToUpper(path[:idx])
	subKey := path[idx+1:]

	switch rootName {
	case "HKCU", "HKEY_CURRENT_USER":
		return registry.CURRENT_USER, subKey, true
	case "HKLM", "HKEY_LOCAL_MACHINE":
		return registry.LOCAL_MACHINE, subKey, true
	default:
		return 0, "", false
	}
}

func queryView(root registry.Key, subKey string, view uint32) []string {
	key, err := registry.OpenKey(root, subKey, registry.QUERY_VALUE|view)
	if err != nil {
		return nil
	}
	defer key.Close()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil
	}

	var values []string
	for _, name := range names {
		if v, _, err := key.GetStringValue(name); err == nil && v != "" {
			values = append(values, v)
		}
	}
	return values
}

func dedupPreserveOrder(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
