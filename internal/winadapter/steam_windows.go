//go:build windows

package winadapter

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// pathValuePattern extracts the quoted value out of a libraryfolders.vdf
// `"path"		"D:\\SteamLibrary"` line.
var pathValuePattern = regexp.MustCompile(`(?i)"path"\s*"([^"]+)"`)

// SteamLibraries returns the steamapps\common directory of every Steam
// library listed in libraryfolders.vdf under the Steam install directory
// found in the registry. It is the func(() []string) wired into
// detect.Detector.SteamLibraries on Windows; it never fails, returning nil
// when Steam isn't installed or the library file can't be parsed.
func SteamLibraries() []string {
	steamPath, ok := steamInstallPath()
	if !ok {
		return nil
	}

	f, err := os.Open(steamPath + `\steamapps\libraryfolders.vdf`)
	if err != nil {
		return nil
	}
	defer f.Close()

	var libraries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := pathValuePattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		lib := strings.ReplaceAll(m[1], `\\`, `\`)
		libraries = append(libraries, lib+`\steamapps\common`)
	}
	return libraries
}

func steamInstallPath() (string, bool) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `SOFTWARE\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer key.Close()

	path, _, err := key.GetStringValue("SteamPath")
	if err != nil || path == "" {
		return "", false
	}
	return strings.ReplaceAll(path, "/", `\`), true
}
