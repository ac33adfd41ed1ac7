package detect

import "regexp"

// startMarker matches the beginning of an independent path template inside
// a composite location string: a <token>, a %ENVVAR%, a registry-root
// prefix, or a drive letter.
var startMarker = regexp.MustCompile(
	`<[^<>]+>|%[A-Za-z0-9_()]+%|HKCU\\|HKLM\\|HKEY_CURRENT_USER\\|HKEY_LOCAL_MACHINE\\|[A-Za-z]:\\`,
)

// SplitByStartMarkers expands a composite location string by finding
// every start marker that begins at a word boundary
// (start of string, or preceded by whitespace) and splitting immediately
// before each one. If fewer than two such boundaries are found, it falls
// back to the given splitter (catalog.SplitComposite in Detect, which
// splits on semicolons, commas, newlines, and whitespace runs).
func SplitByStartMarkers(s string, fallback func(string) []string) []string {
	locs := startMarker.FindAllStringIndex(s, -1)

	var starts []int
	for _, loc := range locs {
		start := loc[0]
		if start == 0 || isWordBoundaryByte(s[start-1]) {
			starts = append(starts, start)
		}
	}

	if len(starts) < 2 {
		return fallback(s)
	}

	segments := make([]string, 0, len(starts))
	for i, start := range starts {
		end := len(s)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		seg := trimSpaceBytes(s[start:end])
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func isWordBoundaryByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func trimSpaceBytes(s string) string {
	start := 0
	for start < len(s) && isWordBoundaryByte(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isWordBoundaryByte(s[end-1]) {
		end--
	}
	return s[start:end]
}
