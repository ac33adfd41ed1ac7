package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// folderTimestampLayout produces "YYYY-MM-DD_HH-MM-SS.mmm";
// formatSnapshotTimestamp turns the dot into a dash.
const folderTimestampLayout = "2006-01-02_15-04-05.000"

// uniqueSnapshotFolderName computes the snapshot folder name for now under
// snapshotsDir, suffixing "_2", "_3", ... until the candidate directory
// doesn't already exist.
func uniqueSnapshotFolderName(snapshotsDir string, now time.Time) string {
	base := formatSnapshotTimestamp(now)
	if !dirExists(filepath.Join(snapshotsDir, base)) {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !dirExists(filepath.Join(snapshotsDir, candidate)) {
			return candidate
		}
	}
}

// formatSnapshotTimestamp renders now as "YYYY-MM-DD_HH-MM-SS-mmm" — Go's
// millisecond layout token renders ".123", so the dot is swapped for a
// dash afterward.
func formatSnapshotTimestamp(now time.Time) string {
	s := now.UTC().Format(folderTimestampLayout)
	// "2026-07-31_12-00-00.000" -> "2026-07-31_12-00-00-000"
	return s[:len(s)-4] + "-" + s[len(s)-3:]
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
