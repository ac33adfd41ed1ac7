package detect

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/saveforge/backupcore/internal/fsutil"
)

var saveLikeExtensions = map[string]struct{}{
	".sav": {}, ".save": {}, ".dat": {}, ".profile": {}, ".json": {}, ".ini": {}, ".cfg": {},
}

const (
	scoreExistence     = 0.55
	scoreFileType      = 0.15
	scoreFileExt       = 0.25
	scoreDirType       = 0.10
	scoreDirNonEmpty   = 0.10
	scoreDirSaveLikeDescendant = 0.20
	scoreNameHint      = 0.05
	scoreFromRegistry  = 0.05
	bfsMaxDepth        = 2
	bfsScanCap         = 300
)

// ScoreCandidate evaluates one expanded, existing path, returning its
// score (capped at 1.0) and the reasons contributing to it.
func ScoreCandidate(path string, info os.FileInfo, fromRegistry bool) (float64, []string) {
	score := scoreExistence
	reasons := []string{"path exists"}

	if info.IsDir() {
		score += scoreDirType
		reasons = append(reasons, "is a directory")

		entries, _ := os.ReadDir(path)
		if len(entries) > 0 {
			score += scoreDirNonEmpty
			reasons = append(reasons, "directory is non-empty")
		}

		if bfsHasSaveLikeDescendant(path) {
			score += scoreDirSaveLikeDescendant
			reasons = append(reasons, "save-like files detected")
		}
	} else {
		score += scoreFileType
		reasons = append(reasons, "is a file")

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := saveLikeExtensions[ext]; ok {
			score += scoreFileExt
			reasons = append(reasons, "save-like file extension")
		}
	}

	lowerPath := strings.ToLower(path)
	if strings.Contains(lowerPath, "save") || strings.Contains(lowerPath, "profile") {
		score += scoreNameHint
		reasons = append(reasons, "path name hints at saves")
	}

	if fromRegistry {
		score += scoreFromRegistry
		reasons = append(reasons, "resolved via registry value")
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, reasons
}

// bfsHasSaveLikeDescendant reports whether any descendant file up to
// bfsMaxDepth levels deep (scanning at most bfsScanCap entries) has a
// save-like extension.
func bfsHasSaveLikeDescendant(root string) bool {
	type queued struct {
		path  string
		depth int
	}
	queue := []queued{{root, 0}}
	scanned := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(cur.path)
		if err != nil {
			continue
		}
		for _, e := range entries {
			scanned++
			if scanned > bfsScanCap {
				return false
			}
			full := filepath.Join(cur.path, e.Name())
			if e.IsDir() {
				if cur.depth+1 <= bfsMaxDepth {
					queue = append(queue, queued{full, cur.depth + 1})
				}
				continue
			}
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if _, ok := saveLikeExtensions[ext]; ok {
				return true
			}
		}
	}
	return false
}

// MergeCandidates merges candidates by normalized, case-folded path,
// keeping the highest score and the union of reasons, then sorts
// descending by score.
func MergeCandidates(candidates []Candidate) []Candidate {
	byPath := make(map[string]*Candidate)
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		key := fsutil.CanonicalCase(filepath.Clean(c.Path))
		existing, ok := byPath[key]
		if !ok {
			cp := c
			byPath[key] = &cp
			order = append(order, key)
			continue
		}
		if c.Score > existing.Score {
			existing.Score = c.Score
		}
		existing.Reasons = unionStrings(existing.Reasons, c.Reasons)
		existing.FromRegistry = existing.FromRegistry || c.FromRegistry
	}

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byPath[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
