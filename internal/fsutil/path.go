package fsutil

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"

	"github.com/saveforge/backupcore/internal/model"
)

// foldCaser is the single canonical case-folding form used for the
// case-insensitive path comparisons listed here (the containment
// guard, storage-folder map lookups, folder-name uniqueness, detector
// candidate de-dup) — see DESIGN.md's "Open Question resolutions".
var foldCaser = cases.Fold()

// CanonicalCase returns s folded to the one canonical case used for every
// case-insensitive comparison in this module.
func CanonicalCase(s string) string {
	return foldCaser.String(s)
}

// NormalizeAbs cleans path and makes it absolute. It does not case-fold
// (callers that compare apply CanonicalCase) and does not touch the
// filesystem.
func NormalizeAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve absolute path")
	}
	return filepath.Clean(abs), nil
}

// AssertWithin is the containment guard: it normalizes both root and
// target, then verifies target is root itself or a descendant of root.
// Every read/write driven by untrusted manifest data must pass through
// this before touching disk.
func AssertWithin(root, target, context string) (string, error) {
	normRoot, err := NormalizeAbs(root)
	if err != nil {
		return "", err
	}
	normTarget, err := NormalizeAbs(target)
	if err != nil {
		return "", err
	}

	foldedRoot := CanonicalCase(normRoot)
	foldedTarget := CanonicalCase(normTarget)

	if foldedTarget == foldedRoot {
		return normTarget, nil
	}
	prefix := foldedRoot + string(filepath.Separator)
	if strings.HasPrefix(foldedTarget, prefix) {
		return normTarget, nil
	}
	return "", &model.PathEscapeError{Context: context}
}

// JoinSafe joins root with the given relative segments and applies
// AssertWithin against root, so callers never need to remember the guard
// separately from the join.
func JoinSafe(root, context string, segments ...string) (string, error) {
	parts := append([]string{root}, segments...)
	candidate := filepath.Join(parts...)
	return AssertWithin(root, candidate, context)
}

// SanitizeFilesystemName strips characters that are unsafe in a Windows
// filesystem name and collapses whitespace, matching the folder-name
// derivation used for Game.folder_name and per-location storage folder
// names.
func SanitizeFilesystemName(name string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range name {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r) || r < 0x20:
			continue
		case r == ' ' || r == '\t':
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		default:
			b.WriteRune(r)
			lastWasSpace = false
		}
	}
	out := strings.TrimSpace(b.String())
	out = strings.TrimRight(out, ".")
	const maxLen = 100
	if len(out) > maxLen {
		out = strings.TrimSpace(out[:maxLen])
	}
	if out == "" {
		out = "unnamed"
	}
	return out
}

// UniqueName appends " (2)", " (3)", ... to base until exists(candidate)
// reports false.
func UniqueName(base string, exists func(candidate string) bool) string {
	if !exists(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + " (" + itoa(n) + ")"
		if !exists(candidate) {
			return candidate
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

