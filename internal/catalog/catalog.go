// Package catalog loads and caches the external JSON document mapping game
// titles to save-location rules (C2 in the design). The catalog is
// read-only from this process's perspective; a second process editing it
// only affects the next reload.
package catalog

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/saveforge/backupcore/internal/model"
)

// Rule is one save-location rule for a catalog entry: a target system
// ("Windows", "Linux", "macOS", ...) and a templated location string.
type Rule struct {
	System   string `json:"system"`
	Location string `json:"location"`
}

// Entry is one catalog title with its normalized, split save-location
// rules.
type Entry struct {
	Title string `json:"title"`
	Rules []Rule `json:"rules"`
}

// rawDocument is the shape a catalog file may take: either a bare array of
// raw entries, or an object with a "games" array. Dynamic/unknown fields
// are tolerated; only Title and the location-rule list are required.
type rawDocument struct {
	Games []rawEntry `json:"games"`
}

type rawEntry struct {
	Title             interface{} `json:"title"`
	SaveLocations     []rawRule   `json:"saveLocations"`
	SaveGameDataLocs  []rawRule   `json:"save_game_data_locations"`
}

type rawRule struct {
	System   interface{} `json:"system"`
	Location interface{} `json:"location"`
}

// compositeSplitter recognizes semicolons, commas, newlines, and runs of
// two or more whitespace characters used to concatenate multiple
// independent path templates into one rule string. A single space does
// not split.
var compositeSplitter = regexp.MustCompile(`[;,]|\s{2,}|\r?\n`)

// SplitComposite splits a composite location string into independent rule
// strings, trimming surrounding whitespace and dropping empties. It is
// shared with internal/detect's phase-3 marker-based refinement, which
// calls this as a fallback when fewer than two start markers are found.
func SplitComposite(s string) []string {
	parts := compositeSplitter.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type cacheEntry struct {
	modTime int64
	entries []Entry
}

// Store is a lazy-loaded, mtime-cached catalog parser. It is safe for
// concurrent use.
type Store struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewStore returns an empty, ready-to-use Store.
func NewStore() *Store {
	return &Store{cache: make(map[string]cacheEntry)}
}

// Load returns the normalized entries for the catalog file at path,
// reusing the cached parse if the file's mtime hasn't changed since the
// last successful load.
func (s *Store) Load(path string) ([]Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &model.CatalogMissingError{Path: path}
		}
		return nil, errors.Wrapf(err, "unable to stat catalog %q", path)
	}
	mtime := info.ModTime().UnixNano()

	s.mu.Lock()
	if cached, ok := s.cache[path]; ok && cached.modTime == mtime {
		s.mu.Unlock()
		return cached.entries, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read catalog %q", path)
	}

	entries, err := parse(data)
	if err != nil {
		return nil, &model.CatalogInvalidError{Path: path, Cause: err}
	}

	s.mu.Lock()
	s.cache[path] = cacheEntry{modTime: mtime, entries: entries}
	s.mu.Unlock()

	return entries, nil
}

func parse(data []byte) ([]Entry, error) {
	var doc rawDocument
	var asArray []rawEntry

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &asArray); err != nil {
			return nil, errors.Wrap(err, "unable to parse catalog array")
		}
	} else {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "unable to parse catalog object")
		}
		asArray = doc.Games
	}

	entries := make([]Entry, 0, len(asArray))
	for _, raw := range asArray {
		title, ok := raw.Title.(string)
		if !ok {
			continue
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}

		rawRules := raw.SaveLocations
		if len(rawRules) == 0 {
			rawRules = raw.SaveGameDataLocs
		}

		var rules []Rule
		for _, rr := range rawRules {
			system, _ := rr.System.(string)
			location, _ := rr.Location.(string)
			location = strings.TrimSpace(location)
			if location == "" {
				continue
			}
			for _, segment := range SplitComposite(location) {
				rules = append(rules, Rule{System: strings.TrimSpace(system), Location: segment})
			}
		}

		entries = append(entries, Entry{Title: title, Rules: rules})
	}

	return entries, nil
}
