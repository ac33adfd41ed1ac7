package detect

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/saveforge/backupcore/internal/catalog"
)

// matchThreshold is exclusive: a top score of exactly 0.45 is rejected,
// 0.46 is accepted.
const matchThreshold = 0.45
const ambiguousRunnerUpScore = 0.65
const ambiguousScoreGap = 0.05

var registryRootPrefixes = []string{
	`HKCU\`, `HKLM\`,
	`HKEY_CURRENT_USER\`, `HKEY_LOCAL_MACHINE\`,
}

func isRegistryPath(s string) bool {
	lower := strings.ToLower(s)
	for _, prefix := range registryRootPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

// Detector runs the catalog save-path detector (C3).
type Detector struct {
	Catalog         *catalog.Store
	MetadataAdapter MetadataAdapter
	RegistryAdapter RegistryAdapter
	SteamLibraries  func() []string
}

// Input is everything Detect needs about the game being matched.
type Input struct {
	CatalogPath string
	GameName    string
	ExePath     string
	InstallPath string
}

// Detect runs all five match phases, invoking progress
// (if non-nil) as work proceeds. progress is called synchronously and must
// not block; a panicking callback is recovered so it never aborts
// detection.
func (d *Detector) Detect(in Input, progress ProgressFunc) (*Result, error) {
	slog.Info("detect started", "game_name", in.GameName, "exe_path", in.ExePath)
	result := &Result{Warnings: []string{}}

	report := func(p Progress) {
		if progress == nil {
			return
		}
		if p.Percent < 0 {
			p.Percent = 0
		}
		if p.Percent > 100 {
			p.Percent = 100
		}
		safeCall(progress, p)
	}

	report(Progress{Percent: 0, Message: "reading executable metadata"})

	// Phase 1: metadata extraction.
	product, description, _ := d.MetadataAdapter.Extract(in.ExePath)
	result.Metadata = Metadata{ProductName: product, FileDescription: description}

	entries, err := d.Catalog.Load(in.CatalogPath)
	if err != nil {
		slog.Error("detect failed: unable to load catalog", "catalog_path", in.CatalogPath, "error", err)
		return nil, err
	}

	installBase := filepath.Base(filepath.Clean(in.InstallPath))
	exeBase := strings.TrimSuffix(filepath.Base(in.ExePath), filepath.Ext(in.ExePath))

	queries := BuildQuerySet(product, description, in.GameName, installBase, exeBase)
	result.Debug.QueriesUsed = queries

	report(Progress{Percent: 10, Message: "matching title against catalog", Total: len(entries)})

	// Phase 2: title matching.
	var ranked []scoredEntry
	for _, entry := range entries {
		best := 0.0
		for _, q := range queries {
			if s := TitleScore(q, entry.Title); s > best {
				best = s
			}
		}
		ranked = append(ranked, scoredEntry{entry, best})
	}
	sortScoredDesc(ranked)

	if len(ranked) == 0 || ranked[0].score <= matchThreshold {
		result.Status = StatusNoMatch
		slog.Info("detect finished: no catalog match", "game_name", in.GameName)
		report(Progress{Percent: 100, Message: "no catalog match found"})
		return result, nil
	}

	top := ranked[0]
	result.MatchedTitle = top.entry.Title
	result.MatchScore = top.score

	if len(ranked) > 1 {
		second := ranked[1]
		if second.score >= ambiguousRunnerUpScore && (top.score-second.score) <= ambiguousScoreGap {
			result.TitleAmbiguous = true
		}
	}

	report(Progress{Percent: 30, Message: "extracting save-location rules", MatchedTitle: result.MatchedTitle})

	// Phase 3: location extraction.
	var windowsRules []string
	for _, rule := range top.entry.Rules {
		if !strings.EqualFold(rule.System, "windows") {
			continue
		}
		windowsRules = append(windowsRules, SplitByStartMarkers(rule.Location, catalog.SplitComposite)...)
	}

	if len(windowsRules) == 0 {
		result.Status = StatusNoWindowsLocations
		slog.Warn("detect finished: matched title has no windows save locations", "matched_title", result.MatchedTitle)
		report(Progress{Percent: 100, Message: "no windows save locations in catalog entry", MatchedTitle: result.MatchedTitle})
		return result, nil
	}

	ctx := ExpansionContext{
		InstallPath:     in.InstallPath,
		GameName:        in.GameName,
		InstallBaseName: installBase,
	}
	if d.SteamLibraries != nil {
		ctx.SteamLibraries = d.SteamLibraries()
	}
	lookup := EnvLookup()

	// Phase 4: rule resolution.
	var candidates []Candidate
	var samples []DebugSample

	for i, rule := range windowsRules {
		percent := 30 + (i*50)/len(windowsRules)
		report(Progress{
			Percent: percent, Processed: i, Total: len(windowsRules),
			Message: "resolving rule " + rule, MatchedTitle: result.MatchedTitle,
		})

		var templates []string
		fromRegistry := false

		if isRegistryPath(rule) {
			fromRegistry = d.RegistryAdapter != nil && d.RegistryAdapter.Available()
			if fromRegistry {
				values := d.RegistryAdapter.QueryStringValues(rule)
				for _, v := range values {
					if looksLikePath(v) {
						templates = append(templates, ExpandTemplate(v, ctx, lookup, DefaultListDir)...)
					}
				}
			}
		} else {
			templates = ExpandTemplate(rule, ctx, lookup, DefaultListDir)
		}

		for _, tmpl := range templates {
			info, err := os.Stat(tmpl)
			existed := err == nil
			if len(samples) < maxDebugSamples {
				samples = append(samples, DebugSample{Template: rule, Resolved: tmpl, Existed: existed})
			}
			if !existed {
				continue
			}
			score, reasons := ScoreCandidate(tmpl, info, fromRegistry)
			candidates = append(candidates, Candidate{
				Path: tmpl, Score: score, IsDir: info.IsDir(),
				Reasons: reasons, FromRegistry: fromRegistry,
			})
		}
	}

	result.Debug.Samples = samples

	// Phase 5: merge/score/sort.
	merged := MergeCandidates(candidates)
	result.Candidates = merged

	if len(merged) == 0 {
		result.Status = StatusNoValidCandidates
		slog.Warn("detect finished: no valid candidates", "matched_title", result.MatchedTitle)
	} else {
		result.Status = StatusMatched
		slog.Info("detect finished: matched", "matched_title", result.MatchedTitle, "candidates", len(merged))
	}

	report(Progress{Percent: 100, Message: "detection complete", MatchedTitle: result.MatchedTitle, Debug: &result.Debug})

	return result, nil
}

type scoredEntry struct {
	entry catalog.Entry
	score float64
}

func sortScoredDesc(items []scoredEntry) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
}

func safeCall(fn ProgressFunc, p Progress) {
	defer func() { recover() }()
	fn(p)
}
