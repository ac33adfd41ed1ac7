package detect

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// wikiTokenReplacements maps PCGamingWiki-style template tokens to the
// %ENVVAR%/<token> form the rest of the pipeline understands.
var wikiTokenReplacements = []struct {
	token       string
	replacement string
}{
	{"{{p|userprofile}}", "%USERPROFILE%"},
	{"{{p|appdata}}", "%APPDATA%"},
	{"{{p|localappdata}}", "%LOCALAPPDATA%"},
	{"{{p|documents}}", "%USERPROFILE%\\Documents"},
	{"{{p|steam}}", "<steam-folder>"},
	{"{{p|game}}", "<path-to-game>"},
}

// mapWikiTokens performs step 1 of template expansion: a literal,
// one-to-one substitution of wiki-style tokens.
func mapWikiTokens(s string) string {
	out := strings.ToLower(s)
	// Preserve original casing for everything except the tokens we match
	// case-insensitively; operate on a copy for matching, replace on the
	// original using index positions would be overkill here since wiki
	// tokens are themselves case-insensitive literal markup.
	lower := out
	result := s
	for _, rep := range wikiTokenReplacements {
		for {
			idx := strings.Index(lower, rep.token)
			if idx == -1 {
				break
			}
			result = result[:idx] + rep.replacement + result[idx+len(rep.token):]
			lower = strings.ToLower(result)
		}
	}
	return result
}

// ExpansionContext carries everything template expansion needs beyond the
// rule string itself.
type ExpansionContext struct {
	InstallPath     string
	GameName        string
	InstallBaseName string
	SteamLibraries  []string
}

const maxCartesianTemplates = 256

// expandCartesianToken replaces every occurrence of token in every
// template with each of replacements, producing the Cartesian product (N
// replacements produce N templates per input template).
func expandCartesianToken(templates []string, token string, replacements []string) []string {
	if len(replacements) == 0 {
		return templates
	}
	out := make([]string, 0, len(templates)*len(replacements))
	for _, tmpl := range templates {
		if !strings.Contains(strings.ToLower(tmpl), strings.ToLower(token)) {
			out = append(out, tmpl)
			continue
		}
		for _, rep := range replacements {
			out = append(out, replaceCaseInsensitive(tmpl, token, rep))
			if len(out) >= maxCartesianTemplates {
				return out
			}
		}
	}
	return out
}

func replaceCaseInsensitive(s, old, new string) string {
	lowerS := strings.ToLower(s)
	lowerOld := strings.ToLower(old)
	var b strings.Builder
	for {
		idx := strings.Index(lowerS, lowerOld)
		if idx == -1 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:idx])
		b.WriteString(new)
		s = s[idx+len(old):]
		lowerS = lowerS[idx+len(old):]
	}
	return b.String()
}

func defaultSteamFolders() []string {
	return []string{
		`%ProgramFiles(x86)%\Steam`,
		`%ProgramFiles%\Steam`,
	}
}

// substituteTokens performs step 2: Cartesian substitution of
// <path-to-game>, <steamlibrary-folder>, <steam-folder>, <the name of the
// software>, and <game>.
func substituteTokens(templates []string, ctx ExpansionContext) []string {
	templates = expandCartesianToken(templates, "<path-to-game>", []string{ctx.InstallPath})

	steamFolders := append(append([]string{}, defaultSteamFolders()...), ctx.SteamLibraries...)
	templates = expandCartesianToken(templates, "<steamlibrary-folder>", ctx.SteamLibraries)
	templates = expandCartesianToken(templates, "<steam-folder>", steamFolders)

	nameReplacements := lo.Uniq([]string{ctx.InstallBaseName, ctx.GameName})
	templates = expandCartesianToken(templates, "<the name of the software>", nameReplacements)
	templates = expandCartesianToken(templates, "<game>", nameReplacements)

	return templates
}

var envVarPattern = regexp.MustCompile(`%([A-Za-z0-9_()]+)%`)

// expandEnvVars performs step 3: substitute %ENV% references via the
// environment, case-insensitively on Windows. Unresolved variables are
// left as-is.
func expandEnvVars(templates []string, lookup func(name string) (string, bool)) []string {
	out := make([]string, len(templates))
	for i, tmpl := range templates {
		out[i] = envVarPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
			name := strings.Trim(match, "%")
			if val, ok := lookup(name); ok && val != "" {
				return val
			}
			return match
		})
	}
	return out
}

// EnvLookup returns a case-insensitive (on Windows semantics, which this
// module always targets) environment-variable lookup.
func EnvLookup() func(name string) (string, bool) {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			env[strings.ToUpper(kv[:idx])] = kv[idx+1:]
		}
	}
	return func(name string) (string, bool) {
		v, ok := env[strings.ToUpper(name)]
		return v, ok
	}
}

const maxUserIDEntries = 100

var userIDToken = regexp.MustCompile(`<user-id>`)

// expandUserID performs step 4: replace <user-id> with every immediate
// subdirectory of the path prefix before the token (capped at 100), or
// "*" if that prefix doesn't exist on disk.
func expandUserID(templates []string, listDir func(string) []string) []string {
	var out []string
	for _, tmpl := range templates {
		loc := userIDToken.FindStringIndex(tmpl)
		if loc == nil {
			out = append(out, tmpl)
			continue
		}
		prefix := strings.TrimRight(tmpl[:loc[0]], `\/`)
		entries := listDir(prefix)
		if entries == nil {
			out = append(out, tmpl[:loc[0]]+"*"+tmpl[loc[1]:])
			continue
		}
		if len(entries) > maxUserIDEntries {
			entries = entries[:maxUserIDEntries]
		}
		for _, entry := range entries {
			out = append(out, tmpl[:loc[0]]+entry+tmpl[loc[1]:])
		}
	}
	return out
}

// DefaultListDir lists the immediate subdirectory names of dir, or nil if
// dir can't be read or has no subdirectories.
func DefaultListDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

const maxWildcardScans = 300

// expandWildcards performs step 5: expand * and ? wildcards by walking
// the path segment-by-segment, matching directory entries case-
// insensitively. Templates with no wildcard pass through unchanged.
func expandWildcards(templates []string, listDir func(string) []string) []string {
	var out []string
	scanned := 0
	for _, tmpl := range templates {
		if !strings.ContainsAny(tmpl, "*?") {
			out = append(out, tmpl)
			continue
		}
		segments := splitPathSegments(tmpl)
		resolved := []string{segmentRoot(tmpl)}
		for _, seg := range segments {
			if !strings.ContainsAny(seg, "*?") {
				resolved = appendSegment(resolved, seg)
				continue
			}
			var next []string
			for _, base := range resolved {
				entries := listDir(base)
				for _, entry := range entries {
					if scanned >= maxWildcardScans {
						break
					}
					scanned++
					if matchWildcard(seg, entry) {
						next = append(next, appendSegment([]string{base}, entry)[0])
					}
				}
			}
			resolved = next
			if len(resolved) == 0 {
				break
			}
		}
		out = append(out, resolved...)
	}
	return out
}

func segmentRoot(path string) string {
	if len(path) >= 2 && path[1] == ':' {
		return path[:3]
	}
	return string(filepath.Separator)
}

func splitPathSegments(path string) []string {
	trimmed := path
	if len(trimmed) >= 2 && trimmed[1] == ':' {
		trimmed = trimmed[3:]
	}
	trimmed = strings.Trim(trimmed, `\/`)
	if trimmed == "" {
		return nil
	}
	return regexp.MustCompile(`[\\/]+`).Split(trimmed, -1)
}

func appendSegment(bases []string, seg string) []string {
	out := make([]string, len(bases))
	for i, b := range bases {
		if strings.HasSuffix(b, `\`) || strings.HasSuffix(b, "/") {
			out[i] = b + seg
		} else {
			out[i] = b + `\` + seg
		}
	}
	return out
}

func matchWildcard(pattern, name string) bool {
	ok, _ := filepath.Match(strings.ToLower(pattern), strings.ToLower(name))
	return ok
}

// normalizeAndStripQuotes performs step 6: normalize path separators and
// strip outer quotes from each resolved template. Catalog rules are
// written in Windows form ("\"); on a host whose native separator is "/"
// a literal backslash is just another filename character to
// filepath.Clean, so it's rewritten to the native separator first.
func normalizeAndStripQuotes(templates []string) []string {
	out := make([]string, 0, len(templates))
	seen := make(map[string]struct{}, len(templates))
	for _, tmpl := range templates {
		t := strings.TrimSpace(tmpl)
		t = strings.Trim(t, `"'`)
		if filepath.Separator != '\\' {
			t = strings.ReplaceAll(t, `\`, string(filepath.Separator))
		}
		t = filepath.Clean(t)
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ExpandTemplate runs the full six-step expansion pipeline on a single
// filesystem-template rule string.
func ExpandTemplate(rule string, ctx ExpansionContext, lookup func(string) (string, bool), listDir func(string) []string) []string {
	mapped := mapWikiTokens(rule)
	templates := substituteTokens([]string{mapped}, ctx)
	templates = expandEnvVars(templates, lookup)
	templates = expandUserID(templates, listDir)
	templates = expandWildcards(templates, listDir)
	return normalizeAndStripQuotes(templates)
}

// looksLikePath reports whether a registry value resembles a filesystem
// path template: it contains ":\", "%var%", or a backslash.
func looksLikePath(s string) bool {
	return strings.Contains(s, `:\`) || envVarPattern.MatchString(s) || strings.Contains(s, `\`)
}
