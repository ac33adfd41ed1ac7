package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/saveforge/backupcore/internal/catalog"
	"github.com/saveforge/backupcore/internal/noopadapter"
)

func writeCatalog(t *testing.T, path string, rules []map[string]string) {
	t.Helper()
	doc := map[string]interface{}{
		"games": []map[string]interface{}{
			{"title": "Test Game", "saveLocations": rules},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newDetector() *Detector {
	return &Detector{
		Catalog:         catalog.NewStore(),
		MetadataAdapter: noopadapter.Metadata{},
		RegistryAdapter: noopadapter.Registry{},
	}
}

func TestDetectMatchesAndScoresExistingPath(t *testing.T) {
	installDir := t.TempDir()
	savesDir := filepath.Join(installDir, "Saves")
	if err := os.MkdirAll(savesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(savesDir, "a.sav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	catalogPath := filepath.Join(t.TempDir(), "catalog.json")
	writeCatalog(t, catalogPath, []map[string]string{
		{"system": "Windows", "location": `<path-to-game>\Saves`},
	})

	d := newDetector()
	result, err := d.Detect(Input{
		CatalogPath: catalogPath,
		GameName:    "Test Game",
		InstallPath: installDir,
	}, nil)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	if result.Status != StatusMatched {
		t.Fatalf("status = %q, want matched", result.Status)
	}
	if result.MatchedTitle != "Test Game" {
		t.Errorf("matched title = %q, want Test Game", result.MatchedTitle)
	}

	found := false
	for _, c := range result.Candidates {
		if filepath.Clean(c.Path) == filepath.Clean(savesDir) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q among candidates, got %+v", savesDir, result.Candidates)
	}
}

func TestDetectNoMatchBelowThreshold(t *testing.T) {
	catalogPath := filepath.Join(t.TempDir(), "catalog.json")
	writeCatalog(t, catalogPath, []map[string]string{
		{"system": "Windows", "location": `%APPDATA%\Saves`},
	})

	d := newDetector()
	result, err := d.Detect(Input{
		CatalogPath: catalogPath,
		GameName:    "Completely Unrelated Title",
		InstallPath: t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if result.Status != StatusNoMatch {
		t.Errorf("status = %q, want no-match", result.Status)
	}
}

func TestDetectNoWindowsLocations(t *testing.T) {
	catalogPath := filepath.Join(t.TempDir(), "catalog.json")
	writeCatalog(t, catalogPath, []map[string]string{
		{"system": "Linux", "location": `~/.local/share/Saves`},
	})

	d := newDetector()
	result, err := d.Detect(Input{
		CatalogPath: catalogPath,
		GameName:    "Test Game",
		InstallPath: t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if result.Status != StatusNoWindowsLocations {
		t.Errorf("status = %q, want no-windows-locations", result.Status)
	}
}

func TestDetectProgressNeverDecreases(t *testing.T) {
	installDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(installDir, "Saves"), 0o755); err != nil {
		t.Fatal(err)
	}
	catalogPath := filepath.Join(t.TempDir(), "catalog.json")
	writeCatalog(t, catalogPath, []map[string]string{
		{"system": "Windows", "location": `<path-to-game>\Saves`},
	})

	d := newDetector()
	last := -1
	_, err := d.Detect(Input{
		CatalogPath: catalogPath,
		GameName:    "Test Game",
		InstallPath: installDir,
	}, func(p Progress) {
		if p.Percent < last {
			t.Errorf("progress went backwards: %d after %d", p.Percent, last)
		}
		last = p.Percent
	})
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if last != 100 {
		t.Errorf("final percent = %d, want 100", last)
	}
}
