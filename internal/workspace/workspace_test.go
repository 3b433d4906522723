package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	ws, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(ws.Configs) != 0 {
		t.Fatalf("Configs = %v, want empty", ws.Configs)
	}
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "workspace.toml")

	var ws Workspace
	ws.Record(Entry{ProjectID: 7, ConfigName: "bids", ConfigID: 11, ConfigVersion: 1})
	ws.Record(Entry{ProjectID: 3, ConfigName: "persons", ConfigID: 4, ConfigVersion: 2, PipelineID: 9})
	if err := Save(path, ws); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(loaded.Configs) != 2 {
		t.Fatalf("Configs = %v, want 2 entries", loaded.Configs)
	}
	if loaded.Configs[0].ProjectID != 3 {
		t.Fatalf("Configs[0].ProjectID = %d, want 3 (sorted)", loaded.Configs[0].ProjectID)
	}
	e, ok := loaded.Lookup(7, "bids")
	if !ok || e.ConfigID != 11 || e.ConfigVersion != 1 {
		t.Fatalf("Lookup(7, bids) = %#v, %v", e, ok)
	}
}

func TestRecord_ReplacesExistingEntry(t *testing.T) {
	var ws Workspace
	ws.Record(Entry{ProjectID: 7, ConfigName: "bids", ConfigID: 11, ConfigVersion: 1})
	ws.Record(Entry{ProjectID: 7, ConfigName: " bids ", ConfigID: 11, ConfigVersion: 2})

	if len(ws.Configs) != 1 {
		t.Fatalf("Configs = %v, want 1 entry", ws.Configs)
	}
	if ws.Configs[0].ConfigVersion != 2 {
		t.Fatalf("ConfigVersion = %d, want 2", ws.Configs[0].ConfigVersion)
	}
	if _, ok := ws.Lookup(8, "bids"); ok {
		t.Fatalf("Lookup(8, bids) found an entry for another project")
	}
}

func TestForget_RemovesOnlyMatchingEntry(t *testing.T) {
	var ws Workspace
	ws.Record(Entry{ProjectID: 7, ConfigName: "bids", ConfigID: 11})
	ws.Record(Entry{ProjectID: 7, ConfigName: "persons", ConfigID: 12})
	ws.Forget(7, "bids")

	if _, ok := ws.Lookup(7, "bids"); ok {
		t.Fatalf("Lookup(7, bids) still found after Forget")
	}
	if _, ok := ws.Lookup(7, "persons"); !ok {
		t.Fatalf("Lookup(7, persons) missing after unrelated Forget")
	}
}

func TestLoad_InvalidTOMLIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ws, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(ws.Configs) != 0 {
		t.Fatalf("Configs = %v, want empty", ws.Configs)
	}
}
