package main

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestHistoryRoundTrip(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	payload := `{"root": "Photosynthesis", "nodes": [{"id": "b1", "label": "Light Reactions"}]}`
	tree, err := ParseMindMap([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	gen := &GeneratedMap{Tree: tree, Raw: json.RawMessage(payload), Size: "medium"}

	id, err := h.Save("chat-1", gen)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := h.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("%d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != id || e.ChatID != "chat-1" || e.Size != "medium" || e.RootLabel != "Photosynthesis" {
		t.Errorf("entry %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}

	loaded, err := h.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Tree.Label != "Photosynthesis" || loaded.Size != "medium" {
		t.Errorf("loaded %+v", loaded)
	}
}

func TestHistoryLoadMissing(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if _, err := h.Load(999); err == nil {
		t.Fatal("expected error for missing id")
	}
}
