package main

import (
	"errors"
	"testing"
)

func TestParseMindMapValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"root": `},
		{"missing root", `{"nodes": [{"id": "a", "label": "A"}]}`},
		{"blank root", `{"root": "  ", "nodes": [{"id": "a", "label": "A"}]}`},
		{"no nodes", `{"root": "Topic", "nodes": []}`},
		{"empty node id", `{"root": "Topic", "nodes": [{"id": "", "label": "A"}]}`},
		{"duplicate id", `{"root": "Topic", "nodes": [{"id": "a", "label": "A"}, {"id": "a", "label": "B"}]}`},
		{"nested duplicate id", `{"root": "Topic", "nodes": [{"id": "a", "label": "A", "children": [{"id": "a", "label": "B"}]}]}`},
		{"unknown parent", `{"root": "Topic", "nodes": [{"id": "a", "label": "A", "parent": "ghost"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMindMap([]byte(tc.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			var de *DataError
			if !errors.As(err, &de) {
				t.Fatalf("got %T (%v), want *DataError", err, err)
			}
		})
	}
}

func TestParseMindMapStructure(t *testing.T) {
	raw := []byte(`{
		"root": "Topic",
		"nodes": [
			{"id": "a", "label": "A", "children": [{"id": "a1", "label": "A1"}]},
			{"id": "b", "label": "B", "parent": "a1", "explanation": "deep"}
		]
	}`)
	tree, err := ParseMindMap(raw)
	if err != nil {
		t.Fatal(err)
	}

	if tree.ID != RootID || tree.Label != "Topic" || tree.Kind != KindRoot {
		t.Fatalf("unexpected root: %+v", tree)
	}
	if tree.Count() != 4 {
		t.Errorf("count %d, want 4", tree.Count())
	}

	a := tree.Find("a")
	if a == nil || a.Kind != KindBranch {
		t.Fatalf("branch a missing or mis-kinded: %+v", a)
	}
	// Parent links may point at nodes nested inside earlier entries.
	b := tree.Find("b")
	if b == nil || b.Kind != KindSub || b.Explanation != "deep" {
		t.Fatalf("node b missing or wrong: %+v", b)
	}
	a1 := tree.Find("a1")
	if len(a1.Children) != 1 || a1.Children[0].ID != "b" {
		t.Errorf("b not attached under a1: %+v", a1.Children)
	}
}

func TestDigest(t *testing.T) {
	raw := []byte(`{
		"root": "Photosynthesis",
		"nodes": [
			{"id": "b1", "label": "Light Reactions", "explanation": "first stage", "children": [
				{"id": "c1", "label": "Chlorophyll"}
			]},
			{"id": "b2", "label": "Calvin Cycle"}
		]
	}`)
	tree, err := ParseMindMap(raw)
	if err != nil {
		t.Fatal(err)
	}

	want := "Photosynthesis\n" +
		"  - Light Reactions: first stage\n" +
		"    - Chlorophyll\n" +
		"  - Calvin Cycle\n"
	if got := tree.Digest(); got != want {
		t.Errorf("digest mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestWalkOrder(t *testing.T) {
	tree := photosynthesisTree(t)
	var order []string
	tree.Walk(func(n *MindMapNode, _ int) { order = append(order, n.ID) })
	want := []string{RootID, "b1", "c1", "c2", "b2", "c3", "b3"}
	if len(order) != len(want) {
		t.Fatalf("walked %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("walked %v, want %v", order, want)
		}
	}
}
