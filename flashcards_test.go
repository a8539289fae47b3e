package main

import "testing"

func TestDeckDeduplicatesOnHash(t *testing.T) {
	deck := NewDeck([]Flashcard{
		{Front: "Q1", Back: "A1", Hash: "h1"},
		{Front: "Q2", Back: "A2", Hash: "h2"},
	})
	added := deck.Append([]Flashcard{
		{Front: "Q2 again", Back: "A2", Hash: "h2"},
		{Front: "Q3", Back: "A3", Hash: "h3"},
		{Front: "no hash", Back: "kept"},
	})
	if added != 2 {
		t.Errorf("added %d cards, want 2", added)
	}
	if deck.Len() != 4 {
		t.Errorf("deck has %d cards, want 4", deck.Len())
	}
}

func TestDeckNavigationResetsFace(t *testing.T) {
	deck := NewDeck([]Flashcard{
		{Front: "Q1", Back: "A1", Hash: "h1"},
		{Front: "Q2", Back: "A2", Hash: "h2"},
	})

	deck.Flip()
	if !deck.BackUp() {
		t.Fatal("flip did not show the back")
	}
	deck.Next()
	if deck.BackUp() {
		t.Error("next card still showed its back")
	}
	card, ok := deck.Current()
	if !ok || card.Front != "Q2" {
		t.Errorf("current %+v, want Q2", card)
	}

	deck.Next()
	if deck.Index() != 1 {
		t.Error("advanced past the last card")
	}
	deck.Flip()
	deck.Prev()
	if deck.Index() != 0 || deck.BackUp() {
		t.Error("prev did not return to the first card front up")
	}
	deck.Prev()
	if deck.Index() != 0 {
		t.Error("stepped before the first card")
	}
}
