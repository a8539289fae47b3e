package main

import (
	"path/filepath"
	"testing"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	cfg := defaultConfig()
	cfg.HistoryPath = filepath.Join(t.TempDir(), "history.db")
	return initialModel(cfg)
}

func TestSupersededFlashcardsResponseMutatesNothing(t *testing.T) {
	m := newTestModel(t)
	m.mode = ModeFlashcards
	m.cardsLoading = true

	older := m.client.cardTokens.next()
	newer := m.client.cardTokens.next()

	// The superseded response is dropped whole: no deck, and the spinner
	// keeps waiting for the request that superseded it.
	m.Update(flashcardsMsg{
		result: &FlashcardResult{Cards: []Flashcard{{Front: "old", Back: "x", Hash: "h-old"}}},
		token:  older,
	})
	if m.deck != nil {
		t.Fatal("superseded response built a deck")
	}
	if !m.cardsLoading {
		t.Error("superseded response cleared the newer request's loading state")
	}

	m.Update(flashcardsMsg{
		result: &FlashcardResult{Cards: []Flashcard{{Front: "new", Back: "y", Hash: "h-new"}}},
		token:  newer,
	})
	if m.cardsLoading {
		t.Error("latest response left the panel loading")
	}
	if m.deck == nil || m.deck.Len() != 1 {
		t.Fatal("latest response did not build the deck")
	}
	if card, _ := m.deck.Current(); card.Front != "new" {
		t.Errorf("deck shows %q, want the latest response's card", card.Front)
	}
}

func TestNarrativeRequestDoesNotStrandFlashcards(t *testing.T) {
	m := newTestModel(t)
	m.mode = ModeFlashcards
	m.cardsLoading = true
	cardTok := m.client.cardTokens.next()

	// A narrative generation started while the cards are in flight must not
	// supersede them.
	m.client.narTokens.next()
	m.narLoading = true

	m.Update(flashcardsMsg{
		result: &FlashcardResult{Cards: []Flashcard{{Front: "f", Back: "b", Hash: "h1"}}},
		token:  cardTok,
	})
	if m.cardsLoading {
		t.Error("flashcards stuck loading after an unrelated narrative request")
	}
	if m.deck == nil || m.deck.Len() != 1 {
		t.Fatal("flashcards response was dropped")
	}
	if !m.narLoading {
		t.Error("flashcards response touched the narrative's loading state")
	}
}
