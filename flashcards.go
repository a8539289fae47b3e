package main

// Deck holds the flashcards panel state: the cards so far, the one on
// screen, and which face is up. "Generate more" appends, deduplicating on
// the backend-provided content hash.
type Deck struct {
	cards    []Flashcard
	index    int
	showBack bool
	seen     map[string]bool
}

func NewDeck(cards []Flashcard) *Deck {
	d := &Deck{seen: make(map[string]bool)}
	d.Append(cards)
	return d
}

// Append adds new cards, skipping any whose hash is already in the deck.
func (d *Deck) Append(cards []Flashcard) int {
	added := 0
	for _, c := range cards {
		if c.Hash != "" && d.seen[c.Hash] {
			continue
		}
		if c.Hash != "" {
			d.seen[c.Hash] = true
		}
		d.cards = append(d.cards, c)
		added++
	}
	return added
}

func (d *Deck) Len() int { return len(d.cards) }

// Current returns the card on screen.
func (d *Deck) Current() (Flashcard, bool) {
	if len(d.cards) == 0 {
		return Flashcard{}, false
	}
	return d.cards[d.index], true
}

func (d *Deck) Index() int   { return d.index }
func (d *Deck) BackUp() bool { return d.showBack }
func (d *Deck) Flip()        { d.showBack = !d.showBack }

// Next advances to the following card, front up.
func (d *Deck) Next() {
	if d.index < len(d.cards)-1 {
		d.index++
		d.showBack = false
	}
}

// Prev steps back to the previous card, front up.
func (d *Deck) Prev() {
	if d.index > 0 {
		d.index--
		d.showBack = false
	}
}
