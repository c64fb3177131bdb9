package poker

import (
	rand "math/rand/v2"
)

// Deck is a 52-card deck consumed from the front. When a draw asks for more
// cards than remain, the leftovers are discarded and a freshly shuffled full
// deck takes their place, so a draw never fails and never repeats a card
// within one deck cycle.
type Deck struct {
	cards []Card
	next  int
	cycle int
	rng   *rand.Rand // Random source for deterministic shuffling
}

// NewDeck creates a new shuffled deck with explicit RNG
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("rng is required for deck creation")
	}
	d := &Deck{rng: rng}
	d.replenish()
	return d
}

func (d *Deck) replenish() {
	d.cards = FullDeck()
	d.next = 0
	d.cycle++
	d.shuffle()
}

// shuffle shuffles the remaining cards using Fisher-Yates
func (d *Deck) shuffle() {
	for i := len(d.cards) - 1; i > d.next; i-- {
		j := d.next + d.rng.IntN(i-d.next+1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes n cards from the top of the deck. n must be between 0 and 52.
func (d *Deck) Draw(n int) []Card {
	if n < 0 || n > NumValues*NumSuits {
		panic("draw size out of range")
	}
	if d.Remaining() < n {
		d.replenish()
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards
}

// Reserve guarantees that the next n cards come from a single cycle. If fewer
// than n remain, the leftovers are discarded and the deck is replenished.
// n must be between 0 and 52.
func (d *Deck) Reserve(n int) {
	if n < 0 || n > NumValues*NumSuits {
		panic("reserve size out of range")
	}
	if d.Remaining() < n {
		d.replenish()
	}
}

// Remaining returns the number of cards left in the current cycle
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}

// Cycle returns how many full decks have been created, starting at 1.
func (d *Deck) Cycle() int {
	return d.cycle
}
