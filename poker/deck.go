package poker

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand/v2"
)

// Deck deals from a shuffled 52-card sequence. Construct with NewDeck,
// NewDeckFromRand, or NewStackedDeck; the zero value is unusable.
type Deck struct {
	cards []Card
	next  int
	rng   *mrand.Rand
}

// NewDeck returns a full deck shuffled with a PCG seeded from crypto/rand.
// The 128-bit seed keeps the permutation unpredictable to clients.
func NewDeck() *Deck {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("poker: entropy source unavailable: %v", err))
	}
	hi := binary.LittleEndian.Uint64(seed[:8])
	lo := binary.LittleEndian.Uint64(seed[8:])
	return NewDeckFromRand(mrand.New(mrand.NewPCG(hi, lo)))
}

// NewDeckFromRand returns a full deck shuffled with the caller's generator.
// Callers that need reproducible deals (bots, simulations, tests) own the seed.
func NewDeckFromRand(rng *mrand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	d.Shuffle()
	return d
}

// NewStackedDeck returns a deck that deals exactly the given cards in order.
// Shuffle is a no-op on a stacked deck. Only test and dev builds construct
// these; production hands always come from NewDeck.
func NewStackedDeck(cards ...Card) *Deck {
	stacked := make([]Card, len(cards))
	copy(stacked, cards)
	return &Deck{cards: stacked}
}

// Shuffle rewinds the deck and applies a Fisher-Yates pass.
func (d *Deck) Shuffle() {
	d.next = 0
	if d.rng == nil {
		return
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the next n cards, or nil if the deck is short.
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	cards := d.cards[d.next : d.next+n]
	d.next += n
	return cards
}

// DealOne removes and returns the next card; ok is false when the deck is empty.
func (d *Deck) DealOne() (Card, bool) {
	if d.next >= len(d.cards) {
		return 0, false
	}
	card := d.cards[d.next]
	d.next++
	return card, true
}

// Remaining returns a copy of the undealt cards in deal order. Snapshots use
// this to rebuild an in-progress deck after a restart.
func (d *Deck) Remaining() []Card {
	out := make([]Card, len(d.cards)-d.next)
	copy(out, d.cards[d.next:])
	return out
}

// CardsRemaining returns how many cards are left to deal.
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}
