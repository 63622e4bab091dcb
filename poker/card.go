// Package poker provides card primitives, shuffled decks, and best-five
// hand evaluation for no-limit hold'em.
package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Ranks, deuce through ace. Deuce is zero so ranks pack into 13-bit suit masks.
const (
	Two uint8 = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Suits. The order fixes each card's bit position and never changes.
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
)

// Card is a single set bit in a 52-bit layout: bit = suit*13 + rank.
// The zero value is not a valid card.
type Card uint64

// NewCard builds a card from a rank (Two..Ace) and suit (Clubs..Spades).
func NewCard(rank, suit uint8) Card {
	return Card(1) << (uint(suit)*13 + uint(rank))
}

// Rank returns the card's rank (Two..Ace).
func (c Card) Rank() uint8 {
	return uint8(c.bitPos() % 13)
}

// Suit returns the card's suit (Clubs..Spades).
func (c Card) Suit() uint8 {
	return uint8(c.bitPos() / 13)
}

func (c Card) bitPos() int {
	return bits.TrailingZeros64(uint64(c))
}

// String returns the two-character code, e.g. "As" or "2c". This is also
// the wire and hand-history representation.
func (c Card) String() string {
	rank := c.Rank()
	suit := c.Suit()
	if c == 0 || bits.OnesCount64(uint64(c)) != 1 || rank > Ace || suit > Spades {
		return "??"
	}
	return string([]byte{rankChars[rank], suitChars[suit]})
}

// MarshalText encodes the card as its two-character code.
func (c Card) MarshalText() ([]byte, error) {
	s := c.String()
	if s == "??" {
		return nil, fmt.Errorf("poker: cannot encode invalid card %#x", uint64(c))
	}
	return []byte(s), nil
}

// UnmarshalText decodes a two-character card code.
func (c *Card) UnmarshalText(text []byte) error {
	card, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// ParseCard parses a two-character card code such as "As", "Td", or "9h".
// Rank characters are case-insensitive; suits are c, d, h, s.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("poker: card code %q must be two characters", s)
	}
	rank := strings.IndexByte(rankChars, upperByte(s[0]))
	if rank < 0 {
		return 0, fmt.Errorf("poker: unknown rank %q in card %q", s[0], s)
	}
	suit := strings.IndexByte(suitChars, lowerByte(s[1]))
	if suit < 0 {
		return 0, fmt.Errorf("poker: unknown suit %q in card %q", s[1], s)
	}
	return NewCard(uint8(rank), uint8(suit)), nil
}

// ParseCards parses concatenated card codes, ignoring spaces: "AsKh" or "As Kh".
func ParseCards(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("poker: card string %q has odd length", s)
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		card, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// MustParseCards parses card codes and panics on error. Test helper.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// Hand is a bitset of cards. Union is the | operator.
type Hand uint64

// NewHand builds a hand containing the given cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard reports whether the hand contains the card.
func (h Hand) HasCard(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns the 13-bit rank mask for one suit.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16((uint64(h) >> (uint(suit) * 13)) & 0x1FFF)
}

// Cards lists the hand's cards in ascending bit order.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	rest := uint64(h)
	for rest != 0 {
		bit := rest & -rest
		cards = append(cards, Card(bit))
		rest &^= bit
	}
	return cards
}

// String returns the concatenated card codes in ascending bit order.
func (h Hand) String() string {
	var sb strings.Builder
	for _, c := range h.Cards() {
		sb.WriteString(c.String())
	}
	return sb.String()
}
