package poker

import (
	"fmt"
	"strings"
)

// Value is a card rank. Two is 0 and Ace is 12, which is also the index used
// on the wire.
type Value uint8

const (
	Two Value = iota
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

// NumValues is the number of distinct card values.
const NumValues = 13

// Suit is one of the four French suits.
type Suit uint8

const (
	Heart Suit = iota
	Diamond
	Spade
	Club
)

// NumSuits is the number of distinct suits.
const NumSuits = 4

// Suits lists every suit in declaration order.
var Suits = [NumSuits]Suit{Heart, Diamond, Spade, Club}

const (
	valueChars = "23456789TJQKA"
	suitChars  = "hdsc"
)

// Valid reports whether v is between Two and Ace.
func (v Value) Valid() bool {
	return v <= Ace
}

func (v Value) String() string {
	if !v.Valid() {
		return "?"
	}
	return string(valueChars[v])
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s <= Club
}

func (s Suit) String() string {
	switch s {
	case Heart:
		return "Heart"
	case Diamond:
		return "Diamond"
	case Spade:
		return "Spade"
	case Club:
		return "Club"
	default:
		return "Unknown"
	}
}

// Card is a single playing card.
type Card struct {
	Value Value
	Suit  Suit
}

// NewCard creates a card from value and suit.
func NewCard(value Value, suit Suit) Card {
	return Card{Value: value, Suit: suit}
}

// Valid reports whether both value and suit are in range.
func (c Card) Valid() bool {
	return c.Value.Valid() && c.Suit.Valid()
}

// String returns the short form, e.g. "As" or "Th".
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string(valueChars[c.Value]) + string(suitChars[c.Suit])
}

// ParseCard parses a string like "As" into a Card
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}

	var value Value
	switch s[0] {
	case '2':
		value = Two
	case '3':
		value = Three
	case '4':
		value = Four
	case '5':
		value = Five
	case '6':
		value = Six
	case '7':
		value = Seven
	case '8':
		value = Eight
	case '9':
		value = Nine
	case 'T', 't':
		value = Ten
	case 'J', 'j':
		value = Jack
	case 'Q', 'q':
		value = Queen
	case 'K', 'k':
		value = King
	case 'A', 'a':
		value = Ace
	default:
		return Card{}, fmt.Errorf("invalid rank: %c", s[0])
	}

	var suit Suit
	switch s[1] {
	case 'h', 'H':
		suit = Heart
	case 'd', 'D':
		suit = Diamond
	case 's', 'S':
		suit = Spade
	case 'c', 'C':
		suit = Club
	default:
		return Card{}, fmt.Errorf("invalid suit: %c", s[1])
	}

	return NewCard(value, suit), nil
}

// MustParseCards parses space separated cards and panics on error. Intended
// for tests and fixtures.
func MustParseCards(s string) []Card {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}

// FullDeck returns all 52 cards in a fixed order.
func FullDeck() []Card {
	cards := make([]Card, 0, NumValues*NumSuits)
	for _, suit := range Suits {
		for v := range Value(NumValues) {
			cards = append(cards, NewCard(v, suit))
		}
	}
	return cards
}
