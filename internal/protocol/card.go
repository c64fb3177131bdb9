package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/lox/antepoker/poker"
)

// WireSuit is the suit tag used on the wire.
type WireSuit string

const (
	SuitHeart   WireSuit = "Heart"
	SuitDiamond WireSuit = "Diamond"
	SuitSpade   WireSuit = "Spade"
	SuitClub    WireSuit = "Club"
)

// WireCard is the protocol form of a card: value 0 (Two) to 12 (Ace) and a
// suit tag.
type WireCard struct {
	Value uint8    `json:"value"`
	Suit  WireSuit `json:"suit"`
}

// FromCard converts an engine card to its wire form.
func FromCard(c poker.Card) WireCard {
	var suit WireSuit
	switch c.Suit {
	case poker.Heart:
		suit = SuitHeart
	case poker.Diamond:
		suit = SuitDiamond
	case poker.Spade:
		suit = SuitSpade
	case poker.Club:
		suit = SuitClub
	}
	return WireCard{Value: uint8(c.Value), Suit: suit}
}

// FromCards converts a slice of engine cards. The result is never nil so it
// always encodes as a JSON array.
func FromCards(cards []poker.Card) []WireCard {
	out := make([]WireCard, len(cards))
	for i, c := range cards {
		out[i] = FromCard(c)
	}
	return out
}

// Card converts back to an engine card.
func (w WireCard) Card() (poker.Card, error) {
	if w.Value >= poker.NumValues {
		return poker.Card{}, fmt.Errorf("card value %d out of range", w.Value)
	}
	var suit poker.Suit
	switch w.Suit {
	case SuitHeart:
		suit = poker.Heart
	case SuitDiamond:
		suit = poker.Diamond
	case SuitSpade:
		suit = poker.Spade
	case SuitClub:
		suit = poker.Club
	default:
		return poker.Card{}, fmt.Errorf("unknown suit %q", w.Suit)
	}
	return poker.NewCard(poker.Value(w.Value), suit), nil
}

// UnmarshalJSON rejects values and suits outside the deck.
func (w *WireCard) UnmarshalJSON(data []byte) error {
	type plain WireCard
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if _, err := WireCard(p).Card(); err != nil {
		return err
	}
	*w = WireCard(p)
	return nil
}
