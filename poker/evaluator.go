package poker

import (
	"errors"
	"fmt"

	ph "github.com/paulhankin/poker"
)

var (
	// ErrCardCount is returned when a hand has fewer than 5 or more than 7 cards.
	ErrCardCount = errors.New("hand evaluation needs 5 to 7 cards")
	// ErrDuplicateCard is returned when the same card appears twice.
	ErrDuplicateCard = errors.New("duplicate card")
	// ErrInvalidCard is returned for a card outside the 52-card deck.
	ErrInvalidCard = errors.New("invalid card")
)

// HandRank represents the strength of a poker hand. Higher values are
// stronger, so two ranks compare directly with < and >.
type HandRank int16

// Evaluate ranks the best five-card hand that can be made from 5, 6 or 7
// cards.
func Evaluate(cards ...Card) (HandRank, error) {
	ext, err := convert(cards)
	if err != nil {
		return 0, err
	}

	switch len(ext) {
	case 5:
		return HandRank(ph.Eval5((*[5]ph.Card)(ext))), nil
	case 6:
		rank, _ := bestOfSix(ext)
		return rank, nil
	default:
		return HandRank(ph.Eval7((*[7]ph.Card)(ext))), nil
	}
}

// Describe returns a human-readable name for the best hand in cards, e.g.
// "two pair, kings and sevens".
func Describe(cards ...Card) (string, error) {
	ext, err := convert(cards)
	if err != nil {
		return "", err
	}
	if len(ext) == 6 {
		_, best := bestOfSix(ext)
		ext = best[:]
	}
	return ph.Describe(ext)
}

// bestOfSix drops each card in turn and keeps the strongest five.
func bestOfSix(cards []ph.Card) (HandRank, [5]ph.Card) {
	var (
		best     HandRank
		bestHand [5]ph.Card
		found    bool
	)
	for skip := range cards {
		var five [5]ph.Card
		n := 0
		for i, c := range cards {
			if i == skip {
				continue
			}
			five[n] = c
			n++
		}
		rank := HandRank(ph.Eval5(&five))
		if !found || rank > best {
			best, bestHand, found = rank, five, true
		}
	}
	return best, bestHand
}

func convert(cards []Card) ([]ph.Card, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return nil, fmt.Errorf("%w: got %d", ErrCardCount, len(cards))
	}

	seen := make(map[Card]struct{}, len(cards))
	out := make([]ph.Card, len(cards))
	for i, c := range cards {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCard, c)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		seen[c] = struct{}{}

		ext, err := ph.MakeCard(externalSuit(c.Suit), externalRank(c.Value))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCard, c, err)
		}
		out[i] = ext
	}
	return out, nil
}

// externalRank maps Two..King to 2..13 and Ace to 1.
func externalRank(v Value) ph.Rank {
	if v == Ace {
		return ph.Rank(1)
	}
	return ph.Rank(v + 2)
}

func externalSuit(s Suit) ph.Suit {
	switch s {
	case Heart:
		return ph.Heart
	case Diamond:
		return ph.Diamond
	case Spade:
		return ph.Spade
	default:
		return ph.Club
	}
}
