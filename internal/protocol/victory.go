package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// VictoryKind enumerates end-of-round and end-of-match notices.
type VictoryKind int

const (
	// FinalWin is sent at elimination to a player who still holds chips.
	FinalWin VictoryKind = iota
	// Win is sent to the round winner.
	Win
	// Lose is sent to every other player, and at elimination to a busted one.
	Lose
)

func (k VictoryKind) String() string {
	switch k {
	case FinalWin:
		return "FinalWin"
	case Win:
		return "Win"
	case Lose:
		return "Lose"
	default:
		return fmt.Sprintf("VictoryKind(%d)", int(k))
	}
}

// ErrUnknownVictory is returned when decoding an unrecognised notice.
var ErrUnknownVictory = errors.New("unknown victory notice")

// Victory carries the notice kind and the player's resulting balance.
type Victory struct {
	Kind   VictoryKind
	Amount uint64
}

func (v Victory) String() string {
	return fmt.Sprintf("%s(%d)", v.Kind, v.Amount)
}

// MarshalJSON encodes as {"Win": n} and friends.
func (v Victory) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FinalWin, Win, Lose:
		return json.Marshal(map[string]uint64{v.Kind.String(): v.Amount})
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVictory, int(v.Kind))
	}
}

// UnmarshalJSON decodes a single-key tagged object.
func (v *Victory) UnmarshalJSON(data []byte) error {
	var tagged map[string]uint64
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownVictory, err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("%w: %s", ErrUnknownVictory, data)
	}
	for tag, amount := range tagged {
		switch tag {
		case "FinalWin":
			*v = Victory{Kind: FinalWin, Amount: amount}
		case "Win":
			*v = Victory{Kind: Win, Amount: amount}
		case "Lose":
			*v = Victory{Kind: Lose, Amount: amount}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownVictory, tag)
		}
	}
	return nil
}
