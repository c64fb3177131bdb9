package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ActionKind enumerates the closed set of player actions.
type ActionKind int

const (
	Fold ActionKind = iota
	Call
	Raise
	// Disconnected is produced locally when a response cannot be read. A
	// well-behaved client never sends it.
	Disconnected
)

func (k ActionKind) String() string {
	switch k {
	case Fold:
		return "Fold"
	case Call:
		return "Call"
	case Raise:
		return "Raise"
	case Disconnected:
		return "Disconnected"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// ErrUnknownAction is returned when decoding an unrecognised action tag.
var ErrUnknownAction = errors.New("unknown action")

// Action is a player's decision. Amount is only meaningful for Raise.
type Action struct {
	Kind   ActionKind
	Amount uint64
}

// FoldAction returns a Fold.
func FoldAction() Action { return Action{Kind: Fold} }

// CallAction returns a Call.
func CallAction() Action { return Action{Kind: Call} }

// RaiseAction returns a Raise to amount.
func RaiseAction(amount uint64) Action { return Action{Kind: Raise, Amount: amount} }

// DisconnectedAction returns the local disconnection sentinel.
func DisconnectedAction() Action { return Action{Kind: Disconnected} }

func (a Action) String() string {
	if a.Kind == Raise {
		return fmt.Sprintf("Raise(%d)", a.Amount)
	}
	return a.Kind.String()
}

// MarshalJSON encodes unit variants as strings and Raise as {"Raise": n}.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case Fold, Call, Disconnected:
		return json.Marshal(a.Kind.String())
	case Raise:
		return json.Marshal(map[string]uint64{"Raise": a.Amount})
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a.Kind))
	}
}

// UnmarshalJSON decodes the externally tagged form.
func (a *Action) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		switch tag {
		case "Fold":
			*a = FoldAction()
		case "Call":
			*a = CallAction()
		case "Disconnected":
			*a = DisconnectedAction()
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, tag)
		}
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownAction, err)
	}
	raw, ok := tagged["Raise"]
	if !ok || len(tagged) != 1 {
		return fmt.Errorf("%w: %s", ErrUnknownAction, data)
	}
	var amount uint64
	if err := json.Unmarshal(raw, &amount); err != nil {
		return fmt.Errorf("raise amount: %w", err)
	}
	*a = RaiseAction(amount)
	return nil
}
