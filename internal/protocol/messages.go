package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lox/antepoker/poker"
)

// HandsPrefix precedes the JSON array in a hand reveal frame.
const HandsPrefix = "Hands: "

var (
	// ErrUnknownMessage is returned when a server frame matches no known schema.
	ErrUnknownMessage = errors.New("unknown message")
	// ErrHoleCardCount is returned when a response carries other than two cards.
	ErrHoleCardCount = errors.New("replacement hand must have exactly two cards")
)

// ActionRequest asks the player at Position to act.
type ActionRequest struct {
	Position    uint8        `json:"position"`
	Table       []WireCard   `json:"table"`
	Hand        []WireCard   `json:"hand"`
	Bets        []uint64     `json:"bets"`
	PastActions []PastAction `json:"past_actions"`
}

// PastAction is one entry of the street's action record, encoded as a
// two-element array [player, action].
type PastAction struct {
	Player PlayerID
	Action Action
}

func (p PastAction) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Player, p.Action})
}

func (p *PastAction) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("past action: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Player); err != nil {
		return fmt.Errorf("past action player: %w", err)
	}
	if err := json.Unmarshal(pair[1], &p.Action); err != nil {
		return fmt.Errorf("past action: %w", err)
	}
	return nil
}

// ActionResponse is the client's reply to an ActionRequest. Cards, when
// present, replace the player's hole cards.
type ActionResponse struct {
	Action Action     `json:"action"`
	Cards  []WireCard `json:"cards"`
}

// UnmarshalJSON requires the action field; cards may be absent or null.
func (r *ActionResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action *Action    `json:"action"`
		Cards  []WireCard `json:"cards"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Action == nil {
		return errors.New("missing action")
	}
	r.Action = *raw.Action
	r.Cards = raw.Cards
	return nil
}

// HoleCards returns the replacement hand, or nil when none was sent.
func (r ActionResponse) HoleCards() ([]poker.Card, error) {
	if r.Cards == nil {
		return nil, nil
	}
	if len(r.Cards) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrHoleCardCount, len(r.Cards))
	}
	cards := make([]poker.Card, 2)
	for i, w := range r.Cards {
		c, err := w.Card()
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}
	return cards, nil
}

// RevealedHand pairs a player with their two hole cards, encoded as
// [player, [card, card]].
type RevealedHand struct {
	Player PlayerID
	Cards  [2]WireCard
}

func (h RevealedHand) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{h.Player, h.Cards})
}

func (h *RevealedHand) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("revealed hand: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &h.Player); err != nil {
		return fmt.Errorf("revealed hand player: %w", err)
	}
	var cards []WireCard
	if err := json.Unmarshal(pair[1], &cards); err != nil {
		return fmt.Errorf("revealed hand cards: %w", err)
	}
	if len(cards) != 2 {
		return fmt.Errorf("%w: got %d", ErrHoleCardCount, len(cards))
	}
	copy(h.Cards[:], cards)
	return nil
}

// EncodeHands builds the payload of a hand reveal frame.
func EncodeHands(hands []RevealedHand) ([]byte, error) {
	if hands == nil {
		hands = []RevealedHand{}
	}
	body, err := json.Marshal(hands)
	if err != nil {
		return nil, err
	}
	return append([]byte(HandsPrefix), body...), nil
}

// WriteJSON marshals v and writes it as one frame.
func WriteJSON(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %T: %w", v, err)
	}
	return WriteFrame(w, payload)
}

// WriteHands writes a hand reveal frame.
func WriteHands(w io.Writer, hands []RevealedHand) error {
	payload, err := EncodeHands(hands)
	if err != nil {
		return fmt.Errorf("encode hands: %w", err)
	}
	return WriteFrame(w, payload)
}

// ReadActionResponse reads and validates one client response frame.
func ReadActionResponse(r io.Reader) (ActionResponse, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return ActionResponse{}, err
	}
	var resp ActionResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return ActionResponse{}, fmt.Errorf("decode action response: %w", err)
	}
	if _, err := resp.HoleCards(); err != nil {
		return ActionResponse{}, fmt.Errorf("decode action response: %w", err)
	}
	return resp, nil
}

// MessageKind classifies a server to client frame.
type MessageKind int

const (
	MessageActionRequest MessageKind = iota
	MessageHands
	MessageVictory
)

func (k MessageKind) String() string {
	return [...]string{"action_request", "hands", "victory"}[k]
}

// ServerMessage is a decoded server to client frame. Exactly one of the
// payload fields is set, according to Kind.
type ServerMessage struct {
	Kind    MessageKind
	Request *ActionRequest
	Hands   []RevealedHand
	Victory *Victory
}

// DecodeServerMessage classifies and decodes a server frame payload.
func DecodeServerMessage(payload []byte) (ServerMessage, error) {
	if body, ok := bytes.CutPrefix(payload, []byte(HandsPrefix)); ok {
		var hands []RevealedHand
		if err := json.Unmarshal(body, &hands); err != nil {
			return ServerMessage{}, fmt.Errorf("decode hands: %w", err)
		}
		return ServerMessage{Kind: MessageHands, Hands: hands}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}
	if _, ok := probe["position"]; ok {
		var req ActionRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return ServerMessage{}, fmt.Errorf("decode action request: %w", err)
		}
		return ServerMessage{Kind: MessageActionRequest, Request: &req}, nil
	}

	var v Victory
	if err := json.Unmarshal(payload, &v); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}
	return ServerMessage{Kind: MessageVictory, Victory: &v}, nil
}
