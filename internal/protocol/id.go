package protocol

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// PlayerID is the opaque 128-bit token that identifies a player in protocol
// messages. It travels as an unsigned decimal JSON number.
type PlayerID [16]byte

// NewPlayerID returns a fresh random identifier.
func NewPlayerID() PlayerID {
	return PlayerID(uuid.New())
}

func (id PlayerID) big() *big.Int {
	return new(big.Int).SetBytes(id[:])
}

// String returns the decimal form used on the wire.
func (id PlayerID) String() string {
	return id.big().String()
}

// Short returns a compact prefix for log lines.
func (id PlayerID) Short() string {
	return uuid.UUID(id).String()[:8]
}

// ParsePlayerID parses a decimal 128-bit unsigned integer.
func ParsePlayerID(s string) (PlayerID, error) {
	var id PlayerID
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return id, fmt.Errorf("invalid player id %q", s)
	}
	if n.Sign() < 0 || n.BitLen() > 128 {
		return id, fmt.Errorf("player id %q out of range", s)
	}
	n.FillBytes(id[:])
	return id, nil
}

// MarshalJSON encodes the id as a bare JSON number.
func (id PlayerID) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalJSON accepts a bare JSON number.
func (id *PlayerID) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePlayerID(string(bytes.TrimSpace(data)))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
