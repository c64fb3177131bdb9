package bot

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/protocol"
)

// maxRaisesPerStreet keeps two raise bots from re-raising each other forever.
const maxRaisesPerStreet = 3

// RaiseBot is an aggressive bot that doubles the highest bet whenever the
// street has not already seen several raises.
type RaiseBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewRaiseBot creates a new RaiseBot instance
func NewRaiseBot(rng *rand.Rand, logger *log.Logger) *RaiseBot {
	return &RaiseBot{rng: rng, logger: logger}
}

func (b *RaiseBot) MakeDecision(req protocol.ActionRequest) Decision {
	if raisesThisStreet(req) >= maxRaisesPerStreet {
		return decide(b.logger, req, protocol.CallAction(), "raise-bot capped, calling")
	}

	// Occasionally slow down to stay unpredictable
	if b.rng.IntN(10) == 0 {
		return decide(b.logger, req, protocol.CallAction(), "raise-bot slow playing")
	}

	top := max(maxBet(req), 1)
	return decide(b.logger, req, protocol.RaiseAction(top * 2), "raise-bot doubling")
}
