package bot

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/protocol"
)

// RandBot folds, calls or raises at random. Raises go up to double the
// current highest bet.
type RandBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewRandBot creates a new RandBot instance
func NewRandBot(rng *rand.Rand, logger *log.Logger) *RandBot {
	return &RandBot{rng: rng, logger: logger}
}

func (r *RandBot) MakeDecision(req protocol.ActionRequest) Decision {
	switch n := r.rng.IntN(4); {
	case n == 0 && ownBet(req) < maxBet(req):
		return decide(r.logger, req, protocol.FoldAction(), "rand-bot folding")
	case n == 3:
		top := maxBet(req)
		amount := top + 1 + r.rng.Uint64N(max(top, 1))
		return decide(r.logger, req, protocol.RaiseAction(amount), "rand-bot random raise")
	default:
		return decide(r.logger, req, protocol.CallAction(), "rand-bot calling")
	}
}
