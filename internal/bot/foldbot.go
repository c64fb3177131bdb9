package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/protocol"
)

// FoldBot folds unless it already matches the highest bet, in which case
// staying in costs nothing.
type FoldBot struct {
	logger *log.Logger
}

// NewFoldBot creates a new FoldBot instance
func NewFoldBot(logger *log.Logger) *FoldBot {
	return &FoldBot{logger: logger}
}

func (f *FoldBot) MakeDecision(req protocol.ActionRequest) Decision {
	if ownBet(req) >= maxBet(req) {
		return decide(f.logger, req, protocol.CallAction(), "fold-bot checking")
	}
	return decide(f.logger, req, protocol.FoldAction(), "fold-bot folding")
}
