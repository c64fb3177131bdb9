package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/protocol"
)

// CallBot always matches the highest bet.
type CallBot struct {
	logger *log.Logger
}

// NewCallBot creates a new CallBot instance
func NewCallBot(logger *log.Logger) *CallBot {
	return &CallBot{logger: logger}
}

func (c *CallBot) MakeDecision(req protocol.ActionRequest) Decision {
	return decide(c.logger, req, protocol.CallAction(), "call-bot calling")
}
