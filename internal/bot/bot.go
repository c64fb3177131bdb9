// Package bot contains simple decision strategies for protocol clients.
package bot

import (
	"fmt"
	rand "math/rand/v2"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/protocol"
)

// Decision is the action a strategy picked and why.
type Decision struct {
	Action    protocol.Action
	Reasoning string
}

// Strategy picks an action for each request the server sends.
type Strategy interface {
	MakeDecision(req protocol.ActionRequest) Decision
}

var constructors = map[string]func(rng *rand.Rand, logger *log.Logger) Strategy{
	"call":   func(_ *rand.Rand, logger *log.Logger) Strategy { return NewCallBot(logger) },
	"fold":   func(_ *rand.Rand, logger *log.Logger) Strategy { return NewFoldBot(logger) },
	"random": func(rng *rand.Rand, logger *log.Logger) Strategy { return NewRandBot(rng, logger) },
	"raise":  func(rng *rand.Rand, logger *log.Logger) Strategy { return NewRaiseBot(rng, logger) },
}

// Names lists the available strategies.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named strategy.
func New(name string, rng *rand.Rand, logger *log.Logger) (Strategy, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, Names())
	}
	return ctor(rng, logger.WithPrefix(name+"-bot")), nil
}

// decide logs the decision at debug level and returns it.
func decide(logger *log.Logger, req protocol.ActionRequest, action protocol.Action, reasoning string) Decision {
	logger.Debug("Decision", "position", req.Position, "table", len(req.Table), "bets", req.Bets, "action", action, "reason", reasoning)
	return Decision{Action: action, Reasoning: reasoning}
}

func maxBet(req protocol.ActionRequest) uint64 {
	if len(req.Bets) == 0 {
		return 0
	}
	return slices.Max(req.Bets)
}

func ownBet(req protocol.ActionRequest) uint64 {
	if int(req.Position) >= len(req.Bets) {
		return 0
	}
	return req.Bets[req.Position]
}

// raisesThisStreet counts accepted-looking raises in the street so far.
func raisesThisStreet(req protocol.ActionRequest) int {
	n := 0
	for _, past := range req.PastActions {
		if past.Action.Kind == protocol.Raise {
			n++
		}
	}
	return n
}
