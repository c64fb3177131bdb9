package server

import (
	"context"
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lox/antepoker/internal/game"
	"github.com/lox/antepoker/internal/protocol"
)

// Standing is a player's balance when they left the match.
type Standing struct {
	Player protocol.PlayerID
	Money  uint64
}

// MatchResult summarises a completed match. Standings are in the order
// players left the table, so the winner, if any, is last.
type MatchResult struct {
	ID        string
	Rounds    int
	Standings []Standing
}

// Winner returns the last player still holding chips.
func (r MatchResult) Winner() (Standing, bool) {
	for i := len(r.Standings) - 1; i >= 0; i-- {
		if r.Standings[i].Money > 0 {
			return r.Standings[i], true
		}
	}
	return Standing{}, false
}

// Match runs rounds for one fixed group of connections until it finishes.
type Match struct {
	ID        string
	game      *game.Game
	logger    *log.Logger
	maxRounds int
}

func newMatch(logger *log.Logger, rng *rand.Rand, conns []io.ReadWriteCloser, maxRounds int, opts ...game.Option) *Match {
	id := uuid.NewString()
	g := game.NewGame(logger, rng, opts...)
	logger = logger.WithPrefix("match").With("match", id[:8])
	for _, conn := range conns {
		if _, err := g.AddPlayer(conn); err != nil {
			logger.Warn("Refusing player", "error", err)
			_ = conn.Close()
		}
	}
	return &Match{
		ID:        id,
		game:      g,
		logger:    logger,
		maxRounds: maxRounds,
	}
}

// Run plays rounds until the match finishes, the round limit is hit or ctx is
// cancelled. Every connection is closed by the time it returns.
func (m *Match) Run(ctx context.Context) MatchResult {
	result := MatchResult{ID: m.ID}
	m.logger.Info("Match starting", "players", len(m.game.Players()))

	for {
		status := m.game.RunRound(ctx)
		result.Rounds = m.game.Round()

		switch status {
		case game.Error:
			for _, p := range m.game.RemoveDisconnected() {
				m.logger.Warn("Removed disconnected player", "player", p.ID.Short(), "money", p.Money)
			}
			if len(m.game.Players()) < 2 {
				m.game.Finish()
			}
		case game.Running:
			if m.maxRounds > 0 && result.Rounds >= m.maxRounds {
				m.logger.Info("Round limit reached", "rounds", result.Rounds)
				m.game.Finish()
			}
		}

		if ctx.Err() != nil {
			m.game.Finish()
		}

		m.drain(&result)
		if len(m.game.Players()) == 0 {
			break
		}
	}

	winner, ok := result.Winner()
	if ok {
		m.logger.Info("Match complete", "rounds", result.Rounds, "winner", winner.Player.Short(), "money", winner.Money)
	} else {
		m.logger.Info("Match complete", "rounds", result.Rounds)
	}
	return result
}

// drain sends final notices to everyone in the ledger, records their
// standings and closes their connections.
func (m *Match) drain(result *MatchResult) {
	for _, p := range m.game.Ledger().Players() {
		result.Standings = append(result.Standings, Standing{Player: p.ID, Money: p.Money})
	}
	for _, conn := range m.game.Ledger().Drain() {
		_ = conn.Close() // Ignore close errors, the player is gone
	}
}
