package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lox/antepoker/internal/protocol"
	"github.com/lox/antepoker/poker"
)

const (
	holeCards = 2
	flopCards = 3
	maxTable  = 5

	// MaxPlayers is the largest table whose round fits in one deck.
	MaxPlayers = (52 - maxTable) / holeCards
)

// ErrTableFull is returned when a seat is requested at a full table.
var ErrTableFull = fmt.Errorf("table is full (%d seats)", MaxPlayers)

// Status is the outcome of a round.
type Status int

const (
	// Running means more than one player remains and another round follows.
	Running Status = iota
	// Finished means the match is over.
	Finished
	// Error means the round was aborted by a disconnection.
	Error
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Game is one match: the deck, the seated players in seat order, the
// community cards and the players already removed.
type Game struct {
	ID string

	cfg     config
	rng     *rand.Rand
	logger  *log.Logger
	deck    *poker.Deck
	players []*Player
	table   []poker.Card
	ledger  *Ledger
	round   int
}

// NewGame creates a match with no players. The RNG drives both shuffling and
// the choice of first actor on every street and is required so that matches
// can be replayed from a seed.
func NewGame(logger *log.Logger, rng *rand.Rand, opts ...Option) *Game {
	if rng == nil {
		panic("rng is required for game creation")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	id := uuid.NewString()
	logger = logger.WithPrefix("game").With("game", id[:8])

	return &Game{
		ID:     id,
		cfg:    cfg,
		rng:    rng,
		logger: logger,
		deck:   poker.NewDeck(rng),
		ledger: newLedger(logger),
	}
}

// AddPlayer seats a connected stream with the starting balance. Seats beyond
// MaxPlayers cannot be dealt without repeating cards and are refused.
func (g *Game) AddPlayer(conn io.ReadWriteCloser) (*Player, error) {
	if len(g.players) >= MaxPlayers {
		return nil, ErrTableFull
	}
	p := newPlayer(conn, g.cfg.startingMoney, &g.cfg, g.logger)
	g.players = append(g.players, p)
	g.logger.Info("Player seated", "player", p.ID.Short(), "seat", len(g.players)-1, "money", p.Money)
	return p, nil
}

// Players returns the active players in seat order.
func (g *Game) Players() []*Player {
	return append([]*Player(nil), g.players...)
}

// Table returns the community cards of the current or last round.
func (g *Game) Table() []poker.Card {
	return append([]poker.Card(nil), g.table...)
}

// Ledger returns the players removed from play.
func (g *Game) Ledger() *Ledger {
	return g.ledger
}

// Round returns the number of rounds started so far.
func (g *Game) Round() int {
	return g.round
}

// RunRound plays one complete round. On Error no balance has been changed.
func (g *Game) RunRound(ctx context.Context) Status {
	if len(g.players) < 2 {
		g.Finish()
		return Finished
	}

	g.round++
	logger := g.logger.With("round", g.round)
	logger.Debug("Round starting", "players", len(g.players))

	// Dealing. Every card of the round comes from one deck cycle.
	g.deck.Reserve(min(holeCards*len(g.players)+maxTable, 52))
	g.table = g.table[:0]
	for _, p := range g.players {
		p.Hand = g.deck.Draw(holeCards)
	}

	// Anteing
	bets := make([]uint64, len(g.players))
	for i, p := range g.players {
		bets[i] = min(p.Money, g.cfg.ante)
	}

	// Street betting
	out := make([]bool, len(g.players))
	g.table = append(g.table, g.deck.Draw(flopCards)...)
	for countInPlay(out) >= 2 {
		br := &bettingRound{
			players: g.players,
			table:   g.table,
			bets:    bets,
			out:     out,
			rng:     g.rng,
			logger:  logger,
		}
		if err := br.run(ctx); err != nil {
			if errors.Is(err, ErrPlayerDisconnected) {
				logger.Warn("Round aborted", "error", err)
			} else {
				logger.Error("Round aborted", "error", err)
			}
			return Error
		}
		if len(g.table) >= maxTable {
			break
		}
		g.table = append(g.table, g.deck.Draw(1)...)
	}

	winners := g.showdown(logger, out)
	pot := g.settle(bets, winners)
	logger.Info("Round complete", "winners", g.describeSeats(winners), "pot", pot, "table", g.table)

	g.notifyResults(winners)
	g.eliminate()

	if len(g.players) > 1 {
		return Running
	}
	logger.Info("Match finished")
	return Finished
}

// showdown returns the winning seats: the single earliest best hand, or every
// equal best hand when the pot is split.
func (g *Game) showdown(logger *log.Logger, out []bool) []int {
	var (
		winners []int
		best    poker.HandRank
		ranked  bool
	)
	for seat, p := range g.players {
		if out[seat] {
			continue
		}
		cards := append(append([]poker.Card{}, p.Hand...), g.table...)
		rank, err := poker.Evaluate(cards...)
		if err != nil {
			logger.Warn("Unrankable hand", "seat", seat, "player", p.ID.Short(), "cards", cards, "error", err)
			if winners == nil {
				winners = []int{seat}
			}
			continue
		}

		switch {
		case !ranked || rank > best:
			best, ranked = rank, true
			winners = []int{seat}
		case rank == best && g.cfg.splitPot:
			winners = append(winners, seat)
		}

		if desc, err := poker.Describe(cards...); err == nil {
			logger.Debug("Showdown hand", "seat", seat, "player", p.ID.Short(), "hand", desc)
		}
	}
	return winners
}

// settle debits every seat by its bet (capped at its balance) and credits the
// collected pot to the winners. Remainder chips of a split go to the earliest
// winning seat. Returns the pot size.
func (g *Game) settle(bets []uint64, winners []int) uint64 {
	var pot uint64
	for i, p := range g.players {
		debit := min(p.Money, bets[i])
		p.Money -= debit
		pot += debit
	}

	share := pot / uint64(len(winners))
	remainder := pot % uint64(len(winners))
	for i, seat := range winners {
		amount := share
		if i == 0 {
			amount += remainder
		}
		g.players[seat].Money += amount
	}
	return pot
}

func (g *Game) notifyResults(winners []int) {
	reveal := make([]protocol.RevealedHand, len(g.players))
	for i, p := range g.players {
		reveal[i] = protocol.RevealedHand{Player: p.ID, Cards: p.holeCards()}
	}

	for seat, p := range g.players {
		p.NotifyHands(reveal)
		kind := protocol.Lose
		for _, w := range winners {
			if w == seat {
				kind = protocol.Win
				break
			}
		}
		p.NotifyVictory(protocol.Victory{Kind: kind, Amount: p.Money})
	}
}

// eliminate moves busted players to the ledger, and the last player too once
// only one remains.
func (g *Game) eliminate() {
	remaining := make([]*Player, 0, len(g.players))
	for _, p := range g.players {
		if p.Money == 0 {
			g.ledger.add(p)
			continue
		}
		remaining = append(remaining, p)
	}
	g.players = remaining
	if len(g.players) == 1 {
		g.Finish()
	}
}

// RemoveDisconnected moves every player whose session failed into the ledger
// and returns them. Callers use it after an Error round.
func (g *Game) RemoveDisconnected() []*Player {
	var removed []*Player
	remaining := make([]*Player, 0, len(g.players))
	for _, p := range g.players {
		if p.Disconnected() {
			g.ledger.add(p)
			removed = append(removed, p)
			continue
		}
		remaining = append(remaining, p)
	}
	g.players = remaining
	return removed
}

// Finish moves every remaining player into the ledger.
func (g *Game) Finish() {
	for _, p := range g.players {
		g.ledger.add(p)
	}
	g.players = nil
}

func (g *Game) describeSeats(seats []int) []string {
	names := make([]string, len(seats))
	for i, s := range seats {
		names[i] = g.players[s].ID.Short()
	}
	return names
}

func countInPlay(out []bool) int {
	n := 0
	for _, folded := range out {
		if !folded {
			n++
		}
	}
	return n
}
