package game

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/protocol"
)

// Ledger holds players removed from active play until their final notice has
// been sent and their connection handed back for cleanup.
type Ledger struct {
	players []*Player
	logger  *log.Logger
}

func newLedger(logger *log.Logger) *Ledger {
	return &Ledger{logger: logger.WithPrefix("ledger")}
}

func (l *Ledger) add(p *Player) {
	l.logger.Info("Player left the table", "player", p.ID.Short(), "money", p.Money)
	l.players = append(l.players, p)
}

// Len returns the number of players waiting to be drained.
func (l *Ledger) Len() int {
	return len(l.players)
}

// Players returns the players waiting to be drained.
func (l *Ledger) Players() []*Player {
	return append([]*Player(nil), l.players...)
}

// Drain sends each held player FinalWin(money) if they still have chips and
// Lose(0) otherwise, then returns their connections in removal order. The
// ledger is empty afterwards; the caller owns and must close the connections.
func (l *Ledger) Drain() []io.ReadWriteCloser {
	conns := make([]io.ReadWriteCloser, 0, len(l.players))
	for _, p := range l.players {
		notice := protocol.Victory{Kind: protocol.Lose, Amount: 0}
		if p.Money > 0 {
			notice = protocol.Victory{Kind: protocol.FinalWin, Amount: p.Money}
		}
		p.NotifyVictory(notice)
		conns = append(conns, p.conn)
	}
	l.players = nil
	return conns
}
