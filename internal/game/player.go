package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/protocol"
	"github.com/lox/antepoker/poker"
)

var (
	// ErrPlayerDisconnected is returned when a player answers with, or is
	// converted to, the Disconnected action.
	ErrPlayerDisconnected = errors.New("player disconnected")
	// ErrActionTimeout is returned when a player does not answer in time.
	ErrActionTimeout = errors.New("action timed out")
)

// Player is a seated player and the session that talks to its connection.
type Player struct {
	ID    protocol.PlayerID
	Money uint64
	Hand  []poker.Card

	conn         io.ReadWriteCloser
	cfg          *config
	logger       *log.Logger
	disconnected bool
}

func newPlayer(conn io.ReadWriteCloser, money uint64, cfg *config, logger *log.Logger) *Player {
	id := protocol.NewPlayerID()
	return &Player{
		ID:     id,
		Money:  money,
		conn:   conn,
		cfg:    cfg,
		logger: logger.With("player", id.Short()),
	}
}

// Disconnected reports whether a request to this player has failed. A
// disconnected session never reads or writes again.
func (p *Player) Disconnected() bool {
	return p.disconnected
}

// RequestAction sends the request and waits for one response. It never
// returns an error: every failure is reported as the Disconnected action.
func (p *Player) RequestAction(ctx context.Context, req protocol.ActionRequest) protocol.Action {
	if p.disconnected {
		return protocol.DisconnectedAction()
	}

	resp, err := p.exchange(ctx, req)
	if err != nil {
		p.markDisconnected(err)
		return protocol.DisconnectedAction()
	}

	cards, _ := resp.HoleCards() // validated by ReadActionResponse
	if cards != nil {
		if p.cfg.allowClientCards {
			p.logger.Debug("Client replaced hole cards", "from", p.Hand, "to", cards)
			p.Hand = cards
		} else {
			p.logger.Warn("Ignoring client supplied hole cards", "cards", cards)
		}
	}

	if resp.Action.Kind == protocol.Disconnected {
		p.markDisconnected(ErrPlayerDisconnected)
	}
	return resp.Action
}

type exchangeResult struct {
	resp protocol.ActionResponse
	err  error
}

func (p *Player) exchange(ctx context.Context, req protocol.ActionRequest) (protocol.ActionResponse, error) {
	if err := ctx.Err(); err != nil {
		return protocol.ActionResponse{}, err
	}

	// The deadline covers the write too: a peer that stops reading can block
	// the request until the stream is closed.
	expired := make(chan struct{})
	if p.cfg.actionTimeout > 0 {
		timer := p.cfg.clock.AfterFunc(p.cfg.actionTimeout, func() {
			close(expired)
		})
		defer timer.Stop()
	}

	done := make(chan exchangeResult, 1)
	go func() {
		if err := protocol.WriteJSON(p.conn, req); err != nil {
			done <- exchangeResult{err: fmt.Errorf("send action request: %w", err)}
			return
		}
		resp, err := protocol.ReadActionResponse(p.conn)
		done <- exchangeResult{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-expired:
		p.abandon()
		return protocol.ActionResponse{}, ErrActionTimeout
	case <-ctx.Done():
		p.abandon()
		return protocol.ActionResponse{}, ctx.Err()
	}
}

// abandon closes the connection so the pending write or read returns. The
// stream is no longer frame aligned afterwards.
func (p *Player) abandon() {
	_ = p.conn.Close() // Ignore close errors, the session is finished
}

func (p *Player) markDisconnected(err error) {
	if !p.disconnected {
		p.logger.Warn("Player disconnected", "error", err)
	}
	p.disconnected = true
}

// NotifyHands sends the revealed hands of every seat. Best effort.
func (p *Player) NotifyHands(hands []protocol.RevealedHand) {
	p.send("hands", func(w io.Writer) error {
		return protocol.WriteHands(w, hands)
	})
}

// NotifyVictory sends a Win, Lose or FinalWin notice. Best effort.
func (p *Player) NotifyVictory(v protocol.Victory) {
	p.send("victory", func(w io.Writer) error {
		return protocol.WriteJSON(w, v)
	})
}

// writeDeadliner is implemented by net.Conn and transport.WebSocketStream.
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// countingWriter records whether any byte of a frame reached the stream.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += n
	return n, err
}

// send writes one notification. Each attempt is bounded by the action timeout
// when the stream supports write deadlines. A timed out attempt is retried
// only if nothing was written, since a partial frame leaves the stream
// misaligned. A failed notification disconnects the session.
func (p *Player) send(what string, write func(io.Writer) error) {
	if p.disconnected {
		p.logger.Debug("Skipping notification to disconnected player", "message", what)
		return
	}

	dl, _ := p.conn.(writeDeadliner)
	if dl != nil && p.cfg.actionTimeout > 0 {
		defer func() { _ = dl.SetWriteDeadline(time.Time{}) }()
	}

	for attempt := 1; ; attempt++ {
		if dl != nil && p.cfg.actionTimeout > 0 {
			// Stream deadlines are wall clock deadlines.
			_ = dl.SetWriteDeadline(time.Now().Add(p.cfg.actionTimeout))
		}

		cw := &countingWriter{w: p.conn}
		err := write(cw)
		if err == nil {
			return
		}
		if attempt < p.cfg.sendAttempts && isTimeout(err) && cw.n == 0 {
			p.logger.Debug("Retrying notification", "message", what, "attempt", attempt, "error", err)
			continue
		}
		p.logger.Debug("Failed to send notification", "message", what, "attempt", attempt, "error", err)
		p.markDisconnected(fmt.Errorf("send %s: %w", what, err))
		return
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// holeCards returns the wire form of a dealt two-card hand.
func (p *Player) holeCards() [2]protocol.WireCard {
	var cards [2]protocol.WireCard
	for i := 0; i < len(p.Hand) && i < 2; i++ {
		cards[i] = protocol.FromCard(p.Hand[i])
	}
	return cards
}
