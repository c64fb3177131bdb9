// Package client connects a bot strategy to an ante poker server.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/bot"
	"github.com/lox/antepoker/internal/protocol"
	"github.com/lox/antepoker/internal/transport"
)

// Result summarises what a client saw before the server closed the stream.
type Result struct {
	Requests int
	Rounds   int
	Wins     int
	// Money is the balance from the most recent notice.
	Money uint64
	// Final is the notice sent when the player left the table, if any.
	Final *protocol.Victory
}

// Client plays one seat using a Strategy.
type Client struct {
	conn     io.ReadWriteCloser
	strategy bot.Strategy
	logger   *log.Logger

	// Cards, when set, are sent with every response to replace the dealt hand.
	Cards []protocol.WireCard

	result   Result
	lastLose bool
}

// New wraps an established stream.
func New(conn io.ReadWriteCloser, strategy bot.Strategy, logger *log.Logger) *Client {
	return &Client{
		conn:     conn,
		strategy: strategy,
		logger:   logger.WithPrefix("client"),
	}
}

// Dial connects over TCP, or over WebSocket when addr is a ws:// or
// http:// URL or useWebSocket is set.
func Dial(ctx context.Context, addr string, useWebSocket bool, strategy bot.Strategy, logger *log.Logger) (*Client, error) {
	var (
		conn io.ReadWriteCloser
		err  error
	)
	if useWebSocket || strings.Contains(addr, "://") {
		conn, err = transport.DialWebSocket(ctx, addr)
	} else {
		conn, err = transport.DialTCP(ctx, addr)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Connected to server", "addr", addr)
	return New(conn, strategy, logger), nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Run answers requests until the server closes the stream or ctx is
// cancelled. A clean close from the server is not an error.
func (c *Client) Run(ctx context.Context) (Result, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.Close() // Unblocks the pending read
	})
	defer stop()

	for {
		payload, err := protocol.ReadFrame(c.conn)
		if err != nil {
			if ctx.Err() != nil {
				return c.result, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("Server closed the connection", "rounds", c.result.Rounds, "money", c.result.Money)
				return c.result, nil
			}
			return c.result, fmt.Errorf("read frame: %w", err)
		}

		msg, err := protocol.DecodeServerMessage(payload)
		if err != nil {
			return c.result, err
		}

		if err := c.handle(msg); err != nil {
			return c.result, err
		}
	}
}

func (c *Client) handle(msg protocol.ServerMessage) error {
	switch msg.Kind {
	case protocol.MessageActionRequest:
		c.result.Requests++
		decision := c.strategy.MakeDecision(*msg.Request)
		c.logger.Debug("Decision made",
			"position", msg.Request.Position,
			"table", len(msg.Request.Table),
			"bets", msg.Request.Bets,
			"action", decision.Action,
			"reasoning", decision.Reasoning)

		resp := protocol.ActionResponse{Action: decision.Action, Cards: c.Cards}
		if err := protocol.WriteJSON(c.conn, resp); err != nil {
			return fmt.Errorf("send action: %w", err)
		}

	case protocol.MessageHands:
		c.logger.Debug("Hands revealed", "players", len(msg.Hands))

	case protocol.MessageVictory:
		c.observe(*msg.Victory)
	}
	return nil
}

// observe tracks notices. Every round ends with Win or Lose; a player leaving
// the table gets FinalWin, or a second Lose(0) straight after a losing round.
func (c *Client) observe(v protocol.Victory) {
	c.result.Money = v.Amount

	switch {
	case v.Kind == protocol.FinalWin:
		c.result.Final = &v
	case v.Kind == protocol.Lose && v.Amount == 0 && c.lastLose:
		c.result.Final = &v
	default:
		c.result.Rounds++
		if v.Kind == protocol.Win {
			c.result.Wins++
		}
		c.lastLose = v.Kind == protocol.Lose && v.Amount == 0
		c.logger.Info("Round finished", "result", v.Kind, "money", v.Amount)
		return
	}
	c.lastLose = false
	c.logger.Info("Left the table", "result", v.Kind, "money", v.Amount)
}
