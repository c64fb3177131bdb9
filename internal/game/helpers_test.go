package game

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/antepoker/internal/protocol"
	"github.com/lox/antepoker/internal/randutil"
)

// responder decides the reply to an action request. Returning false hangs up.
type responder func(req protocol.ActionRequest) (protocol.ActionResponse, bool)

func always(a protocol.Action) responder {
	return func(protocol.ActionRequest) (protocol.ActionResponse, bool) {
		return protocol.ActionResponse{Action: a}, true
	}
}

// sequence replies with the given actions in order, then calls.
func sequence(actions ...protocol.Action) responder {
	var mu sync.Mutex
	return func(protocol.ActionRequest) (protocol.ActionResponse, bool) {
		mu.Lock()
		defer mu.Unlock()
		if len(actions) == 0 {
			return protocol.ActionResponse{Action: protocol.CallAction()}, true
		}
		a := actions[0]
		actions = actions[1:]
		return protocol.ActionResponse{Action: a}, true
	}
}

func hangUp() responder {
	return func(protocol.ActionRequest) (protocol.ActionResponse, bool) {
		return protocol.ActionResponse{}, false
	}
}

// scriptedClient plays the client end of a pipe and records what it receives.
type scriptedClient struct {
	conn    net.Conn
	respond responder

	mu        sync.Mutex
	requests  []protocol.ActionRequest
	hands     [][]protocol.RevealedHand
	victories []protocol.Victory
}

func startClient(conn net.Conn, respond responder) *scriptedClient {
	c := &scriptedClient{conn: conn, respond: respond}
	go c.run()
	return c
}

func (c *scriptedClient) run() {
	for {
		payload, err := protocol.ReadFrame(c.conn)
		if err != nil {
			return
		}
		msg, err := protocol.DecodeServerMessage(payload)
		if err != nil {
			return
		}

		switch msg.Kind {
		case protocol.MessageActionRequest:
			c.mu.Lock()
			c.requests = append(c.requests, *msg.Request)
			c.mu.Unlock()

			resp, ok := c.respond(*msg.Request)
			if !ok {
				_ = c.conn.Close()
				return
			}
			if err := protocol.WriteJSON(c.conn, resp); err != nil {
				return
			}
		case protocol.MessageHands:
			c.mu.Lock()
			c.hands = append(c.hands, msg.Hands)
			c.mu.Unlock()
		case protocol.MessageVictory:
			c.mu.Lock()
			c.victories = append(c.victories, *msg.Victory)
			c.mu.Unlock()
		}
	}
}

func (c *scriptedClient) Requests() []protocol.ActionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.ActionRequest(nil), c.requests...)
}

func (c *scriptedClient) Hands() [][]protocol.RevealedHand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]protocol.RevealedHand(nil), c.hands...)
}

func (c *scriptedClient) Victories() []protocol.Victory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Victory(nil), c.victories...)
}

// waitVictories blocks until the client has recorded n victory notices.
func (c *scriptedClient) waitVictories(t *testing.T, n int) []protocol.Victory {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(c.Victories()) >= n
	}, time.Second, 5*time.Millisecond, "expected %d victory notices", n)
	return c.Victories()
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// newTestGame seats one scripted client per responder.
func newTestGame(t *testing.T, seed int64, opts []Option, responders ...responder) (*Game, []*scriptedClient) {
	t.Helper()
	g := NewGame(testLogger(), randutil.New(seed), opts...)

	clients := make([]*scriptedClient, len(responders))
	for i, r := range responders {
		server, client := net.Pipe()
		_, err := g.AddPlayer(server)
		require.NoError(t, err)
		clients[i] = startClient(client, r)
		t.Cleanup(func() {
			_ = server.Close()
			_ = client.Close()
		})
	}
	return g, clients
}

// seat adds a player without a connection, for tests that never talk to it.
func seat(t *testing.T, g *Game) *Player {
	t.Helper()
	p, err := g.AddPlayer(nil)
	require.NoError(t, err)
	return p
}

func totalMoney(g *Game) uint64 {
	var sum uint64
	for _, p := range g.Players() {
		sum += p.Money
	}
	for _, p := range g.Ledger().Players() {
		sum += p.Money
	}
	return sum
}
