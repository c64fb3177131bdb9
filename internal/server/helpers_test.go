package server

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/antepoker/internal/bot"
	"github.com/lox/antepoker/internal/randutil"
	"github.com/lox/antepoker/sdk/client"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type clientRun struct {
	result client.Result
	err    error
}

// runBot plays a strategy over conn in the background.
func runBot(ctx context.Context, conn io.ReadWriteCloser, strategy string, seed int64) <-chan clientRun {
	s, err := bot.New(strategy, randutil.New(seed), testLogger())
	if err != nil {
		panic(err)
	}
	c := client.New(conn, s, testLogger())

	done := make(chan clientRun, 1)
	go func() {
		res, err := c.Run(ctx)
		done <- clientRun{res, err}
	}()
	return done
}

// pipePlayers returns the server ends of n pipes with bots on the far side.
func pipePlayers(t *testing.T, ctx context.Context, strategies ...string) ([]io.ReadWriteCloser, []<-chan clientRun) {
	t.Helper()
	var (
		conns []io.ReadWriteCloser
		runs  []<-chan clientRun
	)
	for i, strategy := range strategies {
		server, conn := net.Pipe()
		t.Cleanup(func() {
			_ = server.Close()
			_ = conn.Close()
		})
		conns = append(conns, server)
		runs = append(runs, runBot(ctx, conn, strategy, int64(i+1)))
	}
	return conns, runs
}

func waitRun(t *testing.T, run <-chan clientRun) clientRun {
	t.Helper()
	select {
	case r := <-run:
		return r
	case <-time.After(10 * time.Second):
		t.Fatal("bot did not finish")
		return clientRun{}
	}
}

func totalStandings(r MatchResult) uint64 {
	var sum uint64
	for _, s := range r.Standings {
		sum += s.Money
	}
	return sum
}

func testConfig(t *testing.T, players, maxMatches, maxRounds int) *ServerConfig {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.Match.Players = players
	cfg.Match.MaxMatches = maxMatches
	cfg.Match.MaxRounds = maxRounds
	cfg.Match.ActionTimeout = "5s"
	require.NoError(t, cfg.Validate())
	return cfg
}
