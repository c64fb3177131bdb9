package main

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/antepoker/cmd/antepoker/shared"
	"github.com/lox/antepoker/internal/bot"
	"github.com/lox/antepoker/internal/randutil"
	"github.com/lox/antepoker/internal/server"
	"github.com/lox/antepoker/sdk/client"
)

// SpawnCmd runs a server and a set of built-in bots in one process for one
// match, then reports the standings.
type SpawnCmd struct {
	Addr          string `default:"localhost:0" help:"Server address, defaults to a random port on localhost"`
	Spec          string `default:"call:1,random:1,raise:1" help:"Bot specification (e.g. call:2,random:1,raise:1)"`
	Ante          uint64 `default:"100" help:"Ante taken from every seat each round"`
	StartingMoney uint64 `default:"1000" help:"Starting balance per player"`
	MaxRounds     int    `default:"200" help:"Finish the match after this many rounds (0 plays to the end)"`
	SplitPot      bool   `help:"Split tied pots instead of paying the first seat"`
	Seed          *int64 `help:"Deterministic RNG seed (optional)"`
	Debug         bool   `help:"Enable debug logging"`
	LogLevel      string `default:"info" help:"Log level (debug|info|warn|error)"`
}

type botSpec struct {
	Strategy string
	Count    int
}

func (c *SpawnCmd) Run() error {
	logger, err := shared.SetupLogger(c.LogLevel, c.Debug, false)
	if err != nil {
		return err
	}

	specs, err := parseSpec(c.Spec)
	if err != nil {
		return err
	}
	total := 0
	for _, s := range specs {
		total += s.Count
	}

	cfg := server.DefaultServerConfig()
	cfg.Match.Players = total
	cfg.Match.Ante = c.Ante
	cfg.Match.StartingMoney = c.StartingMoney
	cfg.Match.MaxRounds = c.MaxRounds
	cfg.Match.MaxMatches = 1
	cfg.Match.SplitPot = c.SplitPot

	rng, seed := randutil.Resolve(c.Seed)
	logger.Info("Spawning match", "bots", total, "spec", c.Spec, "seed", seed)

	var result server.MatchResult
	srv, err := server.NewServer(logger, rng, cfg, server.WithMatchObserver(func(r server.MatchResult) {
		result = r
	}))
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx, ln, nil) })

	botLogger := logger.WithPrefix("bots")
	if !c.Debug {
		botLogger.SetLevel(max(botLogger.GetLevel(), log.WarnLevel))
	}
	for _, spec := range specs {
		for range spec.Count {
			strategy, err := bot.New(spec.Strategy, randutil.Child(rng), botLogger)
			if err != nil {
				return err
			}
			cl, err := client.Dial(gctx, ln.Addr().String(), false, strategy, botLogger)
			if err != nil {
				cancel()
				_ = g.Wait()
				return err
			}
			g.Go(func() error {
				defer cl.Close()
				_, err := cl.Run(gctx)
				if gctx.Err() != nil {
					return nil
				}
				return err
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, s := range result.Standings {
		logger.Info("Standing", "place", len(result.Standings)-i, "player", s.Player.Short(), "money", s.Money)
	}
	logger.Info("Match complete", "rounds", result.Rounds)
	return nil
}

// parseSpec reads "strategy:count" pairs separated by commas. A bare strategy
// counts once.
func parseSpec(spec string) ([]botSpec, error) {
	var specs []botSpec
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, countStr, found := strings.Cut(part, ":")
		count := 1
		if found {
			n, err := strconv.Atoi(countStr)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid count in %q", part)
			}
			count = n
		}
		if !validStrategy(name) {
			return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, bot.Names())
		}
		specs = append(specs, botSpec{Strategy: name, Count: count})
	}

	total := 0
	for _, s := range specs {
		total += s.Count
	}
	if total < 2 {
		return nil, fmt.Errorf("need at least two bots, got %d", total)
	}
	return specs, nil
}

func validStrategy(name string) bool {
	names := bot.Names()
	i := sort.SearchStrings(names, name)
	return i < len(names) && names[i] == name
}
