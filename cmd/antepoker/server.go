package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/lox/antepoker/cmd/antepoker/shared"
	"github.com/lox/antepoker/internal/randutil"
	"github.com/lox/antepoker/internal/server"
)

// ServerCmd runs the match server. Flags override the config file.
type ServerCmd struct {
	Config        string         `short:"c" type:"path" help:"HCL config file (missing file means defaults)"`
	Addr          string         `help:"TCP listen address (host:port)"`
	WSPort        int            `name:"ws-port" help:"WebSocket listen port, 0 keeps the config value"`
	Players       int            `help:"Players per match"`
	Ante          uint64         `help:"Ante taken from every seat each round"`
	StartingMoney uint64         `help:"Starting balance per player"`
	ActionTimeout *time.Duration `help:"Deadline for each action request, 0 disables"`
	SplitPot      bool           `help:"Split tied pots instead of paying the first seat"`
	NoClientCards bool           `help:"Ignore hole cards supplied in client responses"`
	MaxRounds     int            `help:"Finish each match after this many rounds (0 plays to the end)"`
	MaxMatches    int            `help:"Exit after this many matches (0 serves forever)"`
	Seed          *int64         `help:"Deterministic RNG seed (optional)"`
	Debug         bool           `help:"Enable debug logging"`
	LogJSON       bool           `help:"Output JSON logs instead of console format"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.configPath())
	if err != nil {
		return err
	}
	if err := c.apply(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := shared.SetupLogger(cfg.Server.LogLevel, c.Debug, c.LogJSON)
	if err != nil {
		return err
	}

	rng, seed := randutil.Resolve(cfg.Match.Seed)
	if cfg.Match.Seed != nil {
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		logger.Info("Using random seed", "seed", seed)
	}

	srv, err := server.NewServer(logger, rng, cfg)
	if err != nil {
		return err
	}

	logger.Info("Starting ante poker server",
		"address", cfg.TCPAddress(),
		"websocket", cfg.WebSocketAddress(),
		"players", cfg.Match.Players,
		"ante", cfg.Match.Ante,
		"starting_money", cfg.Match.StartingMoney,
		"action_timeout", cfg.Match.ActionTimeout,
		"split_pot", cfg.Match.SplitPot,
		"max_matches", cfg.Match.MaxMatches)

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func (c *ServerCmd) configPath() string {
	if c.Config == "" {
		return "antepoker.hcl"
	}
	return c.Config
}

// apply copies every flag that was set onto the loaded config.
func (c *ServerCmd) apply(cfg *server.ServerConfig) error {
	if c.Addr != "" {
		host, port, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid --addr port: %w", err)
		}
		if host != "" {
			cfg.Server.Address = host
		}
		cfg.Server.Port = p
	}
	if c.WSPort != 0 {
		cfg.Server.WebSocketPort = c.WSPort
	}
	if c.Players != 0 {
		cfg.Match.Players = c.Players
	}
	if c.Ante != 0 {
		cfg.Match.Ante = c.Ante
	}
	if c.StartingMoney != 0 {
		cfg.Match.StartingMoney = c.StartingMoney
	}
	if c.ActionTimeout != nil {
		cfg.Match.ActionTimeout = c.ActionTimeout.String()
	}
	if c.SplitPot {
		cfg.Match.SplitPot = true
	}
	if c.NoClientCards {
		allow := false
		cfg.Match.AllowClientCards = &allow
	}
	if c.MaxRounds != 0 {
		cfg.Match.MaxRounds = c.MaxRounds
	}
	if c.MaxMatches != 0 {
		cfg.Match.MaxMatches = c.MaxMatches
	}
	if c.Seed != nil {
		cfg.Match.Seed = c.Seed
	}
	return nil
}
