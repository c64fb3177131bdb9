package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/antepoker/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings
	Match  MatchSettings
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address       string `hcl:"address,optional"`
	Port          int    `hcl:"port,optional"`
	WebSocketPort int    `hcl:"websocket_port,optional"` // 0 disables the WebSocket endpoint
	WebSocketPath string `hcl:"websocket_path,optional"`
	LogLevel      string `hcl:"log_level,optional"`
}

// MatchSettings configures every match the server starts
type MatchSettings struct {
	Players          int    `hcl:"players,optional"`
	StartingMoney    uint64 `hcl:"starting_money,optional"`
	Ante             uint64 `hcl:"ante,optional"`
	ActionTimeout    string `hcl:"action_timeout,optional"`
	SplitPot         bool   `hcl:"split_pot,optional"`
	AllowClientCards *bool  `hcl:"allow_client_cards,optional"`
	SendAttempts     int    `hcl:"send_attempts,optional"`
	MaxRounds        int    `hcl:"max_rounds,optional"`  // 0 plays until one player remains
	MaxMatches       int    `hcl:"max_matches,optional"` // 0 serves forever
	Seed             *int64 `hcl:"seed,optional"`
}

// configFile mirrors the HCL layout; both blocks are optional.
type configFile struct {
	Server *ServerSettings `hcl:"server,block"`
	Match  *MatchSettings  `hcl:"match,block"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	allow := true
	return &ServerConfig{
		Server: ServerSettings{
			Address:       "localhost",
			Port:          9000,
			WebSocketPath: "/ws",
			LogLevel:      "info",
		},
		Match: MatchSettings{
			Players:          2,
			StartingMoney:    game.DefaultStartingMoney,
			Ante:             game.DefaultAnte,
			ActionTimeout:    game.DefaultActionTimeout.String(),
			AllowClientCards: &allow,
			SendAttempts:     1,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	src, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseServerConfig(src, filename)
}

// ParseServerConfig decodes HCL source and fills in defaults for anything
// left unset.
func ParseServerConfig(src []byte, filename string) (*ServerConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var decoded configFile
	diags = gohcl.DecodeBody(file.Body, nil, &decoded)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := DefaultServerConfig()
	if decoded.Server != nil {
		config.Server = *decoded.Server
	}
	if decoded.Match != nil {
		config.Match = *decoded.Match
	}
	config.applyDefaults()
	return config, nil
}

func (c *ServerConfig) applyDefaults() {
	defaults := DefaultServerConfig()

	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.WebSocketPath == "" {
		c.Server.WebSocketPath = defaults.Server.WebSocketPath
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaults.Server.LogLevel
	}

	if c.Match.Players == 0 {
		c.Match.Players = defaults.Match.Players
	}
	if c.Match.StartingMoney == 0 {
		c.Match.StartingMoney = defaults.Match.StartingMoney
	}
	if c.Match.Ante == 0 {
		c.Match.Ante = defaults.Match.Ante
	}
	if c.Match.ActionTimeout == "" {
		c.Match.ActionTimeout = defaults.Match.ActionTimeout
	}
	if c.Match.AllowClientCards == nil {
		c.Match.AllowClientCards = defaults.Match.AllowClientCards
	}
	if c.Match.SendAttempts == 0 {
		c.Match.SendAttempts = defaults.Match.SendAttempts
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.WebSocketPort < 0 || c.Server.WebSocketPort > 65535 {
		return fmt.Errorf("invalid websocket port: %d", c.Server.WebSocketPort)
	}
	if c.Server.WebSocketPort != 0 && c.Server.WebSocketPort == c.Server.Port {
		return fmt.Errorf("websocket port %d clashes with tcp port", c.Server.WebSocketPort)
	}

	if c.Match.Players < 2 || c.Match.Players > game.MaxPlayers {
		return fmt.Errorf("players must be between 2 and %d, got %d", game.MaxPlayers, c.Match.Players)
	}
	if c.Match.Ante == 0 {
		return fmt.Errorf("ante must be positive")
	}
	if c.Match.StartingMoney == 0 {
		return fmt.Errorf("starting money must be positive")
	}
	if _, err := c.ActionTimeout(); err != nil {
		return err
	}
	if c.Match.SendAttempts < 1 {
		return fmt.Errorf("send attempts must be at least 1, got %d", c.Match.SendAttempts)
	}
	if c.Match.MaxRounds < 0 {
		return fmt.Errorf("max rounds cannot be negative")
	}
	if c.Match.MaxMatches < 0 {
		return fmt.Errorf("max matches cannot be negative")
	}
	return nil
}

// ActionTimeout parses the configured per-action deadline. Zero disables it.
func (c *ServerConfig) ActionTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Match.ActionTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid action timeout %q: %w", c.Match.ActionTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("action timeout cannot be negative")
	}
	return d, nil
}

// TCPAddress returns the raw stream listen address
func (c *ServerConfig) TCPAddress() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// WebSocketAddress returns the HTTP listen address, or "" when disabled
func (c *ServerConfig) WebSocketAddress() string {
	if c.Server.WebSocketPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.WebSocketPort))
}

// GameOptions translates the match settings into game options.
func (c *ServerConfig) GameOptions() ([]game.Option, error) {
	timeout, err := c.ActionTimeout()
	if err != nil {
		return nil, err
	}
	allow := c.Match.AllowClientCards == nil || *c.Match.AllowClientCards
	return []game.Option{
		game.WithAnte(c.Match.Ante),
		game.WithStartingMoney(c.Match.StartingMoney),
		game.WithActionTimeout(timeout),
		game.WithSplitPot(c.Match.SplitPot),
		game.WithClientCards(allow),
		game.WithSendAttempts(c.Match.SendAttempts),
	}, nil
}
