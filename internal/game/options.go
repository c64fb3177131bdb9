package game

import (
	"time"

	"github.com/coder/quartz"
)

const (
	// DefaultAnte is the flat forced contribution taken from every seat.
	DefaultAnte = 100
	// DefaultStartingMoney is the balance given to each joining player.
	DefaultStartingMoney = 1000
	// DefaultActionTimeout bounds how long a single action request may block.
	DefaultActionTimeout = 30 * time.Second
)

// Option configures a Game during creation.
type Option func(*config)

// config holds the match settings shared by the game and its sessions.
type config struct {
	ante             uint64
	startingMoney    uint64
	actionTimeout    time.Duration // zero disables the deadline
	clock            quartz.Clock
	allowClientCards bool
	splitPot         bool
	sendAttempts     int
}

func defaultConfig() config {
	return config{
		ante:             DefaultAnte,
		startingMoney:    DefaultStartingMoney,
		actionTimeout:    DefaultActionTimeout,
		clock:            quartz.NewReal(),
		allowClientCards: true,
		sendAttempts:     1,
	}
}

// WithAnte sets the forced contribution per seat per round.
func WithAnte(ante uint64) Option {
	return func(c *config) { c.ante = ante }
}

// WithStartingMoney sets the balance of players added after creation.
func WithStartingMoney(money uint64) Option {
	return func(c *config) { c.startingMoney = money }
}

// WithActionTimeout sets the per-action deadline. Zero waits forever.
func WithActionTimeout(d time.Duration) Option {
	return func(c *config) { c.actionTimeout = d }
}

// WithClock sets the clock used for action deadlines.
func WithClock(clock quartz.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithClientCards controls whether a response may replace the responding
// player's hole cards. Enabled by default; hardened deployments turn it off.
func WithClientCards(allow bool) Option {
	return func(c *config) { c.allowClientCards = allow }
}

// WithSplitPot splits the pot between equal best hands instead of awarding it
// to the earliest seat.
func WithSplitPot(split bool) Option {
	return func(c *config) { c.splitPot = split }
}

// WithSendAttempts bounds retries of notification writes that time out.
func WithSendAttempts(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.sendAttempts = n
	}
}
