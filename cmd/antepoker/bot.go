package main

import (
	"context"
	"errors"
	"strings"

	"github.com/lox/antepoker/cmd/antepoker/shared"
	"github.com/lox/antepoker/internal/bot"
	"github.com/lox/antepoker/internal/protocol"
	"github.com/lox/antepoker/internal/randutil"
	"github.com/lox/antepoker/poker"
	"github.com/lox/antepoker/sdk/client"
)

type BotCmd struct {
	Server    string `default:"localhost:9000" help:"Server address; ws:// or http:// URLs use WebSocket"`
	Strategy  string `default:"call" enum:"call,fold,random,raise" help:"Bot strategy (call, fold, random, raise)"`
	WebSocket bool   `name:"websocket" help:"Connect over WebSocket"`
	Cards     string `help:"Hole cards to claim on every response, e.g. 'As Ah'"`
	Seed      *int64 `help:"Deterministic RNG seed for the strategy (optional)"`
	Debug     bool   `help:"Enable debug logging"`
	LogLevel  string `default:"info" help:"Log level (debug|info|warn|error)"`
	LogJSON   bool   `help:"Output JSON logs instead of console format"`
}

func (c *BotCmd) Run() error {
	logger, err := shared.SetupLogger(c.LogLevel, c.Debug, c.LogJSON)
	if err != nil {
		return err
	}

	var cards []protocol.WireCard
	if strings.TrimSpace(c.Cards) != "" {
		parsed, err := parseCards(c.Cards)
		if err != nil {
			return err
		}
		cards = protocol.FromCards(parsed)
	}

	rng, seed := randutil.Resolve(c.Seed)
	strategy, err := bot.New(c.Strategy, rng, logger)
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	cl, err := client.Dial(ctx, c.Server, c.WebSocket, strategy, logger.With("strategy", c.Strategy, "seed", seed))
	if err != nil {
		return err
	}
	defer cl.Close()
	cl.Cards = cards

	result, err := cl.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("Bot finished",
		"rounds", result.Rounds,
		"wins", result.Wins,
		"money", result.Money)
	return nil
}

func parseCards(s string) ([]poker.Card, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return nil, errors.New("--cards needs exactly two cards")
	}
	cards := make([]poker.Card, len(fields))
	for i, f := range fields {
		card, err := poker.ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards[i] = card
	}
	return cards, nil
}
