package game

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/antepoker/internal/protocol"
	"github.com/lox/antepoker/poker"
)

func expectedWinner(t *testing.T, g *Game) int {
	t.Helper()
	return bestSeat(t, g.Players(), g.Table())
}

// bestSeat returns the earliest seat holding the best hand on the table.
func bestSeat(t *testing.T, players []*Player, table []poker.Card) int {
	t.Helper()
	winner := -1
	var best poker.HandRank
	for seat, p := range players {
		cards := append(append([]poker.Card{}, p.Hand...), table...)
		rank, err := poker.Evaluate(cards...)
		require.NoError(t, err)
		if winner < 0 || rank > best {
			winner, best = seat, rank
		}
	}
	return winner
}

// requireUniqueCards fails if any card was dealt twice in one round.
func requireUniqueCards(t *testing.T, players []*Player, table []poker.Card) {
	t.Helper()
	dealt := make(map[poker.Card]bool)
	for _, p := range players {
		for _, c := range p.Hand {
			require.False(t, dealt[c], "hole card %s dealt twice", c)
			dealt[c] = true
		}
	}
	for _, c := range table {
		require.False(t, dealt[c], "table card %s dealt twice", c)
		dealt[c] = true
	}
}

func TestHeadsUpShowdown(t *testing.T) {
	g, clients := newTestGame(t, 42, nil,
		always(protocol.CallAction()),
		always(protocol.CallAction()),
	)

	status := g.RunRound(context.Background())
	require.Equal(t, Running, status)
	require.Len(t, g.Table(), 5)

	winner := expectedWinner(t, g)
	for seat, p := range g.Players() {
		v := clients[seat].waitVictories(t, 1)
		if seat == winner {
			assert.Equal(t, uint64(1100), p.Money)
			assert.Equal(t, protocol.Victory{Kind: protocol.Win, Amount: 1100}, v[0])
		} else {
			assert.Equal(t, uint64(900), p.Money)
			assert.Equal(t, protocol.Victory{Kind: protocol.Lose, Amount: 900}, v[0])
		}
	}
	assert.Equal(t, 0, g.Ledger().Len())
}

func TestActionRequestContents(t *testing.T) {
	g, clients := newTestGame(t, 7, nil,
		always(protocol.CallAction()),
		always(protocol.CallAction()),
	)
	require.Equal(t, Running, g.RunRound(context.Background()))

	var first *protocol.ActionRequest
	for seat, c := range clients {
		reqs := c.Requests()
		require.NotEmpty(t, reqs)
		// Three streets, each asking every seat at least once.
		assert.GreaterOrEqual(t, len(reqs), 3)
		for _, req := range reqs {
			assert.Equal(t, uint8(seat), req.Position)
			assert.Len(t, req.Hand, 2)
			assert.Len(t, req.Bets, 2)
			if len(req.PastActions) == 0 && len(req.Table) == 3 {
				first = &req
			}
		}
	}

	require.NotNil(t, first, "someone opens the flop with no history")
	assert.Equal(t, []uint64{100, 100}, first.Bets)
}

func TestFoldedPlayerStillNotified(t *testing.T) {
	g, clients := newTestGame(t, 3, nil,
		always(protocol.FoldAction()),
		always(protocol.CallAction()),
		always(protocol.CallAction()),
	)
	folder := g.Players()[0]

	require.Equal(t, Running, g.RunRound(context.Background()))
	assert.Equal(t, uint64(900), folder.Money)

	v := clients[0].waitVictories(t, 1)
	assert.Equal(t, protocol.Victory{Kind: protocol.Lose, Amount: 900}, v[0])

	hands := clients[0].Hands()
	require.Len(t, hands, 1)
	require.Len(t, hands[0], 3)
	for i, p := range g.Players() {
		assert.Equal(t, p.ID, hands[0][i].Player)
	}

	// The folded seat is asked once on the flop and never again.
	assert.Len(t, clients[0].Requests(), 1)
	assert.Equal(t, uint64(3000), totalMoney(g))
}

func TestEliminationAtZero(t *testing.T) {
	g, clients := newTestGame(t, 11, nil,
		always(protocol.FoldAction()),
		always(protocol.CallAction()),
		always(protocol.CallAction()),
	)
	busted := g.Players()[0]
	busted.Money = 100

	require.Equal(t, Running, g.RunRound(context.Background()))
	assert.Len(t, g.Players(), 2)
	require.Equal(t, 1, g.Ledger().Len())
	assert.Equal(t, busted.ID, g.Ledger().Players()[0].ID)
	assert.Zero(t, busted.Money)

	conns := g.Ledger().Drain()
	assert.Len(t, conns, 1)
	assert.Zero(t, g.Ledger().Len())

	v := clients[0].waitVictories(t, 2)
	assert.Equal(t, protocol.Victory{Kind: protocol.Lose, Amount: 0}, v[0])
	assert.Equal(t, protocol.Victory{Kind: protocol.Lose, Amount: 0}, v[1])
}

func TestLastPlayerFinishesMatch(t *testing.T) {
	g, clients := newTestGame(t, 5, []Option{WithStartingMoney(100)},
		always(protocol.CallAction()),
		always(protocol.CallAction()),
	)

	require.Equal(t, Finished, g.RunRound(context.Background()))
	assert.Empty(t, g.Players())
	require.Equal(t, 2, g.Ledger().Len())

	g.Ledger().Drain()
	var finals []protocol.Victory
	for _, c := range clients {
		v := c.waitVictories(t, 2)
		finals = append(finals, v[1])
	}
	assert.ElementsMatch(t, []protocol.Victory{
		{Kind: protocol.FinalWin, Amount: 200},
		{Kind: protocol.Lose, Amount: 0},
	}, finals)

	// Nobody left to play.
	assert.Equal(t, Finished, g.RunRound(context.Background()))
}

func TestDisconnectAbortsRound(t *testing.T) {
	g, _ := newTestGame(t, 9, nil,
		hangUp(),
		always(protocol.CallAction()),
		always(protocol.CallAction()),
	)

	require.Equal(t, Error, g.RunRound(context.Background()))
	for _, p := range g.Players() {
		assert.Equal(t, uint64(1000), p.Money, "balances are untouched by an aborted round")
	}

	removed := g.RemoveDisconnected()
	require.Len(t, removed, 1)
	assert.True(t, removed[0].Disconnected())
	assert.Len(t, g.Players(), 2)
	assert.Equal(t, 1, g.Ledger().Len())

	// The remaining players carry on.
	assert.Equal(t, Running, g.RunRound(context.Background()))
	assert.Equal(t, uint64(3000), totalMoney(g))
}

func TestExplicitDisconnectedAction(t *testing.T) {
	g, _ := newTestGame(t, 13, nil,
		always(protocol.DisconnectedAction()),
		always(protocol.CallAction()),
	)

	require.Equal(t, Error, g.RunRound(context.Background()))
	assert.True(t, g.Players()[0].Disconnected())
	assert.False(t, g.Players()[1].Disconnected())
}

func TestActionTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mockClock := quartz.NewMock(t)
	requested := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	silent := func(protocol.ActionRequest) (protocol.ActionResponse, bool) {
		close(requested)
		<-release
		return protocol.ActionResponse{}, false
	}

	g, _ := newTestGame(t, 17,
		[]Option{WithClock(mockClock), WithActionTimeout(10 * time.Second)},
		silent,
		always(protocol.CallAction()),
	)

	statusCh := make(chan Status, 1)
	go func() { statusCh <- g.RunRound(ctx) }()

	select {
	case <-requested:
	case <-ctx.Done():
		t.Fatal("silent player never received a request")
	}
	mockClock.Advance(10 * time.Second).MustWait(ctx)

	select {
	case status := <-statusCh:
		assert.Equal(t, Error, status)
	case <-ctx.Done():
		t.Fatal("round did not abort after the deadline")
	}
	assert.True(t, g.Players()[0].Disconnected())
	assert.Equal(t, uint64(1000), g.Players()[0].Money)
}

func TestCancelledContextDisconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	stall := func(protocol.ActionRequest) (protocol.ActionResponse, bool) {
		cancel()
		<-release
		return protocol.ActionResponse{}, false
	}

	g, _ := newTestGame(t, 19, []Option{WithActionTimeout(0)}, stall, stall)
	assert.Equal(t, Error, g.RunRound(ctx))
}

func TestClientSuppliedCards(t *testing.T) {
	override := protocol.FromCards(poker.MustParseCards("Ah Ad"))
	withCards := func(protocol.ActionRequest) (protocol.ActionResponse, bool) {
		return protocol.ActionResponse{Action: protocol.CallAction(), Cards: override}, true
	}

	t.Run("allowed", func(t *testing.T) {
		g, clients := newTestGame(t, 23, nil, withCards, always(protocol.CallAction()))
		require.NotEqual(t, Error, g.RunRound(context.Background()))

		assert.Equal(t, poker.MustParseCards("Ah Ad"), g.Players()[0].Hand)
		clients[0].waitVictories(t, 1)
		hands := clients[0].Hands()
		require.Len(t, hands, 1)
		assert.Equal(t, [2]protocol.WireCard{override[0], override[1]}, hands[0][0].Cards)
	})

	t.Run("ignored", func(t *testing.T) {
		g, _ := newTestGame(t, 23, []Option{WithClientCards(false)}, withCards, always(protocol.CallAction()))
		dealt := g.Players()[0]
		require.NotEqual(t, Error, g.RunRound(context.Background()))
		assert.NotEqual(t, poker.MustParseCards("Ah Ad"), dealt.Hand)
	})
}

func TestShowdownUsesCommunityCards(t *testing.T) {
	g := NewGame(testLogger(), rand.New(rand.NewPCG(1, 2)))
	p0 := seat(t, g)
	p1 := seat(t, g)
	p0.Hand = poker.MustParseCards("Ah Kh")
	p1.Hand = poker.MustParseCards("7h 3c")
	g.table = poker.MustParseCards("2h 2d 2s 7c 7d")

	// Sevens full beats twos full even though ace-king is the better pair of
	// hole cards.
	winners := g.showdown(g.logger, make([]bool, 2))
	assert.Equal(t, []int{1}, winners)
}

func TestShowdownTies(t *testing.T) {
	setup := func(opts ...Option) *Game {
		g := NewGame(testLogger(), rand.New(rand.NewPCG(1, 2)), opts...)
		for _, hand := range []string{"2c 3d", "4c 5d", "6h 8h"} {
			p := seat(t, g)
			p.Hand = poker.MustParseCards(hand)
		}
		g.table = poker.MustParseCards("As Ks Qs Js Ts")
		return g
	}

	t.Run("first seat wins", func(t *testing.T) {
		g := setup()
		assert.Equal(t, []int{0}, g.showdown(g.logger, make([]bool, 3)))
	})

	t.Run("folded seats are skipped", func(t *testing.T) {
		g := setup()
		assert.Equal(t, []int{1}, g.showdown(g.logger, []bool{true, false, false}))
	})

	t.Run("split pot with remainder", func(t *testing.T) {
		g := setup(WithSplitPot(true))
		winners := g.showdown(g.logger, make([]bool, 3))
		require.Equal(t, []int{0, 1, 2}, winners)

		pot := g.settle([]uint64{100, 100, 101}, winners)
		assert.Equal(t, uint64(301), pot)
		var balances []uint64
		for _, p := range g.Players() {
			balances = append(balances, p.Money)
		}
		assert.Equal(t, []uint64{1001, 1000, 999}, balances)
	})
}

func TestSettleCapsDebitAtBalance(t *testing.T) {
	g := NewGame(testLogger(), rand.New(rand.NewPCG(1, 2)))
	rich := seat(t, g)
	poor := seat(t, g)
	poor.Money = 50

	pot := g.settle([]uint64{5000, 5000}, []int{0})
	assert.Equal(t, uint64(1050), pot)
	assert.Equal(t, uint64(1050), rich.Money)
	assert.Zero(t, poor.Money)
}

func randomResponder(seed uint64) responder {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func(req protocol.ActionRequest) (protocol.ActionResponse, bool) {
		switch n := rng.IntN(10); {
		case n < 2:
			return protocol.ActionResponse{Action: protocol.FoldAction()}, true
		case n < 5:
			return protocol.ActionResponse{Action: protocol.RaiseAction(rng.Uint64N(3000))}, true
		default:
			return protocol.ActionResponse{Action: protocol.CallAction()}, true
		}
	}
}

func TestChipConservation(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		g, _ := newTestGame(t, seed, nil,
			randomResponder(uint64(seed)),
			randomResponder(uint64(seed)+100),
			randomResponder(uint64(seed)+200),
			randomResponder(uint64(seed)+300),
		)

		for round := 0; round < 40; round++ {
			seated := g.Players()
			status := g.RunRound(context.Background())
			require.NotEqual(t, Error, status, "seed %d", seed)
			requireUniqueCards(t, seated, g.Table())
			require.Equal(t, uint64(4000), totalMoney(g), "seed %d round %d", seed, round)
			if status == Finished {
				break
			}
		}
	}
}

func TestRoundDrawsFromOneDeck(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		g, clients := newTestGame(t, seed, nil,
			always(protocol.CallAction()),
			always(protocol.CallAction()),
		)
		// Leave fewer cards than a heads-up round needs.
		g.deck.Draw(45)

		seated := g.Players()
		require.Equal(t, Running, g.RunRound(context.Background()))
		assert.Equal(t, 2, g.deck.Cycle(), "seed %d", seed)
		requireUniqueCards(t, seated, g.Table())

		winner := bestSeat(t, seated, g.Table())
		v := clients[winner].waitVictories(t, 1)
		assert.Equal(t, protocol.Win, v[0].Kind, "seed %d", seed)
	}
}

func TestDeckPersistsAcrossRounds(t *testing.T) {
	g, clients := newTestGame(t, 5, nil,
		always(protocol.CallAction()),
		always(protocol.CallAction()),
	)

	for round := 1; ; round++ {
		seated := g.Players()
		cycle := g.deck.Cycle()
		remaining := g.deck.Remaining()

		status := g.RunRound(context.Background())
		require.NotEqual(t, Error, status)
		requireUniqueCards(t, seated, g.Table())
		if g.deck.Cycle() == cycle {
			assert.Equal(t, remaining-9, g.deck.Remaining(), "round %d", round)
		}

		winner := bestSeat(t, seated, g.Table())
		for seat, c := range clients {
			v := c.waitVictories(t, round)
			want := protocol.Lose
			if seat == winner {
				want = protocol.Win
			}
			assert.Equal(t, want, v[round-1].Kind, "round %d seat %d", round, seat)
		}

		if status == Finished {
			assert.Greater(t, g.deck.Cycle(), 1)
			break
		}
	}
}

func TestAddPlayerRefusesFullTable(t *testing.T) {
	g := NewGame(testLogger(), rand.New(rand.NewPCG(1, 2)))
	for range MaxPlayers {
		seat(t, g)
	}
	_, err := g.AddPlayer(nil)
	require.ErrorIs(t, err, ErrTableFull)
	assert.Len(t, g.Players(), MaxPlayers)
}
