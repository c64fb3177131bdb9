package game

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/lox/antepoker/internal/protocol"
	"github.com/lox/antepoker/poker"
)

// bettingRound drives one street of betting. Seats listed in out are skipped;
// a seat that folds is added to out for the rest of the round.
type bettingRound struct {
	players []*Player
	table   []poker.Card
	bets    []uint64
	out     []bool
	rng     *rand.Rand
	logger  *log.Logger

	actions []protocol.PastAction
}

// run loops until action returns to the seat that last raised (or to the
// first actor when nobody raised) and that seat acts without raising again,
// or until a single seat remains in play. A Disconnected answer aborts with
// ErrPlayerDisconnected.
func (br *bettingRound) run(ctx context.Context) error {
	seat := br.randomInPlaySeat()
	closer := seat
	open := true

	for open {
		if seat == closer && len(br.actions) > 1 {
			open = false
		}

		player := br.players[seat]
		action := player.RequestAction(ctx, br.request(seat))

		switch action.Kind {
		case protocol.Fold:
			br.out[seat] = true
			if seat == closer {
				// The closing seat left before action came back to it.
				closer = br.nextInPlay(seat)
			}
		case protocol.Call:
			br.bets[seat] = min(br.maxBet(), player.Money)
		case protocol.Raise:
			if action.Amount > br.maxBet() {
				open = true
				closer = seat
				br.bets[seat] = action.Amount
			} else {
				br.bets[seat] = min(action.Amount, player.Money)
			}
		case protocol.Disconnected:
			return fmt.Errorf("seat %d: %w", seat, ErrPlayerDisconnected)
		default:
			return fmt.Errorf("seat %d: unhandled action %v", seat, action)
		}

		br.actions = append(br.actions, protocol.PastAction{Player: player.ID, Action: action})
		br.logger.Debug("Player acted", "seat", seat, "player", player.ID.Short(), "action", action, "bet", br.bets[seat])

		if countInPlay(br.out) <= 1 {
			break
		}
		seat = br.nextInPlay(seat)
	}
	return nil
}

// request builds the context sent to the seat about to act.
func (br *bettingRound) request(seat int) protocol.ActionRequest {
	return protocol.ActionRequest{
		Position:    uint8(seat),
		Table:       protocol.FromCards(br.table),
		Hand:        protocol.FromCards(br.players[seat].Hand),
		Bets:        slices.Clone(br.bets),
		PastActions: append([]protocol.PastAction{}, br.actions...),
	}
}

func (br *bettingRound) maxBet() uint64 {
	return slices.Max(br.bets)
}

// randomInPlaySeat picks the first actor uniformly among seats still in play.
func (br *bettingRound) randomInPlaySeat() int {
	seats := make([]int, 0, len(br.out))
	for i, folded := range br.out {
		if !folded {
			seats = append(seats, i)
		}
	}
	return seats[br.rng.IntN(len(seats))]
}

// nextInPlay returns the next seat clockwise that has not folded.
func (br *bettingRound) nextInPlay(seat int) int {
	n := len(br.players)
	for i := 1; i <= n; i++ {
		next := (seat + i) % n
		if !br.out[next] {
			return next
		}
	}
	return seat
}
