// Package game runs ante poker matches over already-connected player streams.
//
// A Game owns the deck, the seated players, the community cards and the
// elimination ledger. RunRound plays one full round:
//
//	Dealing -> Anteing -> StreetBetting (flop, turn, river) -> Showdown
//	        -> Settlement -> Elimination
//
// and reports Running, Finished or Error. Rounds are strictly sequential and
// players act one at a time, so a Game must only be driven from a single
// goroutine. Independent games share nothing and may run in parallel.
//
// Each Player owns its connection. Asking a player to act writes one framed
// request and blocks for one framed response; any failure to get a valid
// response, including the per-action deadline expiring, comes back as the
// Disconnected action and aborts the round with Error before any chips move.
package game
