// Package engine is the rules engine of the game: the round phase machine,
// the placement/betting resolution algorithm and the turn/win coordinator.
// All functions mutate a *entity.Game in memory and never touch storage; a
// returned error means the game was left unchanged, except for
// apperror.ErrCorruptState, which callers must treat as fatal and not persist.
package engine

import (
	"math/rand"
	"time"
)

const (
	// MinPlayers is the smallest number of seats a game can start with.
	MinPlayers = 2
	// MinSpareTracks is how many ready tracks beyond one per player the
	// playlist must hold before a game may start.
	MinSpareTracks = 10

	// BetCost is spent when placing a bet; the winning bet is refunded.
	BetCost = 1
	// SkipCost is spent by the active player to swap the round card.
	SkipCost = 1
	// AutoPlaceCost is spent to have a card inserted at its canonical index.
	AutoPlaceCost = 3
	// BonusTokenAmount is earned by claiming the once-per-round bonus.
	BonusTokenAmount = 1
)

// Outcome is the three-way result of a round resolution.
type Outcome string

const (
	OutcomeActivePlayer Outcome = "active_player"
	OutcomeBettor       Outcome = "bettor"
	OutcomeDiscard      Outcome = "discard"
)

// Resolution is the typed result of ResolveRound.
type Resolution struct {
	Outcome         Outcome `json:"outcome"`
	WinningBettorID string  `json:"winning_bettor_id,omitempty"`
	Correct         bool    `json:"correct"`
}

// Engine evaluates player actions against game state. The rng drives deck
// shuffling and the clock stamps bets; both are injectable so resolution
// order and shuffles are reproducible in tests.
type Engine struct {
	rng *rand.Rand
	now func() time.Time
}

func New(rng *rand.Rand, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}

	return &Engine{
		rng: rng,
		now: now,
	}
}
