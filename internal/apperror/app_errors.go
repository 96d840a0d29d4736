package apperror

import "errors"

// Authorization errors: rejected before any state mutation.
var (
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrHostOnly      = errors.New("only the host can do this")
	ErrNotAuthorized = errors.New("not authorized to act for this seat")
)

// Phase-precondition errors: the action is not valid for the current phase.
var (
	ErrWrongPhase      = errors.New("action is not valid in the current phase")
	ErrGameNotStarted  = errors.New("game is not started")
	ErrGameFinished    = errors.New("game is already finished")
	ErrGameInProgress  = errors.New("game is already in progress")
	ErrNoActiveGame    = errors.New("player is not in a game")
	ErrNothingToReveal = errors.New("no card has been placed yet")
)

// Resource-precondition errors: rejected synchronously, state untouched.
var (
	ErrInsufficientTokens = errors.New("not enough tokens")
	ErrTokenCapReached    = errors.New("token cap reached")
	ErrTokensDisabled     = errors.New("token economy is disabled")
	ErrSlotAlreadyBet     = errors.New("slot already has a bet")
	ErrAlreadyBet         = errors.New("player already placed a bet this round")
	ErrAlreadyClaimed     = errors.New("bonus token already claimed this round")
	ErrActiveCannotBet    = errors.New("active player cannot bet on their own card")
	ErrInvalidSlot        = errors.New("invalid timeline slot index")
	ErrNotEnoughPlayers   = errors.New("not enough players to start the game")
	ErrNotEnoughTracks    = errors.New("not enough ready tracks to start the game")
	ErrGameNotJoinable    = errors.New("game can no longer be joined")
)

// ErrCorruptState marks invariant violations: a seat, card or timeline lookup
// failed for an id that is known to exist. These are internal bugs, never a
// user-facing rejection.
var ErrCorruptState = errors.New("internal: game state is inconsistent")
