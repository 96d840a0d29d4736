package entity

import "time"

const (
	PhaseLobby             = "lobby"
	PhaseAwaitingStart     = "awaiting_start"
	PhaseAwaitingPlacement = "awaiting_placement"
	PhaseAwaitingReveal    = "awaiting_reveal"
	PhaseRevealed          = "revealed"
	PhaseFinished          = "finished"
)

// GameConfig is the immutable per-game rule set, fixed at creation time.
type GameConfig struct {
	TokensEnabled bool `json:"tokens_enabled"`
	StartTokens   int  `json:"start_tokens"`
	MaxTokens     int  `json:"max_tokens"`
	WinCondition  int  `json:"win_condition"`
}

// Bet is one player's wager on a slot of the active player's timeline.
type Bet struct {
	PlayerID  string    `json:"player_id"`
	SlotIndex int       `json:"slot_index"`
	PlacedAt  time.Time `json:"placed_at"`
}

// Round is the ephemeral sub-state of a game while a drawn card is in play.
// It is discarded (set to nil on the game) once the round resolves.
type Round struct {
	Card           *Card    `json:"card"`
	ActivePlayerID string   `json:"active_player_id"`
	PlacementIndex *int     `json:"placement_index,omitempty"`
	Bets           []Bet    `json:"bets,omitempty"`
	TokenClaimers  []string `json:"token_claimers,omitempty"`
}

// BetOnSlot returns the bet occupying slot, or nil.
func (that *Round) BetOnSlot(slot int) *Bet {
	for i := range that.Bets {
		if that.Bets[i].SlotIndex == slot {
			return &that.Bets[i]
		}
	}
	return nil
}

// HasBetBy reports whether the player already placed a bet this round.
func (that *Round) HasBetBy(playerID string) bool {
	for i := range that.Bets {
		if that.Bets[i].PlayerID == playerID {
			return true
		}
	}
	return false
}

// HasClaimedToken reports whether the player already claimed the bonus token
// this round.
func (that *Round) HasClaimedToken(playerID string) bool {
	for _, id := range that.TokenClaimers {
		if id == playerID {
			return true
		}
	}
	return false
}

// Game is the full authoritative state of one session. Players, cards and the
// optional round all live inside the game document so that every action is a
// single atomic read-modify-write. The struct becomes immutable once the
// phase reaches PhaseFinished.
type Game struct {
	ID       string     `json:"id"`
	Phase    string     `json:"phase"`
	Config   GameConfig `json:"config"`
	Players  []*Player  `json:"players,omitempty"`
	Playlist []Track    `json:"playlist,omitempty"`
	Cards    []*Card    `json:"cards,omitempty"`
	Round    *Round     `json:"round,omitempty"`

	CurrentTurnSeat   int      `json:"current_turn_seat"`
	WinCheckStartSeat *int     `json:"win_check_start_seat,omitempty"`
	TiebreakPlayerIDs []string `json:"tiebreak_player_ids,omitempty"`
	WinnerID          string   `json:"winner_id,omitempty"`
}

func NewGame(id string, config GameConfig) *Game {
	return &Game{
		ID:     id,
		Phase:  PhaseLobby,
		Config: config,
	}
}

func (that *Game) IsLobby() bool          { return that.Phase == PhaseLobby }
func (that *Game) IsAwaitingStart() bool  { return that.Phase == PhaseAwaitingStart }
func (that *Game) IsAwaitingReveal() bool { return that.Phase == PhaseAwaitingReveal }
func (that *Game) IsRevealed() bool       { return that.Phase == PhaseRevealed }
func (that *Game) IsFinished() bool       { return that.Phase == PhaseFinished }

// IsRoundActive reports whether a drawn card is currently in play.
func (that *Game) IsRoundActive() bool {
	switch that.Phase {
	case PhaseAwaitingPlacement, PhaseAwaitingReveal, PhaseRevealed:
		return that.Round != nil
	default:
		return false
	}
}

// PlayerByID returns the seated player with the given id, or nil.
func (that *Game) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

// PlayerBySeat returns the player occupying the given seat, or nil.
func (that *Game) PlayerBySeat(seat int) *Player {
	for _, player := range that.Players {
		if player.SeatIndex == seat {
			return player
		}
	}
	return nil
}

// Host returns the player at seat 0. The lobby guarantees seat 0 exists for
// any created game.
func (that *Game) Host() *Player {
	return that.PlayerBySeat(0)
}

// IsHost reports whether the given player occupies seat 0.
func (that *Game) IsHost(playerID string) bool {
	host := that.Host()
	return host != nil && host.ID == playerID
}

// ActivePlayer returns the player whose turn it is, or nil.
func (that *Game) ActivePlayer() *Player {
	return that.PlayerBySeat(that.CurrentTurnSeat)
}

// DeckRemaining counts the cards still undrawn.
func (that *Game) DeckRemaining() int {
	count := 0
	for _, card := range that.Cards {
		if card.IsInDeck() {
			count++
		}
	}
	return count
}

// ReadyTrackCount counts the playlist tracks eligible to become cards.
func (that *Game) ReadyTrackCount() int {
	count := 0
	for i := range that.Playlist {
		if that.Playlist[i].IsPlayable() {
			count++
		}
	}
	return count
}

// InTiebreak reports whether play is restricted to a narrowed player set.
func (that *Game) InTiebreak() bool {
	return len(that.TiebreakPlayerIDs) > 0
}

// IsTiebreakPlayer reports whether the player is still contending. Outside a
// tiebreak every seated player contends.
func (that *Game) IsTiebreakPlayer(playerID string) bool {
	if !that.InTiebreak() {
		return true
	}
	for _, id := range that.TiebreakPlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}
