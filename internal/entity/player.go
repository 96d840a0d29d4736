package entity

import (
	"fmt"

	"github.com/beatlinegame/beatline-backend/internal/apperror"
)

const (
	// KindLocal seats are controlled from the host's connection (pass-the-phone
	// players); KindRemote seats act through their own authenticated session.
	KindLocal  = "local"
	KindRemote = "remote"
)

// Player is a seated participant of a game. SeatIndex is the 0-indexed turn
// order and stays stable for the lifetime of the game. Timeline is the
// player's personal chronological sequence of won cards, ordered by
// construction: the slice index is the position and InsertCard keeps release
// years non-decreasing.
type Player struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	GameID    string  `json:"game_id,omitempty"`
	SeatIndex int     `json:"seat_index"`
	Kind      string  `json:"kind,omitempty"`
	Tokens    int     `json:"tokens"`
	Timeline  []*Card `json:"timeline,omitempty"`
}

func (that *Player) IsRemote() bool {
	return that.Kind == KindRemote
}

// TimelineYears returns the release years of the player's timeline in order.
func (that *Player) TimelineYears() []int {
	years := make([]int, len(that.Timeline))
	for i, card := range that.Timeline {
		years[i] = card.ReleaseYear
	}
	return years
}

// InsertCard places card at index, shifting later entries right. The card
// becomes owned by the player and enters the timeline state.
func (that *Player) InsertCard(index int, card *Card) error {
	if index < 0 || index > len(that.Timeline) {
		return fmt.Errorf("%w: index %d", apperror.ErrInvalidSlot, index)
	}

	card.State = CardStateTimeline
	card.OwnerPlayerID = that.ID
	card.DeckOrder = nil

	that.Timeline = append(that.Timeline, nil)
	copy(that.Timeline[index+1:], that.Timeline[index:])
	that.Timeline[index] = card

	return nil
}

// HasTokens is a pure check, used to gate actions before any mutation.
func (that *Player) HasTokens(n int) bool {
	return that.Tokens >= n
}

// SpendTokens removes n tokens or fails; it never clamps.
func (that *Player) SpendTokens(n int) error {
	if that.Tokens < n {
		return fmt.Errorf("%w: have %d, need %d", apperror.ErrInsufficientTokens, that.Tokens, n)
	}

	that.Tokens -= n

	return nil
}

// EarnTokens adds n tokens or fails when the cap would be exceeded; the
// action is rejected outright, there is no partial credit.
func (that *Player) EarnTokens(n, maxTokens int) error {
	if that.Tokens+n > maxTokens {
		return fmt.Errorf("%w: have %d, cap %d", apperror.ErrTokenCapReached, that.Tokens, maxTokens)
	}

	that.Tokens += n

	return nil
}
