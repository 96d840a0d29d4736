package entity

const (
	CardStateDeck      = "deck"
	CardStateInRound   = "in_round"
	CardStateTimeline  = "timeline"
	CardStateDiscarded = "discarded"
)

// Track is a single entry of a finalized, imported playlist. Only tracks that
// are ready (matched against a catalog and carrying a release year) are
// eligible to become cards.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ReleaseYear int    `json:"release_year"`
	Ready       bool   `json:"ready"`
}

// IsPlayable reports whether the track may be turned into a card.
func (that *Track) IsPlayable() bool {
	return that.Ready && that.ReleaseYear > 0
}

// Card is a playable song card. A card is in exactly one state at a time;
// DeckOrder is set only while the card is still in the deck and defines the
// draw order among undrawn cards.
type Card struct {
	ID            string `json:"id"`
	TrackID       string `json:"track_id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	ReleaseYear   int    `json:"release_year"`
	State         string `json:"state"`
	OwnerPlayerID string `json:"owner_player_id,omitempty"`
	DeckOrder     *int   `json:"deck_order,omitempty"`
}

func (that *Card) IsInDeck() bool {
	return that.State == CardStateDeck
}
