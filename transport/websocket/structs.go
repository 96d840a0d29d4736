package websocket

import (
	"encoding/json"

	"github.com/beatlinegame/beatline-backend/internal/engine"
	"github.com/beatlinegame/beatline-backend/internal/entity"
)

// Message represents a WebSocket message with an action type, the session
// token of the sender and a payload.
type Message struct {
	Action  string          `json:"action"`
	Token   string          `json:"token,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is the request/response body shared by all actions. Requests fill
// the fields their action needs; responses carry the player, the masked game
// and, for resolve, the resolution outcome.
type Payload struct {
	Player     *PlayerRequest     `json:"player,omitempty"`
	GameID     string             `json:"game_id,omitempty"`
	ActorID    string             `json:"actor_id,omitempty"`
	Name       string             `json:"name,omitempty"`
	Index      *int               `json:"index,omitempty"`
	Slot       *int               `json:"slot,omitempty"`
	Tracks     []entity.Track     `json:"tracks,omitempty"`
	Token      string             `json:"token,omitempty"`
	Game       *GameResponse      `json:"game,omitempty"`
	You        *PlayerResponse    `json:"you,omitempty"`
	Resolution *engine.Resolution `json:"resolution,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type PlayerRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type GameResponse struct {
	ID                string           `json:"id"`
	Phase             string           `json:"phase"`
	CurrentTurnSeat   int              `json:"current_turn_seat"`
	DeckRemaining     int              `json:"deck_remaining"`
	WinnerID          string           `json:"winner_id,omitempty"`
	TiebreakPlayerIDs []string         `json:"tiebreak_player_ids,omitempty"`
	Players           []PlayerResponse `json:"players"`
	Round             *RoundResponse   `json:"round,omitempty"`
}

type PlayerResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	SeatIndex int            `json:"seat_index"`
	Kind      string         `json:"kind,omitempty"`
	Tokens    int            `json:"tokens"`
	Timeline  []CardResponse `json:"timeline"`
}

type CardResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ReleaseYear int    `json:"release_year"`
}

type RoundResponse struct {
	ActivePlayerID string        `json:"active_player_id"`
	PlacementIndex *int          `json:"placement_index,omitempty"`
	Card           *CardResponse `json:"card,omitempty"`
	Bets           []BetResponse `json:"bets,omitempty"`
	TokenClaimers  []string      `json:"token_claimers,omitempty"`
}

// BetResponse never exposes more than who bet on which slot.
type BetResponse struct {
	PlayerID  string `json:"player_id"`
	SlotIndex int    `json:"slot_index"`
}

// maskGameDetails projects a game onto the wire shape. Timelines are public;
// the round card's identity and year stay hidden until the round is revealed.
func maskGameDetails(game *entity.Game) *GameResponse {
	response := &GameResponse{
		ID:                game.ID,
		Phase:             game.Phase,
		CurrentTurnSeat:   game.CurrentTurnSeat,
		DeckRemaining:     game.DeckRemaining(),
		WinnerID:          game.WinnerID,
		TiebreakPlayerIDs: game.TiebreakPlayerIDs,
		Players:           make([]PlayerResponse, 0, len(game.Players)),
	}

	for _, player := range game.Players {
		timeline := make([]CardResponse, 0, len(player.Timeline))
		for _, card := range player.Timeline {
			timeline = append(timeline, maskCard(card))
		}

		response.Players = append(response.Players, PlayerResponse{
			ID:        player.ID,
			Name:      player.Name,
			SeatIndex: player.SeatIndex,
			Kind:      player.Kind,
			Tokens:    player.Tokens,
			Timeline:  timeline,
		})
	}

	if game.Round != nil {
		round := &RoundResponse{
			ActivePlayerID: game.Round.ActivePlayerID,
			PlacementIndex: game.Round.PlacementIndex,
			TokenClaimers:  game.Round.TokenClaimers,
		}

		for _, bet := range game.Round.Bets {
			round.Bets = append(round.Bets, BetResponse{
				PlayerID:  bet.PlayerID,
				SlotIndex: bet.SlotIndex,
			})
		}

		if game.IsRevealed() && game.Round.Card != nil {
			card := maskCard(game.Round.Card)
			round.Card = &card
		}

		response.Round = round
	}

	return response
}

func maskCard(card *entity.Card) CardResponse {
	return CardResponse{
		ID:          card.ID,
		Title:       card.Title,
		Artist:      card.Artist,
		ReleaseYear: card.ReleaseYear,
	}
}
