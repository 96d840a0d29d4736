package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/beatlinegame/beatline-backend/internal/entity"
	"github.com/go-chi/chi/v5"
)

type Handlers interface {
	Ping(w http.ResponseWriter, r *http.Request)
	GetGame(w http.ResponseWriter, r *http.Request)
}

type gameReader interface {
	GetGameByID(ctx context.Context, gameID string) (*entity.Game, error)
}

type handlers struct {
	logger *slog.Logger
	games  gameReader
}

func NewHandlers(logger *slog.Logger, games gameReader) Handlers {
	return &handlers{
		logger: logger,
		games:  games,
	}
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type gameView struct {
	ID              string       `json:"id"`
	Phase           string       `json:"phase"`
	CurrentTurnSeat int          `json:"current_turn_seat"`
	DeckRemaining   int          `json:"deck_remaining"`
	WinnerID        string       `json:"winner_id,omitempty"`
	Players         []playerView `json:"players"`
	RoundCard       *cardView    `json:"round_card,omitempty"`
}

type playerView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	SeatIndex int        `json:"seat_index"`
	Tokens    int        `json:"tokens"`
	Timeline  []cardView `json:"timeline"`
}

type cardView struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ReleaseYear int    `json:"release_year"`
}

// GetGame serves a read-only snapshot. The round card is part of the view
// only once the round has been revealed.
func (that *handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetGame")

	gameID := chi.URLParam(r, "gameID")

	game, err := that.games.GetGameByID(r.Context(), gameID)
	if err != nil {
		log.Debug("game not found", "gameID", gameID, "error", err)
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	view := gameView{
		ID:              game.ID,
		Phase:           game.Phase,
		CurrentTurnSeat: game.CurrentTurnSeat,
		DeckRemaining:   game.DeckRemaining(),
		WinnerID:        game.WinnerID,
		Players:         make([]playerView, 0, len(game.Players)),
	}

	for _, player := range game.Players {
		timeline := make([]cardView, 0, len(player.Timeline))
		for _, card := range player.Timeline {
			timeline = append(timeline, cardView{
				Title:       card.Title,
				Artist:      card.Artist,
				ReleaseYear: card.ReleaseYear,
			})
		}

		view.Players = append(view.Players, playerView{
			ID:        player.ID,
			Name:      player.Name,
			SeatIndex: player.SeatIndex,
			Tokens:    player.Tokens,
			Timeline:  timeline,
		})
	}

	if game.IsRevealed() && game.Round != nil && game.Round.Card != nil {
		view.RoundCard = &cardView{
			Title:       game.Round.Card.Title,
			Artist:      game.Round.Card.Artist,
			ReleaseYear: game.Round.Card.ReleaseYear,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(view); err != nil {
		log.Error("failed to encode game view", "error", err)
	}
}
