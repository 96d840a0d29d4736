package service

import (
	"context"
	"fmt"

	"github.com/beatlinegame/beatline-backend/internal/entity"
	"github.com/beatlinegame/beatline-backend/internal/pkg"
)

type GameService interface {
	CreateGame(ctx context.Context, host *entity.Player) (*entity.Game, error)
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	UpdateGame(ctx context.Context, game *entity.Game) error
	DeleteGame(ctx context.Context, gameID string) error
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type gameService struct {
	gameRepo gameRepo
	defaults entity.GameConfig
}

func NewGameService(gameRepo gameRepo, defaults entity.GameConfig) GameService {
	return &gameService{
		gameRepo: gameRepo,
		defaults: defaults,
	}
}

// CreateGame opens a new lobby with the given player seated as host (seat 0).
func (that *gameService) CreateGame(ctx context.Context, host *entity.Player) (*entity.Game, error) {
	game := entity.NewGame(pkg.GenerateGameID(), that.defaults)

	host.GameID = game.ID
	host.SeatIndex = 0
	game.Players = []*entity.Player{host}

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game from storage: %w", err)
	}

	return game, nil
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}
	return game, nil
}

func (that *gameService) UpdateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (that *gameService) DeleteGame(ctx context.Context, gameID string) error {
	if err := that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}
