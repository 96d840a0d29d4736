package usecase

import (
	"context"
	"fmt"

	"github.com/beatlinegame/beatline-backend/internal/engine"
	"github.com/beatlinegame/beatline-backend/internal/entity"
)

// GameUseCase is the facade the transports talk to. Session ids come from an
// authenticated connection; actor ids name the seat a command acts for and
// default to the session when empty.
type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID, name string) (*entity.Player, string, error)

	CreateGame(ctx context.Context, playerID string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	AddLocalPlayer(ctx context.Context, sessionID, name string) (*entity.Game, error)
	ImportPlaylist(ctx context.Context, sessionID string, tracks []entity.Track) (*entity.Game, error)
	StartGame(ctx context.Context, sessionID string) (*entity.Game, error)

	StartRound(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	PlaceCard(ctx context.Context, sessionID, actorID string, index int) (*entity.Game, error)
	SkipRound(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	PlaceBet(ctx context.Context, sessionID, actorID string, slot int) (*entity.Game, error)
	RevealCard(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	ClaimBonusToken(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	ResolveRound(ctx context.Context, sessionID, actorID string) (*entity.Game, *engine.Resolution, error)
	BuyAutoPlace(ctx context.Context, sessionID, actorID string) (*entity.Game, error)

	GetGameState(ctx context.Context, playerID string) (*entity.Game, error)
	GetGameByID(ctx context.Context, gameID string) (*entity.Game, error)
	EndGame(ctx context.Context, sessionID string) (*entity.Game, error)

	ValidateSession(token string) (string, error)
}

type playerService interface {
	CreatePlayer(ctx context.Context, name, kind string) (*entity.Player, error)
	GetPlayerByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameService interface {
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
}

type authService interface {
	GenerateToken(playerID string) (string, error)
	ValidateToken(token string) (string, error)
}

type gamePlayService interface {
	CreateGame(ctx context.Context, hostID string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	AddLocalPlayer(ctx context.Context, hostID, name string) (*entity.Game, error)
	ImportPlaylist(ctx context.Context, sessionID string, tracks []entity.Track) (*entity.Game, error)
	StartGame(ctx context.Context, sessionID string) (*entity.Game, error)
	StartRound(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	PlaceCard(ctx context.Context, sessionID, actorID string, index int) (*entity.Game, error)
	SkipRound(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	PlaceBet(ctx context.Context, sessionID, actorID string, slot int) (*entity.Game, error)
	RevealCard(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	ClaimBonusToken(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	ResolveRound(ctx context.Context, sessionID, actorID string) (*entity.Game, *engine.Resolution, error)
	BuyAutoPlace(ctx context.Context, sessionID, actorID string) (*entity.Game, error)
	GetGameState(ctx context.Context, playerID string) (*entity.Game, error)
	EndGame(ctx context.Context, sessionID string) (*entity.Game, error)
}

type gameUseCase struct {
	playerService   playerService
	gameService     gameService
	gamePlayService gamePlayService
	authService     authService
}

func NewGameUseCase(playerService playerService, gameService gameService, gamePlayService gamePlayService, authService authService) GameUseCase {
	return &gameUseCase{
		playerService:   playerService,
		gameService:     gameService,
		gamePlayService: gamePlayService,
		authService:     authService,
	}
}

// GetOrCreatePlayer resolves a connecting session to a player, creating a
// remote player (and its session token) for first-time connections.
func (that *gameUseCase) GetOrCreatePlayer(ctx context.Context, playerID, name string) (*entity.Player, string, error) {
	if playerID == "" {
		player, err := that.playerService.CreatePlayer(ctx, name, entity.KindRemote)
		if err != nil {
			return nil, "", fmt.Errorf("could not create player: %w", err)
		}

		token, err := that.authService.GenerateToken(player.ID)
		if err != nil {
			return nil, "", fmt.Errorf("could not issue session token: %w", err)
		}

		return player, token, nil
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get player by id: %w", err)
	}

	token, err := that.authService.GenerateToken(player.ID)
	if err != nil {
		return nil, "", fmt.Errorf("could not issue session token: %w", err)
	}

	return player, token, nil
}

func (that *gameUseCase) CreateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.CreateGame(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.JoinGameByID(ctx, gameID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) AddLocalPlayer(ctx context.Context, sessionID, name string) (*entity.Game, error) {
	game, err := that.gamePlayService.AddLocalPlayer(ctx, sessionID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to add local player: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) ImportPlaylist(ctx context.Context, sessionID string, tracks []entity.Track) (*entity.Game, error) {
	game, err := that.gamePlayService.ImportPlaylist(ctx, sessionID, tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to import playlist: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) StartGame(ctx context.Context, sessionID string) (*entity.Game, error) {
	game, err := that.gamePlayService.StartGame(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) StartRound(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	game, err := that.gamePlayService.StartRound(ctx, sessionID, orSession(sessionID, actorID))
	if err != nil {
		return nil, fmt.Errorf("failed to start round: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) PlaceCard(ctx context.Context, sessionID, actorID string, index int) (*entity.Game, error) {
	game, err := that.gamePlayService.PlaceCard(ctx, sessionID, orSession(sessionID, actorID), index)
	if err != nil {
		return nil, fmt.Errorf("failed to place card: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) SkipRound(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	game, err := that.gamePlayService.SkipRound(ctx, sessionID, orSession(sessionID, actorID))
	if err != nil {
		return nil, fmt.Errorf("failed to skip round: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) PlaceBet(ctx context.Context, sessionID, actorID string, slot int) (*entity.Game, error) {
	game, err := that.gamePlayService.PlaceBet(ctx, sessionID, orSession(sessionID, actorID), slot)
	if err != nil {
		return nil, fmt.Errorf("failed to place bet: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) RevealCard(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	game, err := that.gamePlayService.RevealCard(ctx, sessionID, orSession(sessionID, actorID))
	if err != nil {
		return nil, fmt.Errorf("failed to reveal card: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) ClaimBonusToken(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	game, err := that.gamePlayService.ClaimBonusToken(ctx, sessionID, orSession(sessionID, actorID))
	if err != nil {
		return nil, fmt.Errorf("failed to claim bonus token: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) ResolveRound(ctx context.Context, sessionID, actorID string) (*entity.Game, *engine.Resolution, error) {
	game, resolution, err := that.gamePlayService.ResolveRound(ctx, sessionID, orSession(sessionID, actorID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve round: %w", err)
	}

	return game, resolution, nil
}

func (that *gameUseCase) BuyAutoPlace(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	game, err := that.gamePlayService.BuyAutoPlace(ctx, sessionID, orSession(sessionID, actorID))
	if err != nil {
		return nil, fmt.Errorf("failed to buy auto-place: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) GetGameState(ctx context.Context, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.GetGameState(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) GetGameByID(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) EndGame(ctx context.Context, sessionID string) (*entity.Game, error) {
	game, err := that.gamePlayService.EndGame(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to end game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) ValidateSession(token string) (string, error) {
	playerID, err := that.authService.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("failed to validate session: %w", err)
	}

	return playerID, nil
}

// orSession defaults the acting seat to the session's own player.
func orSession(sessionID, actorID string) string {
	if actorID == "" {
		return sessionID
	}
	return actorID
}
