package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/beatlinegame/beatline-backend/internal/apperror"
	"github.com/beatlinegame/beatline-backend/internal/engine"
	"github.com/beatlinegame/beatline-backend/internal/entity"
)

// GamePlayService executes the command surface of a game session. Every
// command is one atomic read-modify-write: the per-game lock makes this
// process the single writer, a rejected action is never persisted, and a
// caller racing a command observes the post-mutation state on its next
// attempt.
type GamePlayService interface {
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

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	engine        *engine.Engine

	locks gameLocks
}

func NewGamePlayService(logger *slog.Logger, playerService PlayerService, gameService GameService, gameEngine *engine.Engine) GamePlayService {
	return &gamePlayService{
		logger:        logger,
		playerService: playerService,
		gameService:   gameService,
		engine:        gameEngine,
	}
}

// gameLocks serializes writers per game id.
type gameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (that *gameLocks) lock(gameID string) func() {
	that.mu.Lock()
	if that.locks == nil {
		that.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := that.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[gameID] = lock
	}
	that.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (that *gamePlayService) CreateGame(ctx context.Context, hostID string) (*entity.Game, error) {
	host, err := that.playerService.GetPlayerByID(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if host.GameID != "" {
		return nil, fmt.Errorf("%w: player %s is already seated", apperror.ErrGameInProgress, hostID)
	}

	game, err := that.gameService.CreateGame(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.playerService.UpdatePlayer(ctx, host); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if seated := game.PlayerByID(playerID); seated != nil {
		return game, nil
	}

	if !game.IsLobby() {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameNotJoinable, gameID)
	}

	player.GameID = game.ID
	player.SeatIndex = len(game.Players)
	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	game.Players = append(game.Players, player)
	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

// AddLocalPlayer seats a pass-the-phone player controlled from the host's
// connection.
func (that *gamePlayService) AddLocalPlayer(ctx context.Context, hostID, name string) (*entity.Game, error) {
	return that.mutate(ctx, hostID, hostID, func(game *entity.Game) error {
		if !game.IsLobby() {
			return fmt.Errorf("%w: game id %s", apperror.ErrGameNotJoinable, game.ID)
		}

		if !game.IsHost(hostID) {
			return apperror.ErrHostOnly
		}

		local, err := that.playerService.CreatePlayer(ctx, name, entity.KindLocal)
		if err != nil {
			return fmt.Errorf("failed to create local player: %w", err)
		}

		local.GameID = game.ID
		local.SeatIndex = len(game.Players)
		if err = that.playerService.UpdatePlayer(ctx, local); err != nil {
			return fmt.Errorf("failed to update local player: %w", err)
		}

		game.Players = append(game.Players, local)

		return nil
	})
}

// ImportPlaylist attaches a finalized track list to the lobby. The list comes
// from the import pipeline and is trusted as-is.
func (that *gamePlayService) ImportPlaylist(ctx context.Context, sessionID string, tracks []entity.Track) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, sessionID, func(game *entity.Game) error {
		if !game.IsLobby() {
			return apperror.ErrGameInProgress
		}

		if !game.IsHost(sessionID) {
			return apperror.ErrHostOnly
		}

		game.Playlist = tracks

		return nil
	})
}

func (that *gamePlayService) StartGame(ctx context.Context, sessionID string) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, sessionID, func(game *entity.Game) error {
		return that.engine.StartGame(game, sessionID)
	})
}

func (that *gamePlayService) StartRound(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, actorID, func(game *entity.Game) error {
		return that.engine.StartRound(game, actorID)
	})
}

func (that *gamePlayService) PlaceCard(ctx context.Context, sessionID, actorID string, index int) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, actorID, func(game *entity.Game) error {
		return that.engine.PlaceCard(game, actorID, index)
	})
}

func (that *gamePlayService) SkipRound(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, actorID, func(game *entity.Game) error {
		return that.engine.SkipRound(game, actorID)
	})
}

func (that *gamePlayService) PlaceBet(ctx context.Context, sessionID, actorID string, slot int) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, actorID, func(game *entity.Game) error {
		return that.engine.PlaceBet(game, actorID, slot)
	})
}

func (that *gamePlayService) RevealCard(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, actorID, func(game *entity.Game) error {
		return that.engine.Reveal(game, actorID)
	})
}

func (that *gamePlayService) ClaimBonusToken(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, actorID, func(game *entity.Game) error {
		return that.engine.ClaimBonusToken(game, actorID)
	})
}

func (that *gamePlayService) ResolveRound(ctx context.Context, sessionID, actorID string) (*entity.Game, *engine.Resolution, error) {
	var resolution *engine.Resolution

	game, err := that.mutate(ctx, sessionID, actorID, func(game *entity.Game) error {
		res, resolveErr := that.engine.ResolveRound(game, actorID)
		if resolveErr != nil {
			return resolveErr
		}

		resolution = res

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return game, resolution, nil
}

func (that *gamePlayService) BuyAutoPlace(ctx context.Context, sessionID, actorID string) (*entity.Game, error) {
	return that.mutate(ctx, sessionID, actorID, func(game *entity.Game) error {
		return that.engine.BuyAutoPlace(game, actorID)
	})
}

func (that *gamePlayService) GetGameState(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGame
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return game, nil
}

// EndGame deletes the game document and detaches every seated player. Host
// only; the final state of a finished game stays queryable until the host
// ends it.
func (that *gamePlayService) EndGame(ctx context.Context, sessionID string) (*entity.Game, error) {
	log := that.logger.With("method", "EndGame")

	player, err := that.playerService.GetPlayerByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGame
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if !game.IsHost(sessionID) {
		return nil, apperror.ErrHostOnly
	}

	if err = that.gameService.DeleteGame(ctx, game.ID); err != nil {
		return nil, fmt.Errorf("failed to delete game: %w", err)
	}

	for _, seated := range game.Players {
		seated.GameID = ""
		if err = that.playerService.UpdatePlayer(ctx, seated); err != nil {
			log.Error("failed to detach player", "player", seated.ID, "error", err)
		}
	}

	log.Info("game ended", "gameID", game.ID)

	return game, nil
}

// mutate runs one atomic command: lock the actor's game, load it fresh,
// authorize the session for the acting seat, apply fn and persist. A failing
// fn leaves storage untouched.
func (that *gamePlayService) mutate(ctx context.Context, sessionID, actorID string, fn func(game *entity.Game) error) (*entity.Game, error) {
	actor, err := that.playerService.GetPlayerByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if actor.GameID == "" {
		return nil, apperror.ErrNoActiveGame
	}

	unlock := that.locks.lock(actor.GameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, actor.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = authorizeActor(game, sessionID, actorID); err != nil {
		return nil, err
	}

	if err = fn(game); err != nil {
		return nil, err
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

// authorizeActor checks who may drive the acting seat: a remote player only
// through their own session, a local seat only through the host's.
func authorizeActor(game *entity.Game, sessionID, actorID string) error {
	actor := game.PlayerByID(actorID)
	if actor == nil {
		return apperror.ErrNotAuthorized
	}

	if actor.ID == sessionID {
		return nil
	}

	if !actor.IsRemote() && game.IsHost(sessionID) {
		return nil
	}

	return apperror.ErrNotAuthorized
}
