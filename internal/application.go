package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/beatlinegame/beatline-backend/internal/config"
	"github.com/beatlinegame/beatline-backend/internal/engine"
	"github.com/beatlinegame/beatline-backend/internal/entity"
	"github.com/beatlinegame/beatline-backend/internal/repository"
	"github.com/beatlinegame/beatline-backend/internal/repository/storage"
	"github.com/beatlinegame/beatline-backend/internal/service"
	"github.com/beatlinegame/beatline-backend/transport/rest"
	"github.com/beatlinegame/beatline-backend/transport/websocket"
	"github.com/beatlinegame/beatline-backend/internal/usecase"
	"golang.org/x/sync/errgroup"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	gameRepo := repository.NewGameRepository(redisStorage.Connection)

	playerService := service.NewPlayerService(playerRepo)
	gameService := service.NewGameService(gameRepo, entity.GameConfig{
		TokensEnabled: conf.Game.TokensEnabled,
		StartTokens:   conf.Game.StartTokens,
		MaxTokens:     conf.Game.MaxTokens,
		WinCondition:  conf.Game.WinCondition,
	})
	authService := service.NewAuthService(conf.JWTSecretKey)
	gamePlayService := service.NewGamePlayService(logger, playerService, gameService, engine.New(nil, nil))

	gameUseCase := usecase.NewGameUseCase(playerService, gameService, gamePlayService, authService)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restHandlers := rest.NewHandlers(logger, gameUseCase)
		if httpErr := rest.Start(groupCtx, conf.HTTPPort, restHandlers); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameUseCase)
		if wsErr := wsServer.Start(groupCtx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("Application shut down")

	return nil
}
