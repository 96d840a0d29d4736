package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/beatlinegame/beatline-backend/internal/entity"
)

func unmarshalPayload(msg *Message) (*Payload, error) {
	var payload Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	return &payload, nil
}

// handleConnect resolves (or creates) the player behind the connection and
// hands back a session token plus the current game state if they are already
// seated somewhere.
func (that *Server) handleConnect(ctx context.Context, msg *Message, pc *playerConn) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	var playerID, name string
	if payloadReq.Player != nil {
		playerID = payloadReq.Player.ID
		name = payloadReq.Player.Name
	}

	player, token, err := that.gameUseCase.GetOrCreatePlayer(ctx, playerID, name)
	if err != nil {
		log.Error("failed to create or get player", "error", err)
		return that.sendError(pc, msg.Action, "failed to create a new player")
	}

	that.registerConnection(player.ID, pc)

	payloadResp := Payload{
		You: &PlayerResponse{
			ID:   player.ID,
			Name: player.Name,
			Kind: player.Kind,
		},
		Token: token,
	}

	if player.GameID != "" {
		game, gameErr := that.gameUseCase.GetGameState(ctx, player.ID)
		if gameErr != nil {
			log.Error("failed to get game", "gameID", player.GameID, "error", gameErr)
		} else {
			payloadResp.Game = maskGameDetails(game)
		}
	}

	if err = that.sendMessage(pc, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	game, err := that.gameUseCase.CreateGame(ctx, sessionID)
	if err != nil {
		that.logger.Error("failed to create game", "error", err)
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.GameID == "" {
		return that.sendError(pc, msg.Action, "game_id is required")
	}

	game, err := that.gameUseCase.JoinGame(ctx, payloadReq.GameID, sessionID)
	if err != nil {
		that.logger.Error("failed to join game", "gameID", payloadReq.GameID, "error", err)
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

func (that *Server) handleAddLocalPlayer(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Name == "" {
		return that.sendError(pc, msg.Action, "name is required")
	}

	game, err := that.gameUseCase.AddLocalPlayer(ctx, sessionID, payloadReq.Name)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

func (that *Server) handleImportPlaylist(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if len(payloadReq.Tracks) == 0 {
		return that.sendError(pc, msg.Action, "tracks are required")
	}

	game, err := that.gameUseCase.ImportPlaylist(ctx, sessionID, payloadReq.Tracks)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

func (that *Server) handleStartGame(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	game, err := that.gameUseCase.StartGame(ctx, sessionID)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

func (that *Server) handleGameState(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	game, err := that.gameUseCase.GetGameState(ctx, sessionID)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	return that.sendMessage(pc, msg.Action, Payload{Game: maskGameDetails(game)})
}

func (that *Server) handleLeaveGame(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	game, err := that.gameUseCase.EndGame(ctx, sessionID)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

func (that *Server) handleStartRound(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	return that.roundCommand(ctx, sessionID, msg, pc, func(actorID string) (*entity.Game, error) {
		return that.gameUseCase.StartRound(ctx, sessionID, actorID)
	})
}

func (that *Server) handlePlaceCard(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Index == nil {
		return that.sendError(pc, msg.Action, "index is required")
	}

	game, err := that.gameUseCase.PlaceCard(ctx, sessionID, payloadReq.ActorID, *payloadReq.Index)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

func (that *Server) handlePlaceBet(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Slot == nil {
		return that.sendError(pc, msg.Action, "slot is required")
	}

	game, err := that.gameUseCase.PlaceBet(ctx, sessionID, payloadReq.ActorID, *payloadReq.Slot)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

func (that *Server) handleSkipRound(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	return that.roundCommand(ctx, sessionID, msg, pc, func(actorID string) (*entity.Game, error) {
		return that.gameUseCase.SkipRound(ctx, sessionID, actorID)
	})
}

func (that *Server) handleRevealCard(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	return that.roundCommand(ctx, sessionID, msg, pc, func(actorID string) (*entity.Game, error) {
		return that.gameUseCase.RevealCard(ctx, sessionID, actorID)
	})
}

func (that *Server) handleClaimBonusToken(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	return that.roundCommand(ctx, sessionID, msg, pc, func(actorID string) (*entity.Game, error) {
		return that.gameUseCase.ClaimBonusToken(ctx, sessionID, actorID)
	})
}

func (that *Server) handleResolveRound(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	game, resolution, err := that.gameUseCase.ResolveRound(ctx, sessionID, payloadReq.ActorID)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, resolution)

	return nil
}

func (that *Server) handleBuyAutoPlace(ctx context.Context, sessionID string, msg *Message, pc *playerConn) error {
	return that.roundCommand(ctx, sessionID, msg, pc, func(actorID string) (*entity.Game, error) {
		return that.gameUseCase.BuyAutoPlace(ctx, sessionID, actorID)
	})
}

// roundCommand factors the shared shape of argument-less round actions:
// unmarshal the optional actor, run the command, broadcast or report.
func (that *Server) roundCommand(_ context.Context, _ string, msg *Message, pc *playerConn, run func(actorID string) (*entity.Game, error)) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	game, err := run(payloadReq.ActorID)
	if err != nil {
		return that.sendError(pc, msg.Action, reason(err))
	}

	that.broadcastGame(msg.Action, game, nil)

	return nil
}

// reason extracts the innermost rejection for the client; the wrapping
// prefixes are server-side context the player does not need.
func reason(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}
