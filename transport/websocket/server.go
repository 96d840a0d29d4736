package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/beatlinegame/beatline-backend/internal/engine"
	"github.com/beatlinegame/beatline-backend/internal/entity"
	"github.com/beatlinegame/beatline-backend/internal/usecase"
	"github.com/gorilla/websocket"
)

// playerConn wraps a websocket connection with a write lock, since game
// updates are broadcast from whichever goroutine handled the triggering
// command.
type playerConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (that *playerConn) writeJSON(v interface{}) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type Server struct {
	logger      *slog.Logger
	gameUseCase usecase.GameUseCase
	upgrader    websocket.Upgrader

	connections      map[string]*playerConn
	connectionsMutex sync.RWMutex

	handlers map[string]func(ctx context.Context, sessionID string, msg *Message, conn *playerConn) error
}

func New(logger *slog.Logger, gameUseCase usecase.GameUseCase) *Server {
	server := &Server{
		logger:      logger,
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		connections: make(map[string]*playerConn),
	}

	server.handlers = map[string]func(context.Context, string, *Message, *playerConn) error{
		"game:new":    server.handleNewGame,
		"game:join":   server.handleJoinGame,
		"game:local":  server.handleAddLocalPlayer,
		"game:import": server.handleImportPlaylist,
		"game:start":  server.handleStartGame,
		"game:state":  server.handleGameState,
		"game:leave":  server.handleLeaveGame,

		"round:start":   server.handleStartRound,
		"round:place":   server.handlePlaceCard,
		"round:bet":     server.handlePlaceBet,
		"round:skip":    server.handleSkipRound,
		"round:reveal":  server.handleRevealCard,
		"round:claim":   server.handleClaimBonusToken,
		"round:resolve": server.handleResolveRound,
		"round:buy":     server.handleBuyAutoPlace,
	}

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  0, // connections are long-lived
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	pc := &playerConn{conn: conn}
	defer conn.Close()

	log.Info("WebSocket connection established")

	if err := that.handleMessages(ctx, pc); err != nil {
		log.Debug("connection closed", "error", err)
	}

	that.unregisterConnection(pc)
}

// handleMessages - processes messages from the client. The first action must
// be connect; every later action is authorized by its session token.
func (that *Server) handleMessages(ctx context.Context, pc *playerConn) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, data, err := pc.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		if message.Action == "connect" {
			if err = that.handleConnect(ctx, &message, pc); err != nil {
				log.Error("error processing connect", "error", err)
			}
			continue
		}

		sessionID, err := that.gameUseCase.ValidateSession(message.Token)
		if err != nil {
			log.Warn("rejected message with invalid session", "action", message.Action)
			_ = that.sendError(pc, message.Action, "invalid session token")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			_ = that.sendError(pc, message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, sessionID, &message, pc); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) registerConnection(playerID string, pc *playerConn) {
	that.connectionsMutex.Lock()
	that.connections[playerID] = pc
	that.connectionsMutex.Unlock()
}

func (that *Server) unregisterConnection(pc *playerConn) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	for playerID, connection := range that.connections {
		if connection == pc {
			delete(that.connections, playerID)
			return
		}
	}
}

// sendMessage writes an action-tagged payload to a single connection.
func (that *Server) sendMessage(pc *playerConn, action string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return pc.writeJSON(Message{
		Action:  action,
		Payload: body,
	})
}

func (that *Server) sendError(pc *playerConn, action, reason string) error {
	return that.sendMessage(pc, action, Payload{Error: reason})
}

// broadcastGame sends the masked game to every seated player with a live
// connection. Local players have no connection of their own; the host's
// screen shows their state.
func (that *Server) broadcastGame(action string, game *entity.Game, resolution *engine.Resolution) {
	log := that.logger.With("method", "broadcastGame", "gameID", game.ID)

	masked := maskGameDetails(game)

	for _, player := range game.Players {
		that.connectionsMutex.RLock()
		conn, ok := that.connections[player.ID]
		that.connectionsMutex.RUnlock()

		if !ok {
			continue
		}

		payload := Payload{
			Game:       masked,
			Resolution: resolution,
		}

		if err := that.sendMessage(conn, action, payload); err != nil {
			log.Error("failed to send game update", "playerID", player.ID, "error", err)
		}
	}
}
