package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

const mirrorQueueSize = 64

var ErrServerStopped = errors.New("websocket server stopped")

type gameManager interface {
	Connect(connID string) entity.Role
	RegisterRelay(connID string) (entity.Mark, bool)
	MakeMove(connID string, cell int) error
	Reset()
	Disconnect(connID string)
	State() *entity.GameState
}

// stateMirror receives every broadcast state. It is never read back by the server.
type stateMirror interface {
	SaveState(ctx context.Context, state protocol.GameStatePayload) error
}

type inboundMessage struct {
	conn *conn
	msg  *protocol.Message
}

// Server - the authoritative game server. One hub goroutine (Run) owns the game manager
// and the set of open connections; pumps talk to it through channels only.
type Server struct {
	logger   *slog.Logger
	manager  gameManager
	metrics  *metrics.Metrics
	mirror   stateMirror
	upgrader websocket.Upgrader

	register     chan *conn
	unregister   chan *conn
	inbound      chan inboundMessage
	stateQueries chan chan protocol.GameStatePayload
	mirrorQueue  chan protocol.GameStatePayload
	done         chan struct{}

	conns    map[string]*conn
	handlers map[string]func(c *conn, msg *protocol.Message)
}

// New - mirror may be nil.
func New(logger *slog.Logger, manager gameManager, m *metrics.Metrics, mirror stateMirror) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket_server"),
		manager: manager,
		metrics: m,
		mirror:  mirror,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		register:     make(chan *conn),
		unregister:   make(chan *conn),
		inbound:      make(chan inboundMessage, 256),
		stateQueries: make(chan chan protocol.GameStatePayload),
		mirrorQueue:  make(chan protocol.GameStatePayload, mirrorQueueSize),
		done:         make(chan struct{}),

		conns:    make(map[string]*conn),
		handlers: make(map[string]func(*conn, *protocol.Message)),
	}

	server.handlers[protocol.ActionMakeMove] = server.handleMakeMove
	server.handlers[protocol.ActionResetGame] = server.handleResetGame
	server.handlers[protocol.ActionRegisterServer] = server.handleRegisterServer

	return server
}

// Handler - the websocket endpoint, mounted at /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)
	return mux
}

// Start - binds addr, then runs the hub and serves until ctx is canceled.
// A bind failure is returned before anything is served.
func (that *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	return that.Serve(ctx, listener)
}

func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr().String())

	srv := &http.Server{
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go that.Run(ctx)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down", "error", err)
		}
	}()

	log.Info("WebSocket server listening")

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// State - the current game state, read through the hub.
func (that *Server) State(ctx context.Context) (protocol.GameStatePayload, error) {
	reply := make(chan protocol.GameStatePayload, 1)

	select {
	case that.stateQueries <- reply:
	case <-that.done:
		return protocol.GameStatePayload{}, ErrServerStopped
	case <-ctx.Done():
		return protocol.GameStatePayload{}, ctx.Err()
	}

	select {
	case state := <-reply:
		return state, nil
	case <-ctx.Done():
		return protocol.GameStatePayload{}, ctx.Err()
	}
}

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newConn(uuid.NewString(), ws)

	select {
	case that.register <- c:
	case <-that.done:
		_ = ws.Close()
		return
	}

	log.Debug("WebSocket connection established", "connID", c.id, "remote", req.RemoteAddr)

	go c.writePump()
	go c.readPump(that, log.With("connID", c.id))
}
