// Package relay accepts client connections and pairs each one with its own upstream
// connection to the game server.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-relay/transport/wsclient"
)

type Options struct {
	UpstreamURL string
	Dial        wsclient.Options
	// RegisterUpstream makes every upstream give up its player slot right after connecting.
	RegisterUpstream bool
}

type Server struct {
	logger   *slog.Logger
	opts     Options
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

func New(logger *slog.Logger, opts Options, m *metrics.Metrics) *Server {
	return &Server{
		logger:  logger.With("component", "relay"),
		opts:    opts,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// Handler - the downstream endpoint at /ws. Sessions end when ctx is canceled.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(writer http.ResponseWriter, req *http.Request) {
		that.serveWS(ctx, writer, req)
	})
	return mux
}

// Start - binds addr and serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	log := that.logger.With("method", "Start", "addr", listener.Addr().String())

	srv := &http.Server{
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down", "error", err)
		}
	}()

	log.Info("relay listening", "upstream", that.opts.UpstreamURL)

	if err = srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Sessions - number of live sessions.
func (that *Server) Sessions() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.sessions)
}

func (that *Server) serveWS(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	downstream, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	s := &session{
		id:         uuid.NewString(),
		downstream: downstream,
		opts:       that.opts,
		metrics:    that.metrics,
	}
	s.logger = that.logger.With("sessionID", s.id)

	that.track(s)
	defer that.untrack(s)

	s.run(ctx)
}

func (that *Server) track(s *session) {
	that.mu.Lock()
	that.sessions[s.id] = s
	that.mu.Unlock()

	that.metrics.RelaySessions.Inc()
	s.logger.Info("session opened")
}

func (that *Server) untrack(s *session) {
	that.mu.Lock()
	delete(that.sessions, s.id)
	that.mu.Unlock()

	that.metrics.RelaySessions.Dec()
	s.logger.Info("session closed")
}
