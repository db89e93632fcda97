package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type Server struct {
	logger  *slog.Logger
	handler http.Handler
}

// New - state may be nil, then /state is not served.
func New(logger *slog.Logger, state stateProvider, metrics http.Handler) *Server {
	log := logger.With("component", "rest")

	router := mux.NewRouter()
	router.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)
	router.Handle("/metrics", metrics).Methods(http.MethodGet)

	if state != nil {
		router.Handle("/state", newStateHandler(log, state)).Methods(http.MethodGet)
	}

	return &Server{logger: log, handler: router}
}

func (that *Server) Handler() http.Handler {
	return that.handler
}

// Start - binds addr and serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      that.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down", "error", err)
		}
	}()

	that.logger.Info("HTTP server listening", "addr", listener.Addr().String())

	if err = srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
