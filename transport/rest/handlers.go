package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

type stateProvider interface {
	State(ctx context.Context) (protocol.GameStatePayload, error)
}

type stateHandler struct {
	logger *slog.Logger
	state  stateProvider
}

func newStateHandler(logger *slog.Logger, state stateProvider) *stateHandler {
	return &stateHandler{logger: logger.With("method", "stateHandler"), state: state}
}

// ServeHTTP - the same payload the server broadcasts as gameState.
func (that *stateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state, err := that.state.State(r.Context())
	if err != nil {
		that.logger.Error("failed to read state", "error", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(state); err != nil {
		that.logger.Error("failed to write state", "error", err)
	}
}
