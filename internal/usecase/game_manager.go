package usecase

import (
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
)

// GameManager owns the game state, the slot table and the role of every open connection.
// It does no I/O and no locking: exactly one goroutine may call it.
type GameManager struct {
	logger *slog.Logger

	state       *entity.GameState
	slots       *entity.SlotTable
	connections map[string]*entity.Connection
	relayID     string
}

func NewGameManager(logger *slog.Logger) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		state:       entity.NewGameState(),
		slots:       entity.NewSlotTable(),
		connections: make(map[string]*entity.Connection),
	}
}

// Connect - registers a new connection and assigns it the first free player role, or spectator.
func (that *GameManager) Connect(connID string) entity.Role {
	log := that.logger.With("method", "Connect", "connID", connID)

	role := entity.RoleSpectator
	if mark, ok := that.slots.Claim(connID); ok {
		role = entity.RoleFor(mark)
	}

	that.connections[connID] = &entity.Connection{ID: connID, Role: role}

	log.Info("connection assigned", "role", role)

	return role
}

// RegisterRelay - tags the connection as the relay and frees the player slot it held, if any.
// The returned mark is the revoked slot.
func (that *GameManager) RegisterRelay(connID string) (entity.Mark, bool) {
	log := that.logger.With("method", "RegisterRelay", "connID", connID)

	conn, ok := that.connections[connID]
	if !ok {
		log.Warn("relay registration from unknown connection")
		return entity.EmptyCell, false
	}

	that.relayID = connID

	mark, held := conn.RegisterAsRelay()
	if !held {
		log.Info("relay registered")
		return entity.EmptyCell, false
	}

	that.slots.Release(connID)
	log.Info("relay registered, player slot revoked", "slot", mark)

	return mark, true
}

// MakeMove - applies a move for the connection. A nil error means the state changed and
// must be broadcast. Every error is a rejected intent and leaves the state untouched.
func (that *GameManager) MakeMove(connID string, cell int) error {
	mark, ok := that.slots.Holds(connID)
	if !ok {
		return apperror.ErrNoPlayerSlot
	}

	if err := tictactoe.MakeTurn(that.state, mark, cell); err != nil {
		return fmt.Errorf("move by %s rejected: %w", mark, err)
	}

	if that.state.IsFinished() {
		that.logger.Info("game finished", "outcome", that.state.Outcome)
	}

	return nil
}

// Reset - puts the game back to its initial state. Anyone may reset at any time.
func (that *GameManager) Reset() {
	tictactoe.Reset(that.state)
	that.logger.Info("game reset")
}

// Disconnect - forgets the connection, freeing its slot and relay registration.
func (that *GameManager) Disconnect(connID string) {
	log := that.logger.With("method", "Disconnect", "connID", connID)

	if mark, ok := that.slots.Release(connID); ok {
		log.Info("player slot is now open", "slot", mark)
	}

	if that.relayID == connID {
		that.relayID = ""
		log.Info("registered relay disconnected")
	}

	delete(that.connections, connID)
}

// State returns a copy of the current game state.
func (that *GameManager) State() *entity.GameState {
	return that.state.Clone()
}

func (that *GameManager) Role(connID string) (entity.Role, bool) {
	conn, ok := that.connections[connID]
	if !ok {
		return "", false
	}
	return conn.Role, true
}

func (that *GameManager) RegisteredRelay() (string, bool) {
	return that.relayID, that.relayID != ""
}

func (that *GameManager) Occupant(mark entity.Mark) (string, bool) {
	return that.slots.Occupant(mark)
}

func (that *GameManager) ConnectionCount() int {
	return len(that.connections)
}
