package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

// MakeTurn - places mark on cell if the move is legal, recomputes the outcome and passes the turn.
// On error the state is left untouched.
func MakeTurn(state *entity.GameState, mark entity.Mark, cell int) error {
	if state.IsFinished() {
		return apperror.ErrGameFinished
	}

	if err := validateMove(state, mark, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	state.Board[cell] = mark
	state.UpdateGameState()
	state.CurrentPlayer = entity.Opponent(mark)

	return nil
}

// Reset - puts state back to the initial position.
func Reset(state *entity.GameState) {
	*state = *entity.NewGameState()
}

// validateMove - checks if the move is valid.
func validateMove(state *entity.GameState, mark entity.Mark, cell int) error {
	if cell < 0 || cell >= len(state.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if state.CurrentPlayer != mark {
		return apperror.ErrNotYourTurn
	}

	if state.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}
