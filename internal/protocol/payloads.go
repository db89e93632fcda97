package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

const SymbolSpectator = "spectator"

// WinnerDraw is the winner value sent when the board filled up without a line.
const WinnerDraw = "Draw"

type AssignPlayerPayload struct {
	Symbol string `json:"symbol"`
}

// NewAssignPlayerPayload - anything that is not a player role, a registered relay included,
// is reported as a spectator.
func NewAssignPlayerPayload(role entity.Role) AssignPlayerPayload {
	if mark, ok := role.Mark(); ok {
		return AssignPlayerPayload{Symbol: string(mark)}
	}
	return AssignPlayerPayload{Symbol: SymbolSpectator}
}

// GameStatePayload is the full-state broadcast. Empty cells and an unfinished game are null.
type GameStatePayload struct {
	Board         [entity.BoardSize]*string `json:"board"`
	CurrentPlayer string                    `json:"currentPlayer"`
	Winner        *string                   `json:"winner"`
}

func NewGameStatePayload(state *entity.GameState) GameStatePayload {
	var payload GameStatePayload

	for i, cell := range state.Board {
		if cell != entity.EmptyCell {
			mark := string(cell)
			payload.Board[i] = &mark
		}
	}

	payload.CurrentPlayer = string(state.CurrentPlayer)

	if state.IsFinished() {
		winner := string(state.Outcome)
		payload.Winner = &winner
	}

	return payload
}

// Cells - the board as marks.
func (that GameStatePayload) Cells() [entity.BoardSize]entity.Mark {
	var cells [entity.BoardSize]entity.Mark
	for i, cell := range that.Board {
		if cell != nil {
			cells[i] = entity.Mark(*cell)
		}
	}
	return cells
}

// WinnerValue returns the winner or "" while the game is in progress.
func (that GameStatePayload) WinnerValue() string {
	if that.Winner == nil {
		return ""
	}
	return *that.Winner
}

// MakeMovePayload accepts both {"index": n} and a bare number.
type MakeMovePayload struct {
	Index int `json:"index"`
}

func (that *MakeMovePayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrMissingIndex
	}
	if trimmed[0] != '{' {
		return json.Unmarshal(trimmed, &that.Index)
	}

	var p struct {
		Index *int `json:"index"`
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	if p.Index == nil {
		return ErrMissingIndex
	}
	that.Index = *p.Index

	return nil
}
