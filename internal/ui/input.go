package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

var (
	ErrInvalidFormat = errors.New("invalid format, use row,col (e.g. 1,3)")
	ErrOutOfRange    = errors.New("row and column must be numbers between 1 and 3")
)

const commandReset = "reset"

type CommandKind int

const (
	CommandMove CommandKind = iota + 1
	CommandReset
)

type Command struct {
	Kind  CommandKind
	Index int
}

// ParseCommand - "reset" or a 1-based "row,col".
func ParseCommand(input string) (Command, error) {
	input = strings.TrimSpace(input)

	if strings.EqualFold(input, commandReset) {
		return Command{Kind: CommandReset}, nil
	}

	index, err := ParsePosition(input)
	if err != nil {
		return Command{}, err
	}

	return Command{Kind: CommandMove, Index: index}, nil
}

// ParsePosition - maps a 1-based "row,col" to a board index.
func ParsePosition(input string) (int, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return 0, ErrInvalidFormat
	}

	row, rowErr := strconv.Atoi(strings.TrimSpace(parts[0]))
	col, colErr := strconv.Atoi(strings.TrimSpace(parts[1]))
	if rowErr != nil || colErr != nil || row < 1 || row > 3 || col < 1 || col > 3 {
		return 0, ErrOutOfRange
	}

	return (row-1)*3 + (col - 1), nil
}

// IsMyTurn - the client may only move when the game is running and it holds the current mark.
func IsMyTurn(state *protocol.GameStatePayload, symbol string) bool {
	if state == nil || symbol == "" {
		return false
	}
	return state.CurrentPlayer == symbol && state.Winner == nil
}

func cellTaken(state *protocol.GameStatePayload, index int) bool {
	return state != nil && state.Cells()[index] != entity.EmptyCell
}
