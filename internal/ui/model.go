// Package ui is the terminal client: it renders the board and turns typed commands into
// protocol messages.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

// Conn - what the client needs from a server connection.
type Conn interface {
	Send(data []byte) error
	Messages() <-chan []byte
	Close()
}

// Dialer connects to the server, retrying as configured.
type Dialer func(ctx context.Context) (Conn, error)

// maxReconnects bounds redials after losing a live connection. A state update resets it.
const maxReconnects = 5

type phase int

const (
	phaseConnecting phase = iota
	phasePlaying
	phaseReconnecting
)

type (
	connectedMsg     struct{ conn Conn }
	connectFailedMsg struct{ err error }
	frameMsg         struct{ data []byte }
	disconnectedMsg  struct{}
)

type Model struct {
	logger    *slog.Logger
	serverURL string
	dial      Dialer

	conn   Conn
	phase  phase
	symbol string
	state  *protocol.GameStatePayload

	reconnects int

	input  textinput.Model
	notice string
	err    error
}

func NewModel(logger *slog.Logger, serverURL string, dial Dialer) *Model {
	input := textinput.New()
	input.Placeholder = "reset"
	input.CharLimit = 8
	input.Width = 24
	input.Focus()

	return &Model{
		logger:    logger.With("component", "ui"),
		serverURL: serverURL,
		dial:      dial,
		phase:     phaseConnecting,
		input:     input,
	}
}

// Err - the reason the client quit, if it was a failure.
func (that *Model) Err() error {
	return that.err
}

func (that *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, that.connect())
}

func (that *Model) connect() tea.Cmd {
	dial := that.dial
	return func() tea.Msg {
		conn, err := dial(context.Background())
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return connectedMsg{conn: conn}
	}
}

func waitForFrame(conn Conn) tea.Cmd {
	return func() tea.Msg {
		data, ok := <-conn.Messages()
		if !ok {
			return disconnectedMsg{}
		}
		return frameMsg{data: data}
	}
}

func (that *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		that.conn = msg.conn
		that.phase = phasePlaying
		that.notice = ""
		that.logger.Info("connected", "server", that.serverURL)
		return that, waitForFrame(that.conn)

	case connectFailedMsg:
		that.err = fmt.Errorf("connection failed: %w", msg.err)
		that.logger.Error("giving up", "error", msg.err)
		return that, tea.Quit

	case disconnectedMsg:
		that.conn = nil
		that.reconnects++
		if that.reconnects > maxReconnects {
			that.err = apperror.ErrConnectionClosed
			that.logger.Error("giving up after repeated disconnects")
			return that, tea.Quit
		}

		that.logger.Warn("disconnected from the server, reconnecting", "attempt", that.reconnects)
		that.phase = phaseReconnecting
		that.symbol = ""
		that.state = nil
		return that, that.connect()

	case frameMsg:
		that.handleFrame(msg.data)
		if that.conn == nil {
			return that, nil
		}
		return that, waitForFrame(that.conn)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if that.conn != nil {
				that.conn.Close()
			}
			return that, tea.Quit
		case tea.KeyEnter:
			that.submit(that.input.Value())
			that.input.Reset()
			return that, nil
		}
	}

	var cmd tea.Cmd
	that.input, cmd = that.input.Update(msg)
	return that, cmd
}

func (that *Model) handleFrame(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		that.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	switch msg.Action {
	case protocol.ActionAssignPlayer:
		var payload protocol.AssignPlayerPayload
		if err = msg.DecodePayload(&payload); err != nil {
			that.logger.Warn("bad assignment", "error", err)
			return
		}
		that.symbol = payload.Symbol
		that.logger.Info("assigned", "symbol", payload.Symbol)
		that.updatePrompt()

	case protocol.ActionGameState:
		var payload protocol.GameStatePayload
		if err = msg.DecodePayload(&payload); err != nil {
			that.logger.Warn("bad state", "error", err)
			return
		}
		that.state = &payload
		that.reconnects = 0
		that.notice = ""
		that.updatePrompt()

	default:
		that.logger.Debug("ignoring message", "action", msg.Action)
	}
}

func (that *Model) updatePrompt() {
	if IsMyTurn(that.state, that.symbol) {
		that.input.Placeholder = "row,col (e.g. 2,3)"
		return
	}
	that.input.Placeholder = commandReset
}

func (that *Model) submit(value string) {
	if strings.TrimSpace(value) == "" {
		return
	}

	cmd, err := ParseCommand(value)
	if err != nil {
		that.notice = err.Error()
		return
	}

	switch cmd.Kind {
	case CommandReset:
		that.send(protocol.MustNewMessage(protocol.ActionResetGame, nil))

	case CommandMove:
		if !IsMyTurn(that.state, that.symbol) {
			that.notice = "It's not your turn to make a move."
			return
		}
		if cellTaken(that.state, cmd.Index) {
			that.notice = "That position is already taken. Please choose another."
			return
		}
		that.send(protocol.MustNewMessage(protocol.ActionMakeMove, protocol.MakeMovePayload{Index: cmd.Index}))
	}
}

func (that *Model) send(msg *protocol.Message) bool {
	if that.conn == nil {
		that.notice = "Not connected."
		return false
	}

	data, err := msg.Encode()
	if err == nil {
		err = that.conn.Send(data)
	}
	if err != nil {
		that.notice = "Failed to send: " + err.Error()
		that.logger.Error("failed to send", "action", msg.Action, "error", err)
		return false
	}

	that.notice = ""
	return true
}

func (that *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("--- Distributed Tic-Tac-Toe ---"))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render("Connected to: " + that.serverURL))
	b.WriteString("\n")

	switch that.phase {
	case phaseConnecting:
		b.WriteString("\nConnecting...\n")
		return docStyle.Render(b.String())
	case phaseReconnecting:
		b.WriteString("\nConnection lost, reconnecting...\n")
		return docStyle.Render(b.String())
	}

	switch that.symbol {
	case "":
	case protocol.SymbolSpectator:
		b.WriteString("Two players are already in the game. You are a spectator.\n")
	default:
		b.WriteString("You are Player: " + renderMark(entity.Mark(that.symbol)) + "\n")
	}

	if that.state == nil {
		b.WriteString("\nWaiting for the game state...\n")
		return docStyle.Render(b.String())
	}

	b.WriteString(boardStyle.Render(renderBoard(that.state.Cells())))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(that.status()))
	b.WriteString("\n")
	b.WriteString(that.input.View())

	if that.notice != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(that.notice))
	}

	b.WriteString("\n")
	b.WriteString(infoStyle.Render("esc / ctrl+c to quit"))

	return docStyle.Render(b.String())
}

func (that *Model) status() string {
	state := that.state

	switch winner := state.WinnerValue(); winner {
	case "":
	case protocol.WinnerDraw:
		return winStyle.Render("It's a Draw!") + "\nType 'reset' to play again."
	default:
		return winStyle.Render("Player "+winner+" Wins!") + "\nType 'reset' to play again."
	}

	line := "Current Turn: Player " + state.CurrentPlayer + "\n"
	switch {
	case IsMyTurn(state, that.symbol):
		return line + "It's your turn!"
	case that.symbol == protocol.SymbolSpectator:
		return line + "You are watching the game."
	default:
		return line + "Waiting for opponent's move..."
	}
}

func renderBoard(cells [entity.BoardSize]entity.Mark) string {
	var b strings.Builder

	b.WriteString("  1   2   3\n")
	for row := range 3 {
		fmt.Fprintf(&b, "%d", row+1)
		for col := range 3 {
			if col > 0 {
				b.WriteString(gridStyle.Render("|"))
			}
			b.WriteString(" " + renderMark(cells[row*3+col]) + " ")
		}
		if row < 2 {
			b.WriteString("\n" + gridStyle.Render(" ---|---|---") + "\n")
		}
	}

	return b.String()
}

func renderMark(mark entity.Mark) string {
	switch mark {
	case entity.PlayerX:
		return xStyle.Render("X")
	case entity.PlayerO:
		return oStyle.Render("O")
	default:
		return " "
	}
}
