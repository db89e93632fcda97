package entity

// Mark is the content of a board cell and also names the two player roles.
type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

// Outcome is derived from the board only. A win is represented by the winning mark.
type Outcome string

const (
	OutcomeInProgress Outcome = ""
	OutcomeDraw       Outcome = "Draw"
	OutcomeWinX       Outcome = Outcome(PlayerX)
	OutcomeWinO       Outcome = Outcome(PlayerO)
)

const BoardSize = 9

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// GameState is the single shared record held by the authoritative server.
type GameState struct {
	Board         [BoardSize]Mark `json:"board"`
	CurrentPlayer Mark            `json:"current_player"`
	Outcome       Outcome         `json:"outcome"`
}

// NewGameState - returns the initial state: empty board, X to move, in progress.
func NewGameState() *GameState {
	return &GameState{
		CurrentPlayer: PlayerX,
		Outcome:       OutcomeInProgress,
	}
}

func (that *GameState) DetermineGameResult() Outcome {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return Outcome(a)
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return OutcomeInProgress
		}
	}

	return OutcomeDraw
}

// UpdateGameState - recomputes the outcome from the board.
func (that *GameState) UpdateGameState() {
	that.Outcome = that.DetermineGameResult()
}

func (that *GameState) IsFinished() bool {
	return that.Outcome != OutcomeInProgress
}

func (that *GameState) IsOngoing() bool {
	return that.Outcome == OutcomeInProgress
}

// Winner returns the winning mark, or EmptyCell for a draw or an unfinished game.
func (that *GameState) Winner() Mark {
	switch that.Outcome {
	case OutcomeWinX:
		return PlayerX
	case OutcomeWinO:
		return PlayerO
	default:
		return EmptyCell
	}
}

// Clone returns an independent copy, safe to hand out of the owning goroutine.
func (that *GameState) Clone() *GameState {
	clone := *that
	return &clone
}

func (that *GameState) CountMarks(mark Mark) int {
	n := 0
	for _, cell := range that.Board {
		if cell == mark {
			n++
		}
	}
	return n
}

func Opponent(mark Mark) Mark {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
