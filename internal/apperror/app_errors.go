package apperror

import "errors"

var (
	ErrGameFinished  = errors.New("game is already finished")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrNoPlayerSlot  = errors.New("connection holds no player slot")
	ErrUnknownAction = errors.New("unknown action")

	ErrUpstreamUnreachable = errors.New("upstream server unreachable")
	ErrConnectionClosed    = errors.New("connection closed")
	ErrSendBufferFull      = errors.New("send buffer full")
)
