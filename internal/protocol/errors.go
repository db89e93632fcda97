package protocol

import "errors"

var (
	ErrMissingAction  = errors.New("message has no action")
	ErrMissingPayload = errors.New("message has no payload")
	ErrMissingIndex   = errors.New("move has no index")
)
