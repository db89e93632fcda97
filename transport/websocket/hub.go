package websocket

import (
	"context"
	"errors"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

// Run - the hub loop. Every game mutation happens here, one event at a time.
func (that *Server) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	mirrorDone := make(chan struct{})
	go func() {
		defer close(mirrorDone)
		that.runMirror(ctx)
	}()

	defer func() {
		close(that.done)
		for _, c := range that.conns {
			that.drop(c)
		}
		close(that.mirrorQueue)
		<-mirrorDone
		log.Info("hub stopped")
	}()

	for {
		select {
		case c := <-that.register:
			that.connect(c)

		case c := <-that.unregister:
			if _, ok := that.conns[c.id]; ok {
				that.drop(c)
			}

		case in := <-that.inbound:
			if _, ok := that.conns[in.conn.id]; !ok {
				continue
			}

			handler, ok := that.handlers[in.msg.Action]
			if !ok {
				log.Warn("dropping message", "connID", in.conn.id, "action", in.msg.Action,
					"error", apperror.ErrUnknownAction)
				continue
			}

			handler(in.conn, in.msg)

		case reply := <-that.stateQueries:
			reply <- protocol.NewGameStatePayload(that.manager.State())

		case <-ctx.Done():
			return
		}
	}
}

func (that *Server) connect(c *conn) {
	that.conns[c.id] = c
	that.metrics.Connections.Inc()

	role := that.manager.Connect(c.id)

	that.sendTo(c, protocol.MustNewMessage(protocol.ActionAssignPlayer, protocol.NewAssignPlayerPayload(role)))
	that.sendTo(c, that.stateMessage())
}

// drop - forgets the connection and closes its send channel, which stops its write pump.
func (that *Server) drop(c *conn) {
	delete(that.conns, c.id)
	that.metrics.Connections.Dec()
	that.manager.Disconnect(c.id)
	close(c.send)
}

func (that *Server) sendTo(c *conn, msg *protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		that.logger.Error("failed to encode message", "action", msg.Action, "error", err)
		return
	}
	that.enqueue(c, data)
}

// enqueue never blocks the hub: a connection that cannot keep up is dropped.
func (that *Server) enqueue(c *conn, data []byte) {
	select {
	case c.send <- data:
	default:
		that.logger.Warn("dropping slow connection", "connID", c.id, "error", apperror.ErrSendBufferFull)
		that.drop(c)
	}
}

// broadcast - sends the state to every open connection exactly once, the registered relay included.
func (that *Server) broadcast() {
	state := protocol.NewGameStatePayload(that.manager.State())

	data, err := protocol.MustNewMessage(protocol.ActionGameState, state).Encode()
	if err != nil {
		that.logger.Error("failed to encode state", "error", err)
		return
	}

	for _, c := range that.conns {
		that.enqueue(c, data)
	}
	that.metrics.Broadcasts.Inc()

	if that.mirror == nil {
		return
	}

	select {
	case that.mirrorQueue <- state:
	default:
		that.logger.Warn("state mirror is behind, skipping update")
	}
}

func (that *Server) stateMessage() *protocol.Message {
	return protocol.MustNewMessage(protocol.ActionGameState, protocol.NewGameStatePayload(that.manager.State()))
}

func (that *Server) runMirror(ctx context.Context) {
	log := that.logger.With("method", "runMirror")

	for state := range that.mirrorQueue {
		if that.mirror == nil {
			continue
		}
		if err := that.mirror.SaveState(context.WithoutCancel(ctx), state); err != nil {
			log.Error("failed to mirror state", "error", err)
		}
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNoPlayerSlot):
		return "no_slot"
	case errors.Is(err, apperror.ErrGameFinished):
		return "finished"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "occupied"
	case errors.Is(err, apperror.ErrInvalidCell):
		return "invalid_cell"
	default:
		return "malformed"
	}
}
