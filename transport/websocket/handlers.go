package websocket

import (
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

// handleMakeMove - a rejected move changes nothing and sends nothing back.
func (that *Server) handleMakeMove(c *conn, msg *protocol.Message) {
	log := that.logger.With("method", "handleMakeMove", "connID", c.id)

	var move protocol.MakeMovePayload
	if err := msg.DecodePayload(&move); err != nil {
		log.Debug("move rejected", "error", err)
		that.metrics.MovesRejected.WithLabelValues(rejectReason(err)).Inc()
		return
	}

	if err := that.manager.MakeMove(c.id, move.Index); err != nil {
		log.Debug("move rejected", "cell", move.Index, "error", err)
		that.metrics.MovesRejected.WithLabelValues(rejectReason(err)).Inc()
		return
	}

	that.metrics.MovesAccepted.Inc()
	that.broadcast()
}

func (that *Server) handleResetGame(_ *conn, _ *protocol.Message) {
	that.manager.Reset()
	that.metrics.Resets.Inc()
	that.broadcast()
}

// handleRegisterServer - the relay is told it lost its slot, then gets the current state.
// A client behind the relay may already hold the earlier assignment.
func (that *Server) handleRegisterServer(c *conn, _ *protocol.Message) {
	if revoked, ok := that.manager.RegisterRelay(c.id); ok {
		that.logger.Info("relay gave up its slot", "connID", c.id, "slot", revoked)
	}

	that.sendTo(c, protocol.MustNewMessage(protocol.ActionAssignPlayer, protocol.NewAssignPlayerPayload(entity.RoleRelay)))
	that.sendTo(c, that.stateMessage())
}
