package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-relay/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-relay/transport/wsclient"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var errUpstreamClosed = errors.New("upstream closed")

// Actions each direction lets through. Everything else is dropped.
var (
	toUpstream = map[string]bool{
		protocol.ActionMakeMove:  true,
		protocol.ActionResetGame: true,
	}
	toDownstream = map[string]bool{
		protocol.ActionGameState:    true,
		protocol.ActionAssignPlayer: true,
	}
)

// session - one downstream connection and the upstream connection it owns.
type session struct {
	id         string
	logger     *slog.Logger
	opts       Options
	metrics    *metrics.Metrics
	downstream *websocket.Conn
}

func (that *session) run(ctx context.Context) {
	defer func() { _ = that.downstream.Close() }()

	upstream, err := wsclient.Dial(ctx, that.logger, that.opts.UpstreamURL, that.opts.Dial)
	if err != nil {
		that.metrics.UpstreamDialFailures.Inc()
		that.logger.Error("session has no upstream", "error", err)
		that.idle(ctx)
		return
	}
	defer upstream.Close()

	if that.opts.RegisterUpstream {
		if err = that.register(upstream); err != nil {
			that.logger.Error("failed to register upstream", "error", err)
			return
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer upstream.Close()
		return that.forwardUpstream(upstream)
	})
	group.Go(func() error {
		return that.forwardDownstream(groupCtx, upstream)
	})

	if err = group.Wait(); err != nil {
		that.logger.Info("session ended", "reason", err)
	}
}

func (that *session) register(upstream *wsclient.Conn) error {
	data, err := protocol.MustNewMessage(protocol.ActionRegisterServer, nil).Encode()
	if err != nil {
		return err
	}
	return upstream.Send(data)
}

// forwardUpstream - downstream frames to the upstream, verbatim and in order.
func (that *session) forwardUpstream(upstream *wsclient.Conn) error {
	that.downstream.SetReadLimit(maxMessageSize)
	_ = that.downstream.SetReadDeadline(time.Now().Add(pongWait))
	that.downstream.SetPongHandler(func(string) error {
		return that.downstream.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.downstream.ReadMessage()
		if err != nil {
			return fmt.Errorf("downstream read: %w", err)
		}

		if !that.allowed(toUpstream, data) {
			continue
		}

		if err = upstream.Send(data); err != nil {
			return fmt.Errorf("upstream send: %w", err)
		}
		that.metrics.ForwardedFrames.WithLabelValues(metrics.DirectionUpstream).Inc()
	}
}

// forwardDownstream - upstream frames to the downstream. It is the only writer of the
// downstream connection and closes it when the upstream goes away.
func (that *session) forwardDownstream(ctx context.Context, upstream *wsclient.Conn) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.downstream.Close()
	}()

	for {
		select {
		case data, ok := <-upstream.Messages():
			if !ok {
				that.closeDownstream()
				return errUpstreamClosed
			}

			if !that.allowed(toDownstream, data) {
				continue
			}

			_ = that.downstream.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.downstream.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("downstream write: %w", err)
			}
			that.metrics.ForwardedFrames.WithLabelValues(metrics.DirectionDownstream).Inc()

		case <-ticker.C:
			_ = that.downstream.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.downstream.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("downstream ping: %w", err)
			}

		case <-ctx.Done():
			that.closeDownstream()
			return nil
		}
	}
}

func (that *session) closeDownstream() {
	_ = that.downstream.SetWriteDeadline(time.Now().Add(writeWait))
	_ = that.downstream.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
	_ = that.downstream.Close()
}

func (that *session) allowed(actions map[string]bool, data []byte) bool {
	msg, err := protocol.Decode(data)
	if err != nil {
		that.logger.Warn("dropping malformed frame", "error", err)
		return false
	}

	if !actions[msg.Action] {
		that.logger.Debug("dropping frame", "action", msg.Action)
		return false
	}

	return true
}

// idle - without an upstream the session only waits for the downstream to leave.
func (that *session) idle(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = that.downstream.Close() })
	defer stop()

	for {
		if _, _, err := that.downstream.ReadMessage(); err != nil {
			that.logger.Debug("downstream left", "error", err)
			return
		}
	}
}
