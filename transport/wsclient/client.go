// Package wsclient dials the game server and pumps raw frames in both directions.
package wsclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	bufferSize     = 256
)

type Options struct {
	Attempts         int
	Interval         time.Duration
	HandshakeTimeout time.Duration
}

// Conn - an established connection. Frames are passed through untouched.
type Conn struct {
	logger *slog.Logger
	ws     *websocket.Conn

	send     chan []byte
	messages chan []byte
	done     chan struct{}

	closeOnce sync.Once
}

// Dial - connects to url, retrying up to opts.Attempts times with a constant interval.
func Dial(ctx context.Context, logger *slog.Logger, url string, opts Options) (*Conn, error) {
	log := logger.With("component", "wsclient", "url", url)

	attempts := max(opts.Attempts, 1)
	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}

	var ws *websocket.Conn
	attempt := 0

	operation := func() error {
		attempt++

		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Warn("dial failed", "attempt", attempt, "attempts", attempts, "error", err)
			return err
		}

		ws = conn
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.Interval), uint64(attempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: %s after %d attempts: %w", apperror.ErrUpstreamUnreachable, url, attempt, err)
	}

	conn := &Conn{
		logger:   log,
		ws:       ws,
		send:     make(chan []byte, bufferSize),
		messages: make(chan []byte, bufferSize),
		done:     make(chan struct{}),
	}

	go conn.readPump()
	go conn.writePump()

	return conn, nil
}

// Send - queues one frame. It never blocks.
func (that *Conn) Send(data []byte) error {
	select {
	case <-that.done:
		return apperror.ErrConnectionClosed
	default:
	}

	select {
	case that.send <- data:
		return nil
	case <-that.done:
		return apperror.ErrConnectionClosed
	default:
		return apperror.ErrSendBufferFull
	}
}

// Messages - inbound frames in arrival order. Closed when the connection ends.
func (that *Conn) Messages() <-chan []byte {
	return that.messages
}

func (that *Conn) Done() <-chan struct{} {
	return that.done
}

func (that *Conn) Close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

func (that *Conn) readPump() {
	defer func() {
		close(that.messages)
		that.Close()
		_ = that.ws.Close()
	}()

	that.ws.SetReadLimit(maxMessageSize)
	_ = that.ws.SetReadDeadline(time.Now().Add(pongWait))
	that.ws.SetPongHandler(func(string) error {
		return that.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Warn("connection lost", "error", err)
			}
			return
		}

		select {
		case that.messages <- data:
		case <-that.done:
			return
		}
	}
}

func (that *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.Close()
		_ = that.ws.Close()
	}()

	for {
		select {
		case data := <-that.send:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				that.logger.Warn("write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-that.done:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
