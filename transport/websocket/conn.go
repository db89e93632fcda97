package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// conn - one open connection. send is written and closed by the hub only.
type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

func newConn(id string, ws *websocket.Conn) *conn {
	return &conn{
		id:   id,
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
	}
}

// readPump - feeds the hub in arrival order. Malformed frames are dropped, the connection stays.
func (that *conn) readPump(server *Server, log *slog.Logger) {
	defer func() {
		select {
		case server.unregister <- that:
		case <-server.done:
		}
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
				log.Warn("connection lost", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Warn("dropping malformed frame", "error", err)
			continue
		}

		select {
		case server.inbound <- inboundMessage{conn: that, msg: msg}:
		case <-server.done:
			return
		}
	}
}

func (that *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.ws.Close()
	}()

	for {
		select {
		case data, ok := <-that.send:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}

			if err := that.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
