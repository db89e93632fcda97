package websocket

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-relay/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
)

type recordingMirror struct {
	mu     sync.Mutex
	states []protocol.GameStatePayload
}

func (that *recordingMirror) SaveState(_ context.Context, state protocol.GameStatePayload) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.states = append(that.states, state)
	return nil
}

func (that *recordingMirror) count() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.states)
}

type testServer struct {
	server  *Server
	metrics *metrics.Metrics
	url     string
}

func startServer(t *testing.T, mirror stateMirror) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	server := New(logger, usecase.NewGameManager(logger), m, mirror)

	ctx, cancel := context.WithCancel(context.Background())
	go server.Run(ctx)

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		cancel()
		httpServer.Close()
	})

	return &testServer{
		server:  server,
		metrics: m,
		url:     "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws",
	}
}

type testClient struct {
	t  *testing.T
	ws *websocket.Conn
}

func (that *testServer) dial(t *testing.T) *testClient {
	t.Helper()

	ws, _, err := websocket.DefaultDialer.Dial(that.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	return &testClient{t: t, ws: ws}
}

// join dials and consumes the assignPlayer + gameState greeting.
func (that *testServer) join(t *testing.T) (*testClient, string) {
	t.Helper()

	client := that.dial(t)
	symbol := client.expectAssignment()
	client.expectState()

	return client, symbol
}

func (that *testClient) read() *protocol.Message {
	that.t.Helper()

	require.NoError(that.t, that.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := that.ws.ReadMessage()
	require.NoError(that.t, err)

	msg, err := protocol.Decode(data)
	require.NoError(that.t, err)

	return msg
}

func (that *testClient) expectAssignment() string {
	that.t.Helper()

	msg := that.read()
	require.Equal(that.t, protocol.ActionAssignPlayer, msg.Action)

	var payload protocol.AssignPlayerPayload
	require.NoError(that.t, msg.DecodePayload(&payload))

	return payload.Symbol
}

func (that *testClient) expectState() protocol.GameStatePayload {
	that.t.Helper()

	msg := that.read()
	require.Equal(that.t, protocol.ActionGameState, msg.Action)

	var payload protocol.GameStatePayload
	require.NoError(that.t, msg.DecodePayload(&payload))

	return payload
}

func (that *testClient) sendRaw(frame string) {
	that.t.Helper()
	require.NoError(that.t, that.ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (that *testClient) move(index int) {
	that.t.Helper()
	data, err := protocol.MustNewMessage(protocol.ActionMakeMove, protocol.MakeMovePayload{Index: index}).Encode()
	require.NoError(that.t, err)
	require.NoError(that.t, that.ws.WriteMessage(websocket.TextMessage, data))
}

func cell(state protocol.GameStatePayload, index int) string {
	if state.Board[index] == nil {
		return ""
	}
	return *state.Board[index]
}

func TestServer_AssignsRolesInOrder(t *testing.T) {
	srv := startServer(t, nil)

	// Given: three connections in a row
	_, first := srv.join(t)
	_, second := srv.join(t)
	_, third := srv.join(t)

	// Then: X, O, then spectator
	assert.Equal(t, "X", first)
	assert.Equal(t, "O", second)
	assert.Equal(t, protocol.SymbolSpectator, third)
}

func TestServer_GreetingCarriesCurrentState(t *testing.T) {
	srv := startServer(t, nil)

	// Given: X has already played the center
	x, _ := srv.join(t)
	x.move(4)
	x.expectState()

	// When: a second player joins
	o := srv.dial(t)
	assert.Equal(t, "O", o.expectAssignment())

	// Then: the greeting state already shows the move
	state := o.expectState()
	assert.Equal(t, "X", cell(state, 4))
	assert.Equal(t, "O", state.CurrentPlayer)
}

func TestServer_AcceptedMoveIsBroadcast(t *testing.T) {
	srv := startServer(t, nil)
	x, _ := srv.join(t)
	o, _ := srv.join(t)
	spectator, _ := srv.join(t)

	// When: X plays cell 4
	x.move(4)

	// Then: every connection gets the same state once
	for _, client := range []*testClient{x, o, spectator} {
		state := client.expectState()
		assert.Equal(t, "X", cell(state, 4))
		assert.Equal(t, "O", state.CurrentPlayer)
		assert.Nil(t, state.Winner)
	}
	assert.InDelta(t, 1, testutil.ToFloat64(srv.metrics.MovesAccepted), 0)
}

func TestServer_RejectedMoveIsSilent(t *testing.T) {
	srv := startServer(t, nil)
	x, _ := srv.join(t)
	o, _ := srv.join(t)
	spectator, _ := srv.join(t)

	// When: O moves out of turn, a spectator moves, and X sends garbage
	o.move(0)
	spectator.move(1)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(srv.metrics.MovesRejected.WithLabelValues("not_your_turn")) == 1 &&
			testutil.ToFloat64(srv.metrics.MovesRejected.WithLabelValues("no_slot")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	x.sendRaw(`not json`)
	x.sendRaw(`{"action":"makeMove"}`)
	x.sendRaw(`{"action":"jump"}`)

	// And: X then plays a valid move
	x.move(8)

	// Then: the first thing anyone sees is X's move alone
	state := o.expectState()
	assert.Equal(t, "X", cell(state, 8))
	assert.Empty(t, cell(state, 0))
	assert.Empty(t, cell(state, 1))

	assert.InDelta(t, 1, testutil.ToFloat64(srv.metrics.MovesRejected.WithLabelValues("not_your_turn")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(srv.metrics.MovesRejected.WithLabelValues("no_slot")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(srv.metrics.MovesRejected.WithLabelValues("malformed")), 0)
}

func TestServer_WinThenReset(t *testing.T) {
	srv := startServer(t, nil)
	x, _ := srv.join(t)
	o, _ := srv.join(t)

	// Given: X completes the top row
	for i, index := range []int{0, 3, 1, 4, 2} {
		if i%2 == 0 {
			x.move(index)
		} else {
			o.move(index)
		}
		x.expectState()
		o.expectState()
	}

	state, err := srv.server.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "X", state.WinnerValue())
	assert.Equal(t, "O", state.CurrentPlayer)

	// When: O tries to keep playing
	o.move(5)

	// And: O resets
	o.sendRaw(`{"action":"resetGame"}`)

	// Then: the next broadcast is the fresh board
	fresh := x.expectState()
	assert.Nil(t, fresh.Winner)
	assert.Equal(t, "X", fresh.CurrentPlayer)
	for i := range fresh.Board {
		assert.Nil(t, fresh.Board[i])
	}
	assert.InDelta(t, 1, testutil.ToFloat64(srv.metrics.MovesRejected.WithLabelValues("finished")), 0)
}

func TestServer_DisconnectFreesSlot(t *testing.T) {
	srv := startServer(t, nil)
	x, _ := srv.join(t)
	_, _ = srv.join(t)

	// When: X leaves
	require.NoError(t, x.ws.Close())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(srv.metrics.Connections) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Then: the next connection becomes X
	_, symbol := srv.join(t)
	assert.Equal(t, "X", symbol)
}

func TestServer_RegisterServer(t *testing.T) {
	srv := startServer(t, nil)

	// Given: a relay upstream that was handed X
	relay, symbol := srv.join(t)
	require.Equal(t, "X", symbol)

	// When: it registers
	relay.sendRaw(`{"action":"registerServer"}`)

	// Then: it is demoted to spectator and gets the current state
	assert.Equal(t, "spectator", relay.expectAssignment())
	relay.expectState()

	// And: X is free for the next player
	x, symbol := srv.join(t)
	assert.Equal(t, "X", symbol)

	// And: the relay sees each broadcast exactly once
	x.move(4)
	x.expectState()
	assert.Equal(t, "X", cell(relay.expectState(), 4))

	x.sendRaw(`{"action":"resetGame"}`)
	assert.Empty(t, cell(relay.expectState(), 4))

	// And: the relay cannot move
	relay.move(0)
	x.move(1)
	state := relay.expectState()
	assert.Empty(t, cell(state, 0))
	assert.Equal(t, "X", cell(state, 1))
}

func TestServer_MirrorsBroadcasts(t *testing.T) {
	mirror := &recordingMirror{}
	srv := startServer(t, mirror)
	x, _ := srv.join(t)

	// When: a move and a reset are broadcast
	x.move(0)
	x.expectState()
	x.sendRaw(`{"action":"resetGame"}`)
	x.expectState()

	// Then: both reach the mirror
	require.Eventually(t, func() bool { return mirror.count() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_State(t *testing.T) {
	srv := startServer(t, nil)

	// When: nothing has happened yet
	state, err := srv.server.State(context.Background())

	// Then: the state is the initial one
	require.NoError(t, err)
	assert.Equal(t, "X", state.CurrentPlayer)
	assert.Nil(t, state.Winner)
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	// Given: a port that is already taken
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := New(logger, usecase.NewGameManager(logger), metrics.New(), nil)

	// When: the server tries to bind it
	err = server.Start(context.Background(), busy.Addr().String())

	// Then: it fails before serving
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
}
