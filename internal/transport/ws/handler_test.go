package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafia/internal/app"
	"mafia/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDispatcher struct {
	mu       sync.Mutex
	cmds     []app.Command
	onSubmit func(app.Command)
}

func (d *fakeDispatcher) Submit(_ context.Context, cmd app.Command) error {
	d.mu.Lock()
	d.cmds = append(d.cmds, cmd)
	fn := d.onSubmit
	d.mu.Unlock()

	if fn != nil {
		fn(cmd)
	}
	return nil
}

func (d *fakeDispatcher) commands() []app.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]app.Command, len(d.cmds))
	copy(out, d.cmds)
	return out
}

func (d *fakeDispatcher) last() app.Command {
	cmds := d.commands()
	if len(cmds) == 0 {
		return nil
	}
	return cmds[len(cmds)-1]
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_AutoJoinAndEventDelivery(t *testing.T) {
	gateway := NewGateway(discardLogger())
	dispatcher := &fakeDispatcher{}
	dispatcher.onSubmit = func(cmd app.Command) {
		if join, ok := cmd.(app.Join); ok {
			gateway.Send(join.ConnRef, domain.NewPlayerEvent(domain.EventJoined, "ROOM1", "p1",
				&domain.JoinedPayload{PlayerID: "p1", HostID: "p1"}))
		}
	}

	server := httptest.NewServer(NewHandler(dispatcher, gateway, discardLogger()))
	defer server.Close()

	conn := dial(t, server, "roomId=room1&name=Alice")

	msg := readMessage(t, conn)
	assert.Equal(t, "JOINED", msg["type"])
	assert.Equal(t, "ROOM1", msg["roomId"])

	join, ok := dispatcher.last().(app.Join)
	require.True(t, ok)
	assert.Equal(t, "room1", join.RoomID)
	assert.Equal(t, "Alice", join.Name)
	assert.NotEmpty(t, join.ConnRef)
	assert.True(t, gateway.Connected(join.ConnRef))
}

func TestHandler_PingAndInvalidMessages(t *testing.T) {
	gateway := NewGateway(discardLogger())
	dispatcher := &fakeDispatcher{}

	server := httptest.NewServer(NewHandler(dispatcher, gateway, discardLogger()))
	defer server.Close()

	conn := dial(t, server, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "PONG", readMessage(t, conn)["type"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dance"}`)))
	msg := readMessage(t, conn)
	assert.Equal(t, "ERROR", msg["type"])
	payload, ok := msg["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, domain.CodeValidation, payload["code"])

	assert.Empty(t, dispatcher.commands())
}

func TestHandler_CloseSubmitsDisconnect(t *testing.T) {
	gateway := NewGateway(discardLogger())
	dispatcher := &fakeDispatcher{}

	server := httptest.NewServer(NewHandler(dispatcher, gateway, discardLogger()))
	defer server.Close()

	conn := dial(t, server, "")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"set_ready","payload":{"ready":true}}`)))

	assert.Eventually(t, func() bool { return len(dispatcher.commands()) == 1 }, 2*time.Second, 5*time.Millisecond)
	ready, ok := dispatcher.last().(app.SetReady)
	require.True(t, ok)
	assert.Equal(t, 1, gateway.Count())

	conn.Close()

	assert.Eventually(t, func() bool {
		_, ok := dispatcher.last().(app.Disconnect)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, app.Disconnect{ConnRef: ready.ConnRef}, dispatcher.last())
	assert.Eventually(t, func() bool { return gateway.Count() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestGateway_SendToUnknownConnection(t *testing.T) {
	gateway := NewGateway(discardLogger())

	err := gateway.Send("missing", domain.NewEvent(domain.EventRosterUpdate, "ROOM1", nil))
	assert.ErrorIs(t, err, ErrConnectionGone)
	assert.False(t, gateway.Connected("missing"))
}

func TestGateway_UnregisterKeepsNewerClient(t *testing.T) {
	gateway := NewGateway(discardLogger())
	older := NewClient(nil, "c1", nil, gateway, discardLogger())
	newer := NewClient(nil, "c1", nil, gateway, discardLogger())

	gateway.Register(older)
	gateway.Register(newer)
	gateway.Unregister(older)
	assert.True(t, gateway.Connected("c1"))

	gateway.Unregister(newer)
	assert.False(t, gateway.Connected("c1"))
}
