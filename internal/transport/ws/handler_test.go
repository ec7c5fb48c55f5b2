package ws_test

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dov-vai/PuzzApi/internal/registry"
	"github.com/dov-vai/PuzzApi/internal/transport/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

func startServer(t *testing.T) (*registry.Registry, string) {
	t.Helper()
	reg := registry.New()
	srv := httptest.NewServer(http.HandlerFunc(ws.NewServer(reg, nil).HandleWS))
	t.Cleanup(srv.Close)
	return reg, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(v))
}

func recv(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(readTimeout)))
	var m map[string]any
	require.NoError(t, c.ReadJSON(&m))
	return m
}

// expectClose дочитывает соединение до close-фрейма с ожидаемым кодом.
func expectClose(t *testing.T, c *websocket.Conn, code int) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(readTimeout)))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code)
}

// expectSilence убеждается, что за окно ожидания ничего не пришло:
// чтение должно упереться в таймаут, а не во фрейм или close.
func expectSilence(t *testing.T, c *websocket.Conn) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
	var ne net.Error
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Timeout())
}

func hostRoom(t *testing.T, c *websocket.Conn) (socketID, roomID string) {
	t.Helper()
	send(t, c, map[string]any{
		"Type": "host", "Title": "Test Room", "PieceCount": 100,
		"Public": true, "AllowGuests": true,
	})
	m := recv(t, c)
	require.Equal(t, "connected", m["Type"])
	return m["SocketId"].(string), m["RoomId"].(string)
}

func joinRoom(t *testing.T, c *websocket.Conn, roomID string) (socketID string) {
	t.Helper()
	send(t, c, map[string]any{"Type": "join", "RoomId": roomID})
	m := recv(t, c)
	require.Equal(t, "connected", m["Type"])
	require.Equal(t, roomID, m["RoomId"])
	return m["SocketId"].(string)
}

func TestHost_CreatesRoom(t *testing.T) {
	reg, url := startServer(t)
	c := dial(t, url)

	socketID, roomID := hostRoom(t, c)

	assert.True(t, reg.ContainsRoom(roomID))
	assert.True(t, reg.ContainsPeer(roomID, socketID))
	hostID, ok := reg.HostID(roomID)
	require.True(t, ok)
	assert.Equal(t, socketID, hostID)

	rooms := reg.PublicRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "Test Room", rooms[0].Title)
	assert.Equal(t, 1, rooms[0].PlayerCount)
}

func TestJoin_UnknownRoomClosesConnection(t *testing.T) {
	_, url := startServer(t)
	c := dial(t, url)

	send(t, c, map[string]any{"Type": "join", "RoomId": "no-such-room"})
	expectClose(t, c, websocket.CloseInvalidFramePayloadData)
}

func TestHost_WhileBoundIsIgnored(t *testing.T) {
	reg, url := startServer(t)
	c := dial(t, url)

	hostRoom(t, c)

	// повторный host не создаёт вторую комнату и не переключает сессию
	send(t, c, map[string]any{
		"Type": "host", "Title": "Second", "PieceCount": 10,
		"Public": true, "AllowGuests": true,
	})
	send(t, c, map[string]any{"Type": "publicRooms"})

	m := recv(t, c)
	assert.Equal(t, "publicRooms", m["Type"])
	assert.Equal(t, 1, reg.Count())
}

func TestP2PInit_GuestRendezvous(t *testing.T) {
	_, url := startServer(t)
	host := dial(t, url)
	guest := dial(t, url)

	hostID, roomID := hostRoom(t, host)
	guestID := joinRoom(t, guest, roomID)

	send(t, guest, map[string]any{"Type": "p2pInit"})

	// гостю — рандеву с id хоста
	m := recv(t, guest)
	require.Equal(t, "p2pInit", m["Type"])
	assert.Equal(t, guestID, m["SocketId"])
	assert.Equal(t, roomID, m["RoomId"])
	assert.Equal(t, hostID, m["HostId"])

	// хосту — приглашение готовить оффер в сторону гостя
	m = recv(t, host)
	require.Equal(t, "receiveInit", m["Type"])
	assert.Equal(t, guestID, m["SocketId"])
}

func TestP2PInit_HostDoesNotBroadcast(t *testing.T) {
	_, url := startServer(t)
	host := dial(t, url)
	guest := dial(t, url)

	hostID, roomID := hostRoom(t, host)
	joinRoom(t, guest, roomID)

	send(t, host, map[string]any{"Type": "p2pInit"})

	m := recv(t, host)
	require.Equal(t, "p2pInit", m["Type"])
	assert.Equal(t, hostID, m["HostId"])

	expectSilence(t, guest)
}

func TestSignal_RelayedToTarget(t *testing.T) {
	_, url := startServer(t)
	host := dial(t, url)
	guest := dial(t, url)

	hostID, roomID := hostRoom(t, host)
	guestID := joinRoom(t, guest, roomID)

	send(t, guest, map[string]any{"Type": "p2pInit"})
	recv(t, guest) // p2pInit
	m := recv(t, host)
	require.Equal(t, "receiveInit", m["Type"])

	send(t, guest, map[string]any{
		"Type": "signal", "SocketId": hostID, "Signal": "offer-sdp",
	})

	m = recv(t, host)
	require.Equal(t, "signal", m["Type"])
	assert.Equal(t, guestID, m["SocketId"])
	assert.Equal(t, "offer-sdp", m["Signal"])
}

func TestSignal_WhileUnboundClosesConnection(t *testing.T) {
	_, url := startServer(t)
	c := dial(t, url)

	send(t, c, map[string]any{"Type": "signal", "SocketId": "x", "Signal": "sdp"})
	expectClose(t, c, websocket.CloseInvalidFramePayloadData)
}

func TestSignal_UnknownTargetIsDropped(t *testing.T) {
	_, url := startServer(t)
	c := dial(t, url)

	hostRoom(t, c)
	send(t, c, map[string]any{"Type": "signal", "SocketId": "ghost", "Signal": "sdp"})

	// соединение живо, протокол продолжается
	send(t, c, map[string]any{"Type": "p2pInit"})
	m := recv(t, c)
	assert.Equal(t, "p2pInit", m["Type"])
}

func TestSendInit_RelayedWithSenderID(t *testing.T) {
	_, url := startServer(t)
	host := dial(t, url)
	guest := dial(t, url)

	hostID, roomID := hostRoom(t, host)
	guestID := joinRoom(t, guest, roomID)

	send(t, host, map[string]any{"Type": "sendInit", "SocketId": guestID})

	m := recv(t, guest)
	require.Equal(t, "sendInit", m["Type"])
	assert.Equal(t, hostID, m["SocketId"])
}

func TestDisconnect_LeavesRoomKeepsSocket(t *testing.T) {
	reg, url := startServer(t)
	host := dial(t, url)
	guest := dial(t, url)

	_, roomID := hostRoom(t, host)
	guestID := joinRoom(t, guest, roomID)

	send(t, guest, map[string]any{"Type": "disconnect"})

	m := recv(t, host)
	require.Equal(t, "removePeer", m["Type"])
	assert.Equal(t, guestID, m["SocketId"])

	// повторный disconnect в Unbound — no-op, сокет переиспользуется
	send(t, guest, map[string]any{"Type": "disconnect"})
	_, newRoomID := hostRoom(t, guest)

	assert.NotEqual(t, roomID, newRoomID)
	assert.Equal(t, 2, reg.Count())
}

func TestClientClose_NotifiesRemainingPeers(t *testing.T) {
	reg, url := startServer(t)
	host := dial(t, url)
	guest := dial(t, url)

	_, roomID := hostRoom(t, host)
	guestID := joinRoom(t, guest, roomID)

	require.NoError(t, guest.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	m := recv(t, host)
	require.Equal(t, "removePeer", m["Type"])
	assert.Equal(t, guestID, m["SocketId"])

	assert.True(t, reg.ContainsRoom(roomID))
	assert.False(t, reg.ContainsPeer(roomID, guestID))
}

func TestPublicRooms_AvailableWhileUnbound(t *testing.T) {
	_, url := startServer(t)
	host := dial(t, url)
	viewer := dial(t, url)

	_, roomID := hostRoom(t, host)

	send(t, viewer, map[string]any{"Type": "publicRooms"})
	m := recv(t, viewer)
	require.Equal(t, "publicRooms", m["Type"])

	rooms, ok := m["Rooms"].([]any)
	require.True(t, ok)
	require.Len(t, rooms, 1)
	room := rooms[0].(map[string]any)
	assert.Equal(t, roomID, room["Id"])
	assert.Equal(t, "Test Room", room["Title"])
	assert.Equal(t, float64(1), room["PlayerCount"])
}

func TestUnknownType_Ignored(t *testing.T) {
	_, url := startServer(t)
	c := dial(t, url)

	send(t, c, map[string]any{"Type": "bogus"})
	send(t, c, map[string]any{"Type": "publicRooms"})

	m := recv(t, c)
	assert.Equal(t, "publicRooms", m["Type"])
}
