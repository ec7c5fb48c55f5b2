package registry_test

import (
	"sync"
	"testing"

	"github.com/dov-vai/PuzzApi/internal/domain"
	"github.com/dov-vai/PuzzApi/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn — транспортный хендл для тестов: запоминает отправленное
// и параметры закрытия.
type fakeConn struct {
	mu       sync.Mutex
	sent     [][]byte
	closed   bool
	code     int
	reason   string
	notOpen  bool
	aborted  bool
	sendFail error
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendFail != nil {
		return c.sendFail
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.sent = append(c.sent, cp)
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.code = code
	c.reason = reason
	return nil
}

func (c *fakeConn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.notOpen && !c.closed && !c.aborted
}

func (c *fakeConn) Aborted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aborted
}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeConn) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestCreateRoom_AddPeer(t *testing.T) {
	reg := registry.New()

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	require.NotEmpty(t, roomID)
	assert.True(t, reg.ContainsRoom(roomID))

	peerID, err := reg.AddPeer(roomID, &fakeConn{})
	require.NoError(t, err)
	require.NotEmpty(t, peerID)
	assert.True(t, reg.ContainsPeer(roomID, peerID))

	// первый добавленный — хост
	hostID, ok := reg.HostID(roomID)
	require.True(t, ok)
	assert.Equal(t, peerID, hostID)
}

func TestAddPeer_UnknownRoom(t *testing.T) {
	reg := registry.New()

	peerID, err := reg.AddPeer("no-such-room", &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Empty(t, peerID)
	assert.False(t, reg.ContainsRoom("no-such-room"))
}

// Комната существует ровно до тех пор, пока в ней есть хотя бы один пир.
func TestRoom_DeletedWhenEmptied(t *testing.T) {
	reg := registry.New()

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	p1, err := reg.AddPeer(roomID, &fakeConn{})
	require.NoError(t, err)
	p2, err := reg.AddPeer(roomID, &fakeConn{})
	require.NoError(t, err)

	reg.DisconnectPeer(roomID, p1)
	assert.True(t, reg.ContainsRoom(roomID))
	assert.False(t, reg.ContainsPeer(roomID, p1))
	assert.True(t, reg.ContainsPeer(roomID, p2))

	reg.DisconnectPeer(roomID, p2)
	assert.False(t, reg.ContainsRoom(roomID))
	assert.Equal(t, 0, reg.Count())

	// фантомного пира в удалённой комнате создать нельзя
	_, err = reg.AddPeer(roomID, &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestDisconnectPeer_KeepsSocketOpen(t *testing.T) {
	reg := registry.New()
	conn := &fakeConn{}

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	peerID, err := reg.AddPeer(roomID, conn)
	require.NoError(t, err)

	reg.DisconnectPeer(roomID, peerID)

	assert.False(t, conn.wasClosed())
	assert.False(t, reg.ContainsRoom(roomID))
}

func TestRemoveSocket_ClosesSocket(t *testing.T) {
	reg := registry.New()
	conn := &fakeConn{}

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	peerID, err := reg.AddPeer(roomID, conn)
	require.NoError(t, err)

	reg.RemoveSocket(roomID, peerID, 1000, "bye")

	assert.True(t, conn.wasClosed())
	assert.Equal(t, 1000, conn.code)
	assert.Equal(t, "bye", conn.reason)
	assert.False(t, reg.ContainsRoom(roomID))
}

func TestRemoveSocket_SkipsAbortedSocket(t *testing.T) {
	reg := registry.New()
	conn := &fakeConn{aborted: true}

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	peerID, err := reg.AddPeer(roomID, conn)
	require.NoError(t, err)

	reg.RemoveSocket(roomID, peerID, 1000, "bye")

	assert.False(t, conn.wasClosed())
	assert.False(t, reg.ContainsPeer(roomID, peerID))
}

func TestPublicRooms_OnlyPublic(t *testing.T) {
	reg := registry.New()

	pubID := reg.CreateRoom("Public Room", 10, true, true)
	_, err := reg.AddPeer(pubID, &fakeConn{})
	require.NoError(t, err)

	privID := reg.CreateRoom("Private Room", 5, false, true)
	_, err = reg.AddPeer(privID, &fakeConn{})
	require.NoError(t, err)

	rooms := reg.PublicRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, pubID, rooms[0].ID)
	assert.Equal(t, "Public Room", rooms[0].Title)
	assert.Equal(t, 10, rooms[0].PieceCount)
	assert.Equal(t, 1, rooms[0].PlayerCount)
}

func TestBroadcast_ExcludesConnAndSkipsNotOpen(t *testing.T) {
	reg := registry.New()
	c1 := &fakeConn{}
	c2 := &fakeConn{}
	c3 := &fakeConn{notOpen: true}

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	for _, c := range []*fakeConn{c1, c2, c3} {
		_, err := reg.AddPeer(roomID, c)
		require.NoError(t, err)
	}

	reg.Broadcast(roomID, []byte("hello"), c1)

	assert.Equal(t, 0, c1.sentCount())
	require.Equal(t, 1, c2.sentCount())
	assert.Equal(t, []byte("hello"), c2.sent[0])
	assert.Equal(t, 0, c3.sentCount())
}

func TestSendTo_MissingTargetIsNoop(t *testing.T) {
	reg := registry.New()
	conn := &fakeConn{}

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	_, err := reg.AddPeer(roomID, conn)
	require.NoError(t, err)

	reg.SendTo(roomID, "no-such-peer", []byte("hello"))
	reg.SendTo("no-such-room", "whatever", []byte("hello"))

	assert.Equal(t, 0, conn.sentCount())
}

func TestHostID_UnaffectedByLaterJoins(t *testing.T) {
	reg := registry.New()

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	hostPeer, err := reg.AddPeer(roomID, &fakeConn{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := reg.AddPeer(roomID, &fakeConn{})
		require.NoError(t, err)
	}

	hostID, ok := reg.HostID(roomID)
	require.True(t, ok)
	assert.Equal(t, hostPeer, hostID)
}

func TestHostID_AbsentAfterHostLeaves(t *testing.T) {
	reg := registry.New()

	roomID := reg.CreateRoom("Test Room", 10, true, true)
	hostPeer, err := reg.AddPeer(roomID, &fakeConn{})
	require.NoError(t, err)
	_, err = reg.AddPeer(roomID, &fakeConn{})
	require.NoError(t, err)

	reg.DisconnectPeer(roomID, hostPeer)

	_, ok := reg.HostID(roomID)
	assert.False(t, ok)
	assert.True(t, reg.ContainsRoom(roomID))
}

// Конкурентные join/leave в одной комнате не теряют обновлений и не
// оставляют комнату в рассинхроне: якорный пир держит её живой.
func TestConcurrent_SameRoomJoinLeave(t *testing.T) {
	reg := registry.New()

	roomID := reg.CreateRoom("Test Room", 100, true, true)
	anchor, err := reg.AddPeer(roomID, &fakeConn{})
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			peerID, err := reg.AddPeer(roomID, &fakeConn{})
			if err != nil {
				return
			}
			reg.DisconnectPeer(roomID, peerID)
		}()
	}
	wg.Wait()

	require.True(t, reg.ContainsRoom(roomID))
	rooms := reg.PublicRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, 1, rooms[0].PlayerCount)

	reg.DisconnectPeer(roomID, anchor)
	assert.False(t, reg.ContainsRoom(roomID))
}

// Независимые комнаты живут независимо: параллельный цикл
// create/add/remove не должен мешать соседям.
func TestConcurrent_IndependentRooms(t *testing.T) {
	reg := registry.New()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				roomID := reg.CreateRoom("Room", 10, false, true)
				peerID, err := reg.AddPeer(roomID, &fakeConn{})
				if err != nil {
					continue
				}
				reg.RemoveSocket(roomID, peerID, 1000, "done")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, reg.Count())
}
