package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second
	pingEvery = 15 * time.Second
	readLimit = 1 << 20
)

const (
	connOpen int32 = iota
	connClosed
	connAborted
)

// wsConn оборачивает gorilla-сокет: сериализует записи и отслеживает
// состояние open/closed/aborted, чтобы аварийный сокет не закрывали дважды.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	state   atomic.Int32
	closed  chan struct{}
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.markAborted()
		return err
	}
	return nil
}

// Close шлёт пиру close-фрейм и закрывает сокет. Повторный вызов и вызов
// на аварийно оборванном соединении — no-op.
func (c *wsConn) Close(code int, reason string) error {
	if !c.state.CompareAndSwap(connOpen, connClosed) {
		return nil
	}
	close(c.closed)

	c.writeMu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait),
	)
	c.writeMu.Unlock()

	return c.conn.Close()
}

func (c *wsConn) Open() bool {
	return c.state.Load() == connOpen
}

func (c *wsConn) Aborted() bool {
	return c.state.Load() == connAborted
}

// markAborted переводит соединение в аварийное состояние после ошибки
// чтения или записи; close-фрейм такому сокету уже не отправить.
func (c *wsConn) markAborted() {
	if c.state.CompareAndSwap(connOpen, connAborted) {
		close(c.closed)
		_ = c.conn.Close()
	}
}
