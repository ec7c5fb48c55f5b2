package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dov-vai/PuzzApi/internal/registry"

	"github.com/gorilla/websocket"
)

// TokenValidator — проверка access-токена из cookie при апгрейде.
type TokenValidator interface {
	ValidateAccessToken(token string) error
}

type Server struct {
	upgrader websocket.Upgrader
	reg      *registry.Registry
	tokens   TokenValidator
}

func NewServer(reg *registry.Registry, tokens TokenValidator) *Server {
	return &Server{
		reg:    reg,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS апгрейдит соединение и гоняет протокольный автомат до конца.
// Валидность токена не обязательна для подключения: гость тоже может
// хостить и заходить, флаг лишь помечает проверенного пользователя.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws: upgrade failed", "err", err)
		return
	}

	authorized := false
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" && s.tokens != nil {
		authorized = s.tokens.ValidateAccessToken(cookie.Value) == nil
	}

	c := newWsConn(conn)
	go s.pingLoop(c)

	slog.Debug("ws: connection accepted", "remote", conn.RemoteAddr().String(), "authorized", authorized)

	h := newHandler(c, s.reg, authorized)
	h.Run()
}

func (s *Server) pingLoop(c *wsConn) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
		case <-c.closed:
			return
		}
	}
}
