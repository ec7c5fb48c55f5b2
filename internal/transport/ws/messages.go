package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/dov-vai/PuzzApi/internal/domain"
)

// Типы протокольных сообщений. Дискриминатор — поле Type,
// неизвестные типы игнорируются.
const (
	TypeConnected   = "connected"
	TypeHost        = "host"
	TypeJoin        = "join"
	TypeP2PInit     = "p2pInit"
	TypePublicRooms = "publicRooms"
	TypeReceiveInit = "receiveInit"
	TypeRemovePeer  = "removePeer"
	TypeRtcSignal   = "signal"
	TypeSendInit    = "sendInit"
	TypeDisconnect  = "disconnect"
)

type envelope struct {
	Type string `json:"Type"`
}

// --- входящие ---

type Host struct {
	Title       string `json:"Title"`
	PieceCount  int    `json:"PieceCount"`
	Public      bool   `json:"Public"`
	AllowGuests bool   `json:"AllowGuests"`
}

type Join struct {
	RoomID string `json:"RoomId"`
}

// RtcSignal — на входе SocketId это адресат, на выходе отправитель.
// Signal — непрозрачный SDP/ICE payload, не интерпретируем.
type RtcSignal struct {
	Type     string `json:"Type"`
	SocketID string `json:"SocketId"`
	Signal   string `json:"Signal"`
}

type SendInit struct {
	Type     string `json:"Type"`
	SocketID string `json:"SocketId"`
}

// --- исходящие ---

type Connected struct {
	Type     string `json:"Type"`
	SocketID string `json:"SocketId"`
	RoomID   string `json:"RoomId"`
}

type P2PInit struct {
	Type     string `json:"Type"`
	SocketID string `json:"SocketId"`
	RoomID   string `json:"RoomId"`
	HostID   string `json:"HostId"`
}

type ReceiveInit struct {
	Type     string `json:"Type"`
	SocketID string `json:"SocketId"`
}

type RemovePeer struct {
	Type     string `json:"Type"`
	SocketID string `json:"SocketId"`
}

type PublicRooms struct {
	Type  string              `json:"Type"`
	Rooms []domain.PublicRoom `json:"Rooms"`
}

// encode сериализует исходящее сообщение. Наши типы всегда маршалятся,
// ошибка здесь означает баг, поэтому только лог.
func encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("ws: marshal outgoing message failed", "err", err)
		return nil
	}
	return b
}
