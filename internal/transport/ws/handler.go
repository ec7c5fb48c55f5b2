package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dov-vai/PuzzApi/internal/registry"

	"github.com/gorilla/websocket"
)

// Состояния протокольной сессии одного соединения. Пока клиент не
// захостил и не зашёл в комнату, он Unbound; после disconnect он снова
// Unbound и может хостить или заходить заново тем же сокетом.
type sessionState int

const (
	sessionUnbound sessionState = iota
	sessionBound
	sessionClosed
)

// Handler — протокольный автомат одного соединения. Сообщения одного
// клиента обрабатываются строго последовательно: следующий фрейм не
// читается, пока не завершена обработка текущего, поэтому локальное
// состояние не нуждается в блокировках.
type Handler struct {
	conn       *wsConn
	reg        *registry.Registry
	state      sessionState
	roomID     string
	peerID     string
	isHost     bool
	authorized bool
}

func newHandler(conn *wsConn, reg *registry.Registry, authorized bool) *Handler {
	return &Handler{
		conn:       conn,
		reg:        reg,
		authorized: authorized,
	}
}

// Run крутит приёмный цикл до закрытия или обрыва соединения.
// Любая транспортная ошибка сводится к close-обработке; за пределы
// цикла ничего не пролетает, чужие соединения не затрагиваются.
func (h *Handler) Run() {
	h.conn.conn.SetReadLimit(readLimit)
	_ = h.conn.conn.SetReadDeadline(time.Now().Add(2 * pingEvery))
	h.conn.conn.SetPongHandler(func(string) error {
		return h.conn.conn.SetReadDeadline(time.Now().Add(2 * pingEvery))
	})

	for h.state != sessionClosed {
		_, data, err := h.conn.conn.ReadMessage()
		if err != nil {
			h.handleTransportError(err)
			return
		}
		h.handleMessage(data)
	}
}

func (h *Handler) handleMessage(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Debug("ws: undecodable frame", "err", err)
		return
	}

	switch env.Type {
	case TypeHost:
		h.handleHost(data)
	case TypeJoin:
		h.handleJoin(data)
	case TypePublicRooms:
		h.handlePublicRooms()
	case TypeP2PInit:
		h.handleP2PInit()
	case TypeRtcSignal:
		h.handleSignal(data)
	case TypeSendInit:
		h.handleSendInit(data)
	case TypeDisconnect:
		h.handleDisconnect()
	default:
		// неизвестные типы игнорируем
	}
}

func (h *Handler) handleHost(data []byte) {
	if h.state != sessionUnbound {
		slog.Debug("ws: host while already bound", "peer", h.peerID, "room", h.roomID)
		return
	}

	var msg Host
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("ws: bad host payload", "err", err)
		return
	}

	roomID := h.reg.CreateRoom(msg.Title, msg.PieceCount, msg.Public, msg.AllowGuests)
	peerID, err := h.reg.AddPeer(roomID, h.conn)
	if err != nil {
		// только что созданная комната исчезнуть не могла, но контракт
		// AddPeer авторитетен
		h.closeInvalid("provided room ID does not exist")
		return
	}

	h.bind(roomID, peerID, true)
	h.reg.SendTo(roomID, peerID, encode(Connected{
		Type:     TypeConnected,
		SocketID: peerID,
		RoomID:   roomID,
	}))
}

func (h *Handler) handleJoin(data []byte) {
	if h.state != sessionUnbound {
		slog.Debug("ws: join while already bound", "peer", h.peerID, "room", h.roomID)
		return
	}

	var msg Join
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("ws: bad join payload", "err", err)
		return
	}

	peerID, err := h.reg.AddPeer(msg.RoomID, h.conn)
	if err != nil {
		h.closeInvalid("provided room ID does not exist")
		return
	}

	h.bind(msg.RoomID, peerID, false)
	h.reg.SendTo(msg.RoomID, peerID, encode(Connected{
		Type:     TypeConnected,
		SocketID: peerID,
		RoomID:   msg.RoomID,
	}))
}

// handlePublicRooms отвечает в любом состоянии, мимо привязки к комнате.
func (h *Handler) handlePublicRooms() {
	payload := encode(PublicRooms{
		Type:  TypePublicRooms,
		Rooms: h.reg.PublicRooms(),
	})
	if err := h.conn.Send(payload); err != nil {
		slog.Debug("ws: send public rooms failed", "err", err)
	}
}

// handleP2PInit — рандеву: гость, объявивший готовность, получает P2PInit
// с id хоста, а остальным уходит ReceiveInit, чтобы они готовили оффер в
// его сторону. Хост рассылку не триггерит: он сам точка рандеву.
func (h *Handler) handleP2PInit() {
	if h.state != sessionBound {
		return
	}

	hostID, _ := h.reg.HostID(h.roomID)
	h.reg.SendTo(h.roomID, h.peerID, encode(P2PInit{
		Type:     TypeP2PInit,
		SocketID: h.peerID,
		RoomID:   h.roomID,
		HostID:   hostID,
	}))

	if !h.isHost {
		h.reg.Broadcast(h.roomID, encode(ReceiveInit{
			Type:     TypeReceiveInit,
			SocketID: h.peerID,
		}), h.conn)
	}
}

func (h *Handler) handleSignal(data []byte) {
	if h.state != sessionBound {
		h.closeInvalid("not hosting or joined a room")
		return
	}

	var msg RtcSignal
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("ws: bad signal payload", "err", err)
		return
	}

	// адресат должен состоять в той же комнате, иначе сигнал теряется
	if !h.reg.ContainsPeer(h.roomID, msg.SocketID) {
		slog.Debug("ws: signal target not in room", "room", h.roomID, "target", msg.SocketID)
		return
	}

	h.reg.SendTo(h.roomID, msg.SocketID, encode(RtcSignal{
		Type:     TypeRtcSignal,
		SocketID: h.peerID,
		Signal:   msg.Signal,
	}))
}

func (h *Handler) handleSendInit(data []byte) {
	if h.state != sessionBound {
		h.closeInvalid("not hosting or joined a room")
		return
	}

	var msg SendInit
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("ws: bad sendInit payload", "err", err)
		return
	}

	// без проверки существования адресата: SendTo сам no-op по отсутствию
	h.reg.SendTo(h.roomID, msg.SocketID, encode(SendInit{
		Type:     TypeSendInit,
		SocketID: h.peerID,
	}))
}

// handleDisconnect — логический выход из комнаты без закрытия сокета.
// Повторный disconnect в Unbound — no-op.
func (h *Handler) handleDisconnect() {
	if h.state != sessionBound {
		return
	}

	roomID, peerID := h.roomID, h.peerID
	h.reg.DisconnectPeer(roomID, peerID)
	h.reg.Broadcast(roomID, encode(RemovePeer{
		Type:     TypeRemovePeer,
		SocketID: peerID,
	}), nil)

	h.unbind()
}

// handleTransportError сводит ошибку чтения к close-обработке: штатный
// close-фрейм несёт код и причину клиента, всё остальное — обрыв.
func (h *Handler) handleTransportError(err error) {
	code := websocket.CloseNormalClosure
	reason := ""

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code != websocket.CloseNoStatusReceived {
			code = ce.Code
		}
		reason = ce.Text
	} else {
		h.conn.markAborted()
		slog.Debug("ws: read failed, closing connection", "peer", h.peerID, "err", err)
	}

	h.closeConnection(code, reason)
}

// closeConnection — единая уборка при закрытии/обрыве транспорта:
// привязанный пир удаляется из реестра, остальным уходит RemovePeer.
func (h *Handler) closeConnection(code int, reason string) {
	defer func() { h.state = sessionClosed }()

	if h.state != sessionBound {
		if !h.conn.Aborted() {
			_ = h.conn.Close(websocket.CloseNormalClosure, "closed")
		}
		return
	}

	slog.Debug("ws: removing socket", "room", h.roomID, "peer", h.peerID, "code", code)

	roomID, peerID := h.roomID, h.peerID
	h.reg.RemoveSocket(roomID, peerID, code, reason)
	h.reg.Broadcast(roomID, encode(RemovePeer{
		Type:     TypeRemovePeer,
		SocketID: peerID,
	}), nil)

	h.unbind()
}

// closeInvalid закрывает соединение из-за протокольного нарушения.
func (h *Handler) closeInvalid(reason string) {
	_ = h.conn.Close(websocket.CloseInvalidFramePayloadData, reason)
	h.state = sessionClosed
}

func (h *Handler) bind(roomID, peerID string, host bool) {
	h.roomID = roomID
	h.peerID = peerID
	h.isHost = host
	h.state = sessionBound
}

func (h *Handler) unbind() {
	h.roomID = ""
	h.peerID = ""
	h.isHost = false
	h.state = sessionUnbound
}
