package registry

import (
	"log/slog"
	"sync"

	"github.com/dov-vai/PuzzApi/internal/domain"

	"github.com/google/uuid"
)

// room — запись реестра. Мьютекс комнаты сериализует операции над её
// списком пиров; мьютекс реестра берётся только на вставку, удаление и
// поиск записей, так что независимые комнаты друг друга не тормозят.
type room struct {
	mu     sync.Mutex
	id     string
	title  string
	pieces int
	public bool
	guests bool
	host   *domain.Peer
	peers  []*domain.Peer
	closed bool // комната опустела и удалена из реестра
}

// Registry — единственный владелец членства в комнатах. Все мутации
// идут через его методы, каждый метод — один атомарный шаг.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func New() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// CreateRoom регистрирует новую комнату и возвращает её id.
// Коллизии uuid не отрабатываем.
func (r *Registry) CreateRoom(title string, pieceCount int, public, allowGuests bool) string {
	rm := &room{
		id:     uuid.NewString(),
		title:  title,
		pieces: pieceCount,
		public: public,
		guests: allowGuests,
	}

	r.mu.Lock()
	r.rooms[rm.id] = rm
	r.mu.Unlock()

	slog.Debug("registry: room created", "room", rm.id, "title", title, "public", public)

	return rm.id
}

// AddPeer добавляет нового пира в комнату. Первый добавленный становится
// хостом. Возвращает domain.ErrRoomNotFound, если комната неизвестна либо
// была конкурентно удалена.
func (r *Registry) AddPeer(roomID string, conn domain.Conn) (string, error) {
	rm := r.lookup(roomID)
	if rm == nil {
		return "", domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.closed {
		// опустела и была снесена, пока мы до неё добирались
		return "", domain.ErrRoomNotFound
	}

	peer := &domain.Peer{ID: uuid.NewString(), Conn: conn}
	if rm.host == nil {
		rm.host = peer
	}
	rm.peers = append(rm.peers, peer)

	return peer.ID, nil
}

// DisconnectPeer убирает пира из комнаты, не трогая его сокет:
// клиент остаётся подключённым и может хостить или зайти в другую комнату.
func (r *Registry) DisconnectPeer(roomID, peerID string) {
	rm := r.lookup(roomID)
	if rm == nil {
		return
	}

	rm.mu.Lock()
	peer := rm.removePeerLocked(peerID)
	emptied := peer != nil && len(rm.peers) == 0
	if emptied {
		rm.closed = true
	}
	rm.mu.Unlock()

	if emptied {
		r.deleteRoom(roomID)
	}
}

// RemoveSocket убирает пира из комнаты и закрывает его сокет с переданным
// кодом и причиной. Аварийно оборванный сокет не закрываем повторно.
func (r *Registry) RemoveSocket(roomID, peerID string, code int, reason string) {
	rm := r.lookup(roomID)
	if rm == nil {
		return
	}

	rm.mu.Lock()
	peer := rm.removePeerLocked(peerID)
	emptied := peer != nil && len(rm.peers) == 0
	if emptied {
		rm.closed = true
	}
	rm.mu.Unlock()

	if peer != nil && !peer.Conn.Aborted() {
		if err := peer.Conn.Close(code, reason); err != nil {
			slog.Debug("registry: close socket failed", "room", roomID, "peer", peerID, "err", err)
		}
	}

	if emptied {
		r.deleteRoom(roomID)
	}
}

// SendTo пишет payload одному пиру. Если комнаты или пира уже нет, либо
// сокет не открыт — молча ничего не делает: сигналинг best-effort.
func (r *Registry) SendTo(roomID, peerID string, payload []byte) {
	rm := r.lookup(roomID)
	if rm == nil {
		return
	}

	rm.mu.Lock()
	peer := rm.findPeerLocked(peerID)
	rm.mu.Unlock()

	if peer == nil || !peer.Conn.Open() {
		return
	}
	if err := peer.Conn.Send(payload); err != nil {
		slog.Debug("registry: send failed", "room", roomID, "peer", peerID, "err", err)
	}
}

// Broadcast пишет payload всем пирам комнаты с открытым сокетом,
// пропуская exclude. Обход — в порядке вступления, доставка best-effort;
// шлём по снапшоту, чтобы медленный клиент не держал мьютекс комнаты.
func (r *Registry) Broadcast(roomID string, payload []byte, exclude domain.Conn) {
	rm := r.lookup(roomID)
	if rm == nil {
		return
	}

	rm.mu.Lock()
	peers := make([]*domain.Peer, len(rm.peers))
	copy(peers, rm.peers)
	rm.mu.Unlock()

	for _, p := range peers {
		if exclude != nil && p.Conn == exclude {
			continue
		}
		if !p.Conn.Open() {
			continue
		}
		if err := p.Conn.Send(payload); err != nil {
			slog.Debug("registry: broadcast send failed", "room", roomID, "peer", p.ID, "err", err)
		}
	}
}

// PublicRooms — снапшот публичных комнат, порядок не гарантируется.
func (r *Registry) PublicRooms() []domain.PublicRoom {
	r.mu.RLock()
	rooms := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	out := make([]domain.PublicRoom, 0, len(rooms))
	for _, rm := range rooms {
		rm.mu.Lock()
		if rm.public && !rm.closed {
			out = append(out, domain.PublicRoom{
				ID:          rm.id,
				Title:       rm.title,
				PieceCount:  rm.pieces,
				PlayerCount: len(rm.peers),
			})
		}
		rm.mu.Unlock()
	}

	return out
}

// HostID возвращает id хоста комнаты, если он есть.
func (r *Registry) HostID(roomID string) (string, bool) {
	rm := r.lookup(roomID)
	if rm == nil {
		return "", false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.host == nil {
		return "", false
	}
	return rm.host.ID, true
}

func (r *Registry) ContainsRoom(roomID string) bool {
	return r.lookup(roomID) != nil
}

func (r *Registry) ContainsPeer(roomID, peerID string) bool {
	rm := r.lookup(roomID)
	if rm == nil {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	return rm.findPeerLocked(peerID) != nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func (r *Registry) lookup(roomID string) *room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.rooms[roomID]
}

func (r *Registry) deleteRoom(roomID string) {
	r.mu.Lock()
	delete(r.rooms, roomID)
	r.mu.Unlock()

	slog.Debug("registry: empty room deleted", "room", roomID)
}

// findPeerLocked — вызывать только под rm.mu.
func (rm *room) findPeerLocked(peerID string) *domain.Peer {
	for _, p := range rm.peers {
		if p.ID == peerID {
			return p
		}
	}
	return nil
}

// removePeerLocked убирает пира из списка, сохраняя порядок вступления.
// Если ушёл хост, комната остаётся без хоста. Вызывать только под rm.mu.
func (rm *room) removePeerLocked(peerID string) *domain.Peer {
	for i, p := range rm.peers {
		if p.ID == peerID {
			rm.peers = append(rm.peers[:i], rm.peers[i+1:]...)
			if rm.host == p {
				rm.host = nil
			}
			return p
		}
	}
	return nil
}
