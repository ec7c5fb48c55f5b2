package http

import (
	"encoding/json"
	"net/http"

	"github.com/dov-vai/PuzzApi/internal/registry"
	"github.com/dov-vai/PuzzApi/pkg/httputil"
)

type GameHandler struct {
	reg *registry.Registry
}

func NewGameHandler(reg *registry.Registry) *GameHandler {
	return &GameHandler{reg: reg}
}

// GET /public-rooms — тот же снапшот, что по WS отдаёт publicRooms.
func (h *GameHandler) PublicRooms(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.reg.PublicRooms())
}

// POST /host-game — создать комнату заранее, до подключения по WS.
// TODO: authorization / guest system
func (h *GameHandler) HostGame(w http.ResponseWriter, r *http.Request) {
	var req HostGame
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	roomID := h.reg.CreateRoom(req.Title, req.PieceCount, req.Public, req.AllowGuests)
	httputil.JSON(w, http.StatusOK, HostGameResponse{RoomID: roomID})
}
