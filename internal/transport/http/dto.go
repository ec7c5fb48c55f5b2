package http

// Тела запросов/ответов. Имена полей на проводе — PascalCase,
// как их шлёт фронт.

type Credentials struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

type UserInfo struct {
	Username string `json:"Username"`
}

type HostGame struct {
	Title       string `json:"Title"`
	PieceCount  int    `json:"PieceCount"`
	Public      bool   `json:"Public"`
	AllowGuests bool   `json:"AllowGuests"`
}

type HostGameResponse struct {
	RoomID string `json:"RoomId"`
}
