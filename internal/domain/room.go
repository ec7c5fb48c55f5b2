package domain

// Peer — участник комнаты: идентичность плюс транспорт.
type Peer struct {
	ID   string
	Conn Conn
}

// PublicRoom — строка публичного списка комнат.
// Имена полей на проводе — PascalCase, как их ждёт фронт.
type PublicRoom struct {
	ID          string `json:"Id"`
	Title       string `json:"Title"`
	PieceCount  int    `json:"PieceCount"`
	PlayerCount int    `json:"PlayerCount"`
}
