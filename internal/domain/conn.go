package domain

// Conn — транспортный хендл пира. Реестр и обработчик соединения
// используют его только для отправки; закрывает сокет владелец-обработчик,
// либо реестр при принудительном удалении пира.
type Conn interface {
	// Send пишет один текстовый фрейм целиком.
	Send(payload []byte) error
	// Close шлёт close-фрейм с кодом и причиной и закрывает сокет.
	Close(code int, reason string) error
	// Open — сокет жив и пригоден для записи.
	Open() bool
	// Aborted — соединение оборвано аварийно; такой сокет закрывать нельзя.
	Aborted() bool
}
