package httputil

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// MiddlewareLogging логирует метод, путь, статус, размер и длительность.
// Тела не пишем: через этот сервис ходят пароли и SDP-портянки.
// Обёртка chi прозрачна для Hijack, иначе сломался бы апгрейд /ws.
func MiddlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(lrw, r)

		reqID, _ := RequestIDFromContext(r.Context())
		slog.Info("http request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.Status(),
			"bytes", lrw.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
