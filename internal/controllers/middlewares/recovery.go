package middlewares

import (
	"net/http"

	"github.com/casherops/skladrelay/internal/infra/logger"
	"go.uber.org/zap"
)

// Recovery перехватывает панику обработчика и возвращает внутреннюю ошибку сервера
func Recovery(h http.Handler) http.Handler {
	recoveryFn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Log.Error("handler panic recovered",
					zap.Any("panic", rec),
					zap.String("uri", r.RequestURI))
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(recoveryFn)
}
