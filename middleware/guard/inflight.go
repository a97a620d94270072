package guard

import (
	"net/http"
	"time"

	"request-guard/middleware/guard/application"
	"request-guard/middleware/guard/infra"

	"go.uber.org/zap"
)

// InflightLimit limita requisições simultâneas no processo inteiro. Fica
// fora do Guard: max <= 0 devolve o handler sem alteração.
func InflightLimit(max int, wait time.Duration, logger *zap.Logger) func(next http.Handler) http.Handler {
	if max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := application.InflightService{Pool: infra.NewChanSlots(max), Wait: wait}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Enter(r.Context())
			if !ok {
				logger.Warn("server busy, request rejected",
					zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Int("max_inflight", max))
				w.Header().Set("Retry-After", "1")
				WriteJSON(w, http.StatusServiceUnavailable, messageBody{Error: "Server busy"})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
