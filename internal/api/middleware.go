package api

import (
	"net/http"

	"github.com/google/uuid"

	"intents-agent/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// requestID 为每个请求分配唯一 ID，沿用调用方已携带的值，并写入上下文供日志使用。
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
