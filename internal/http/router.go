package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/health/model", h.ModelHealth).Methods(http.MethodGet)
	r.HandleFunc("/chat", h.Chat).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/ingest", h.Ingest).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/collection", h.EnsureCollection).Methods(http.MethodPost, http.MethodOptions)

	r.Use(recoverMiddleware(logger), accessLogMiddleware(logger), corsMiddleware(allowedOrigins))

	return r
}
