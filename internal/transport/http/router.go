package http

import (
	"net/http"

	"adaptive-quiz-service/internal/app"
	"github.com/rs/zerolog"
)

// NewRouter builds the full HTTP surface. metrics may be nil.
func NewRouter(service *app.SessionService, metrics http.Handler, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	NewHandler(service).RegisterRoutes(mux)
	mux.HandleFunc("GET /ws", NewWSHandler(service).ServeWS)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return RequestLogger(logger.With().Str("component", "http").Logger(), mux)
}
