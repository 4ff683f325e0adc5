package api

import (
	"net/http"
	"time"

	"github.com/aleister1102/downtime/internal/config"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// NewRouter registers the API handlers and wraps them with request logging and CORS.
func NewRouter(h *Handlers, cfg config.ServerConfig, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /websites", h.ListSites)
	mux.HandleFunc("POST /search", h.Search)
	mux.HandleFunc("POST /add", h.AddSite)
	mux.HandleFunc("DELETE /remove", h.RemoveSite)
	mux.HandleFunc("POST /scan", h.ScanNow)
	mux.HandleFunc("GET /healthz", h.Healthz)
	// Any other GET serves the list, which is what the dashboard falls back to.
	mux.HandleFunc("GET /", h.ListSites)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	var handler http.Handler = mux
	handler = corsHandler.Handler(handler)
	handler = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	})(handler)
	handler = hlog.RemoteAddrHandler("ip")(handler)
	handler = hlog.RequestIDHandler("req_id", "X-Request-Id")(handler)
	handler = hlog.NewHandler(logger.With().Str("component", "API").Logger())(handler)
	return handler
}
