package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/relay-service/internal/delivery/http/handler"
	"github.com/user/relay-service/internal/delivery/http/middleware"
	"go.uber.org/zap"
)

// requestTimeout bounds a whole API call, including a login that precedes a save.
const requestTimeout = 60 * time.Second

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)

		r.Get("/scrape", h.HandleScrape)
		r.Post("/scrape", h.HandleScrape)

		r.Post("/login/{channel}", h.HandleLogin)
		r.Delete("/login/{channel}", h.HandleLogout)
		r.Post("/save/{channel}", h.HandleSave)

		r.Get("/session/{channel}", h.HandleSessionStatus)
		r.Post("/session/135/check", h.HandleSessionCheck)
		r.Post("/template/transfer", h.HandleTransfer)

		r.Get("/publish-log", h.HandlePublishLog)
	})

	return r
}
