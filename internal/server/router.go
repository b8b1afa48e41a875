package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/knygynas/internal/security"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(security.Middleware(s.security))
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/health", s.health.HTTPHandler())
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if s.hub != nil && s.config.Development.HotReload {
		r.Get("/ws", s.hub.ServeHTTP)
	}

	if dir := s.config.Server.StaticDir; dir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Get("/", s.handleList)
		r.Get("/create", s.handleCreate)
		r.Post("/store", s.handleStore)
		r.Get("/edit/{id}", s.handleEdit)
		r.Post("/update/{id}", s.handleUpdate)
		r.Get("/delete/{id}", s.handleDelete)
		r.Post("/destroy/{id}", s.handleDestroy)
		r.Get("/show/{id}", s.handleShow)
	})

	return r
}

// requestLogger logs one line per request after it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Debug(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
