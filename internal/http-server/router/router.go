package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wb-go/wbf/zlog"

	"rentspace/internal/http-server/handler/property"
	"rentspace/internal/http-server/middleware"
)

type Handler struct {
	PropertyHandler *property.PropertyHandler
}

func SetupRouter(h *Handler, logger *zlog.Zerolog) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/properties", func(r chi.Router) {
			r.Post("/", h.PropertyHandler.CreateProperty)
			r.Get("/", h.PropertyHandler.Search)
			r.Get("/owner/{owner}", h.PropertyHandler.ListByOwner)
			r.Get("/{id}", h.PropertyHandler.GetProperty)
			r.Put("/{id}", h.PropertyHandler.UpdateProperty)
			r.Delete("/{id}", h.PropertyHandler.DeleteProperty)
		})

		r.Route("/photos", func(r chi.Router) {
			r.Get("/{id}", h.PropertyHandler.GetPhoto)
			r.Post("/{id}/reprocess", h.PropertyHandler.ReprocessPhoto)
		})

		r.Get("/stats", h.PropertyHandler.GetStats)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
