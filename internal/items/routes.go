package items

import "github.com/go-chi/chi/v5"

// RegisterRoutes registra rutas de items en el router.
// Las rutas fijas (undo, audit, value, export, import) conviven con /{id}.
func RegisterRoutes(route chi.Router, handler *Handler) {
	route.Route("/items", func(route chi.Router) {
		route.Post("/", handler.Create)
		route.Get("/", handler.List)

		route.Post("/undo", handler.Undo)
		route.Get("/audit", handler.Audit)
		route.Get("/value", handler.Value)
		route.Get("/value.csv", handler.ValueCSV)
		route.Get("/export.csv", handler.ExportCSV)
		route.Get("/export.json", handler.ExportJSON)
		route.Post("/import", handler.Import)

		route.Get("/{id}", handler.GetByID)
		route.Patch("/{id}", handler.Patch)
		route.Delete("/{id}", handler.Delete)
	})
}
