package handlers

import "github.com/go-chi/chi/v5"

// RegisterPersonRoutes mounts the person pages on r.
func RegisterPersonRoutes(r chi.Router, ph *PersonHandler) {
	r.Get("/", ph.Index)
	r.Get("/list", ph.List)

	r.Route("/person", func(r chi.Router) {
		r.Post("/", ph.Save)
		r.Get("/new", ph.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", ph.Edit)
			r.Post("/", ph.Update)
			r.Post("/delete", ph.Delete)
			r.Delete("/delete", ph.Delete)
		})
	})

	r.NotFound(ph.NotFound)
}
