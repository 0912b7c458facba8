package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all circuit and state routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/circuits", func(r chi.Router) {
		r.Post("/run", h.HandleRunCircuit)
		r.Post("/validate", h.HandleValidateCircuit)
	})
	r.Route("/states", func(r chi.Router) {
		r.Post("/parse", h.HandleParseState)
		r.Post("/analyze", h.HandleAnalyzeState)
	})
	r.Get("/gates", h.HandleGetGates)
	r.Get("/backends", h.HandleGetBackends)
}
