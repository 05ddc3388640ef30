// Package httptransport is the thin HTTP layer. It delegates to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all public endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/identities", h.handleGetOrCreateIdentity)
		r.Post("/identities/{muuid}/emails", h.handleChangeEmail)
		r.Get("/identities/{muuid}/emails", h.handleEmailHistory)
		r.Delete("/identities/{muuid}/preferences", h.handlePurge)
		r.Get("/accounts/{uuid}/identity", h.handleLookupAccount)
		r.Put("/preferences", h.handleUpsertPreference)
		r.Get("/preferences", h.handleQueryPreferences)
	})

	r.Post("/admin/config/refresh/{appID}", h.handleConfigRefresh)

	return r
}
