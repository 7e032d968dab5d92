/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/clients/*   Client records
  /api/loans/*     Loans, installments, fines, payments, allocation
  /api/cash/*      Cash register day summaries
  /api/rates       Rate table display

SECURITY NOTE:
  Authentication and role permissions are the surrounding application's
  concern; every endpoint here is public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Delete("/{id}", h.DeleteClient)
			r.Get("/{id}/loans", h.ListClientLoans)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/", h.ListLoans)
			r.Post("/", h.CreateLoan)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLoan)
				r.Delete("/", h.DeleteLoan)
				r.Get("/allocation", h.GetAllocation)
				r.Get("/status", h.GetStatus)
				r.Post("/renew", h.RenewLoan)

				r.Post("/payments", h.AddPayment)
				r.Delete("/payments/{paymentID}", h.RemovePayment)

				r.Post("/discounts", h.AddDiscount)
				r.Delete("/discounts/{discountID}", h.RemoveDiscount)

				r.Route("/installments/{seq}", func(r chi.Router) {
					r.Post("/fines", h.AddFine)
					r.Delete("/fines/{fineID}", h.RemoveFine)
					r.Post("/paid", h.MarkPaid)
					r.Delete("/paid", h.UnmarkPaid)
					r.Put("/due-date", h.EditDueDate)
				})
			})
		})

		r.Get("/cash/{date}", h.GetCashSummary)
		r.Get("/rates", h.GetRates)
	})

	return r
}
