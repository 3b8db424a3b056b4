package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/auth"
	groupHandler "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/group"
	ledgerHandler "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/ledger"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/middleware"
	userHandler "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/user"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/metrics"
)

func New(
	tokens *auth.JWTManager,
	usersV1 *userHandler.Handler,
	groupsV1 *groupHandler.Handler,
	ledgerV1 *ledgerHandler.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			usersV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))

			r.Route("/groups", func(r chi.Router) {
				groupsV1.Routes(r)
				ledgerV1.BalanceRoutes(r)
			})

			r.Route("/expenses", func(r chi.Router) {
				ledgerV1.ExpenseRoutes(r)
			})

			r.Route("/payments", func(r chi.Router) {
				ledgerV1.PaymentRoutes(r)
			})

			r.Route("/settlements", ledgerV1.SettlementRoutes)

			r.Route("/analytics", ledgerV1.AnalyticsRoutes)
		})
	})

	return router
}
