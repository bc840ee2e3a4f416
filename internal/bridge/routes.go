package bridge

import (
	"net/http"

	"github.com/ghaggin/smartsplit/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func (h *handlers) routes() http.Handler {
	root := chi.NewRouter()
	root.Use(h.view.Wrap)

	// No Auth
	root.Group(func(r chi.Router) {
		r.Get("/session", h.getSession)
		r.Post("/session/login", h.login)
		r.Post("/session/register", h.register)
		r.Post("/session/logout", h.logout)
	})

	// Auth
	root.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.sessions))

		r.Get("/users", h.listUsers)
		r.Get("/users/{userID}", h.getUser)

		r.Get("/me/groups", h.getMyGroups)
		r.Get("/me/expenses", h.getMyExpenses)
		r.Get("/me/settlements", h.getMySettlements)

		r.Post("/groups", h.createGroup)
		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", h.getGroup)
			r.Get("/expenses", h.getGroupExpenses)
			r.Post("/expenses", h.addExpense)
			r.Get("/settlements", h.getGroupSettlements)

			r.Post("/members", h.submitMembers)
			r.Get("/members/pending", h.getPending)
			r.Post("/members/pending", h.queuePending)
			r.Delete("/members/pending/{email}", h.removePending)
		})

		r.Delete("/expenses/{expenseID}", h.deleteExpense)
		r.Post("/settlements/{settlementID}/paid", h.markSettlementPaid)
	})

	return root
}
