package handlers

import (
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// terminal-facing routes
		r.Get("/health", h.HealthHandler)
		r.Post("/checkout", h.CheckoutHandler)
		r.Get("/wallet/{tag}", h.BalanceCheckHandler)

		// back-office routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Post("/users", h.RegisterUserHandler)
			r.Get("/users", h.ListUsersHandler)
			r.Get("/users/{id}", h.GetUserHandler)
			r.Put("/users/{id}", h.UpdateUserHandler)
			r.Delete("/users/{id}", h.DeleteUserHandler)

			r.Post("/users/{id}/load", h.LoadMoneyHandler)
			r.Get("/users/{id}/history", h.HistoryHandler)
			r.Get("/users/{id}/balance/audit", h.AuditBalanceHandler)

			r.Get("/users/{id}/tags", h.ListTagsHandler)
			r.Post("/users/{id}/tags", h.AddTagHandler)
			r.Delete("/users/{id}/tags/{tag}", h.RemoveTagHandler)

			r.Get("/reports/sales", h.SalesReportHandler)
			r.Post("/admin/wipe", h.WipeHandler)
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
		"service_id": 4011907,
		"exp":        expirationTime,
	})

	// For debugging only, comment it out in production
	log.Infof("DEBUG: JWT for testing expires soon : %s", tokenString)
}
