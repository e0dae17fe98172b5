package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/stayease/internal/domain"
	mw "github.com/diagnosis/stayease/pkg/middleware"
)

// Routes mounts the API on r.
func (h *Handlers) Routes(r chi.Router) {
	idempotent := func(next http.Handler) http.Handler { return next }
	if h.idempotency != nil {
		idempotent = mw.IdempotencyMiddleware(h.idempotency)
	}

	r.With(h.RateLimit("verify", h.config.RateLimit.VerifyRequests)).Get("/verifyEmail", h.VerifyEmail)

	r.Route("/auth", func(r chi.Router) {
		r.With(h.RateLimit("register", h.config.RateLimit.RegisterRequests)).Post("/register", h.Register)
		r.With(h.RateLimit("resend", h.config.RateLimit.RegisterRequests)).Post("/resend-verification", h.ResendVerification)
		r.Post("/login", h.Login)
	})

	r.Get("/plans", h.Plans)
	r.Get("/listings/search", h.SearchListings)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireJWT(""))
		r.Get("/me", h.Me)
		r.Post("/me/become-host", h.BecomeHost)

		r.Post("/bookings/checkout", h.BookingCheckout)
		r.With(idempotent).Post("/bookings", h.CreateBooking)
		r.Get("/guest/bookings", h.GuestBookings)
	})

	r.Route("/host", func(r chi.Router) {
		r.Use(h.RequireJWT(domain.RoleHost))
		r.Get("/subscription", h.GetSubscription)
		r.Post("/subscription/checkout", h.SubscriptionCheckout)
		r.With(idempotent).Post("/subscription/activate", h.ActivateSubscription)

		r.Get("/listings", h.HostListings)
		r.Post("/listings", h.CreateListing)
		r.Post("/listings/{id}/publish", h.PublishListing)
		r.Delete("/listings/{id}", h.DeleteListing)

		r.Get("/bookings", h.HostBookings)
		r.Get("/calendar", h.Calendar)
		r.Post("/availability", h.AddAvailability)
		r.Delete("/availability/{id}", h.RemoveAvailability)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.RequireJWT(domain.RoleAdmin))
		r.Get("/users", h.ListUsers)
		r.Patch("/users/{id}/role", h.UpdateUserRole)
		r.Get("/stats", h.Stats)
	})
}
