package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/metrics"
)

const requestTimeout = 15 * time.Second

type Deps struct {
	Accounts     AccountService
	Sellers      SellerService
	Logger       logrus.FieldLogger
	AllowOrigins []string

	// Limiter is optional; nil leaves register and login unthrottled.
	Limiter *RateLimiter

	// Health reports backing store reachability. Nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	h := NewHandler(d.Accounts, d.Sellers, d.Logger)

	r := chi.NewRouter()

	// Middlewares (outer -> inner)
	r.Use(middleware.RequestID)
	r.Use(CorrelationID)
	r.Use(Logging(d.Logger))
	r.Use(Recover(d.Logger))
	r.Use(CORS(d.AllowOrigins))
	r.Use(metrics.Instrument)

	r.Get("/health", healthHandler(d.Health))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(d.Limiter.Handler)
			}
			r.Post("/register/customer", h.RegisterCustomer)
			r.Post("/login/customer", h.LoginCustomer)
			r.Post("/register/seller", h.RegisterSeller)
			r.Post("/login/seller", h.LoginSeller)
		})

		r.Post("/logout/customer", h.LogoutCustomer)
		r.Post("/logout/seller", h.LogoutSeller)

		r.Get("/customers", h.ListCustomers)

		r.Route("/customer", func(r chi.Router) {
			r.Get("/current", h.CurrentCustomer)
			r.Put("/", h.ReplaceCustomer)
			r.Delete("/", h.DeleteCustomer)
			r.Put("/update/credentials", h.UpdateContact)
			r.Put("/update/password", h.UpdatePassword)
			r.Put("/update/address", h.UpdateAddress)
			r.Put("/update/card", h.UpdateCreditCard)
			r.Delete("/delete/address", h.DeleteAddress)
			r.Get("/orders", h.ListOrders)
		})
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
