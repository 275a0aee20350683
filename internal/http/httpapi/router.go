package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"creatorsupport/internal/http/handlers"
	"creatorsupport/internal/middleware"
)

// Options configures the cross-cutting middleware.
type Options struct {
	JWTSecret          string
	CORSAllowedOrigins []string
	RateLimitPerMin    int
	DefaultLocale      string
	CountryLookup      middleware.CountryLookup
	// TrustProxy takes the client address from X-Forwarded-For and friends.
	// Leave it off unless a proxy you control rewrites those headers.
	TrustProxy bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.CORSAllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute, app.TooManyRequests)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Route("/payments", func(r chi.Router) {
			r.With(limited).Post("/", app.PaymentsCreate)
			r.With(limited).Post("/verify", app.PaymentsVerify)
			r.Post("/webhook", app.PaymentsWebhook)
			r.Get("/{orderId}", app.PaymentsGet)
		})

		r.Route("/creators/{creatorId}", func(r chi.Router) {
			r.Get("/supporters", app.CreatorSupporters)
			r.Get("/analytics", app.CreatorAnalytics)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret, app.Unauthorized), middleware.RequireAdmin(app.Unauthorized))
			r.Get("/subscription-setups", app.AdminListSetups)
			r.Post("/subscription-setups/{paymentId}/retry", app.AdminRetrySetup)
			r.Post("/subscriptions/{id}/cancel", app.AdminCancelSubscription)
		})
	})

	return r
}
