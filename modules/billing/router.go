package billing

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/chatbill/core"
	"github.com/dmitrymomot/chatbill/pkg/ratelimit"
)

// RouterDeps carries everything Routes needs besides the handler itself.
type RouterDeps struct {
	SessionVerifier SessionVerifier
	LimitStore      ratelimit.Store
}

// Routes mounts the billing HTTP surface. The webhook endpoint sits
// outside the session-auth group: it authenticates with the body
// signature instead, and rate limiting it would let an attacker starve
// legitimate gateway deliveries.
func (h *Handler) Routes(deps RouterDeps) chi.Router {
	keyFn := ratelimit.FirstOf(
		ratelimit.ByUserID(userIDFromRequest),
		ratelimit.ByClientIP(),
	)
	limited := func(class ratelimit.Class) func(http.Handler) http.Handler {
		limiter, err := ratelimit.NewFixedWindow(deps.LimitStore, class)
		if err != nil {
			// Classes are compile-time constants; a bad one is a wiring bug.
			panic(err)
		}
		return ratelimit.Middleware(
			limiter,
			keyFn,
			ratelimit.WithLogger(h.log),
			ratelimit.WithOnLimit(func(w http.ResponseWriter, r *http.Request, _ *ratelimit.Result) {
				core.Error(w, r, core.ErrTooManyRequests)
			}),
		)
	}

	r := chi.NewRouter()

	r.Post("/webhook", h.HandleWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireSession(deps.SessionVerifier))

		r.Group(func(r chi.Router) {
			r.Use(limited(ratelimit.ClassPayment))
			r.Post("/payments/create-order", h.HandleCreateOrder)
			r.Post("/payments/verify-payment", h.HandleVerifyPayment)
		})

		r.Group(func(r chi.Router) {
			r.Use(limited(ratelimit.ClassAPI))
			r.Get("/subscription", h.HandleGetSubscription)
		})

		r.Group(func(r chi.Router) {
			r.Use(limited(ratelimit.ClassAuth))
			r.Post("/subscription/trial", h.HandleStartTrial)
		})
	})

	return r
}

// userIDFromRequest adapts the auth context for rate-limit keying.
func userIDFromRequest(r *http.Request) string {
	id, _ := UserIDFromContext(r.Context())
	return id
}
