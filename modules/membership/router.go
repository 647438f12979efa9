// Package membership exposes the subscription core over HTTP: paid
// checkout, the gateway payment webhook, free-plan activation,
// cancellation, and public card verification.
//
// Authentication is out of scope here: an upstream auth proxy injects
// the caller's identity as the X-User-ID header, and this module only
// requires its presence on user-scoped routes.
package membership

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubecard/api/billing"
)

// Service is the slice of the billing core this module drives.
type Service interface {
	Checkout(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutResult, error)
	HandlePaymentWebhook(ctx context.Context, event billing.WebhookEvent, token string) (*billing.Subscription, error)
	ActivateFree(ctx context.Context, userID, planID uuid.UUID) (*billing.Subscription, error)
	Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) (*billing.Subscription, error)
	ActiveSubscription(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error)
	CardByBarcode(ctx context.Context, barcode string) (*billing.Card, error)
}

// Healthcheck probes a dependency for the readiness endpoint.
type Healthcheck func(ctx context.Context) error

// RouterOptions configures the membership router.
type RouterOptions struct {
	Service      Service
	Logger       *slog.Logger
	Healthchecks map[string]Healthcheck
}

// Router mounts the membership HTTP surface.
func Router(opts RouterOptions) chi.Router {
	if opts.Service == nil {
		panic("membership: Service is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	h := &handlers{svc: opts.Service, log: log, health: opts.Healthchecks}

	r := chi.NewRouter()
	r.Post("/checkout", h.checkout)
	r.Post("/webhook/payment", h.paymentWebhook)
	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/activate-free", h.activateFree)
		r.Post("/cancel", h.cancel)
		r.Get("/active", h.activeSubscription)
	})
	r.Get("/card/{barcode}", h.card)
	r.Get("/health", h.healthz)

	return r
}
