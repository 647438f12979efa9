package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clubecard/api/pkg/barcode"
	"github.com/clubecard/api/pkg/pg"
)

// freeGrantDays is the fixed membership window granted by free-plan
// activation, independent of the plan's billing cycle.
const freeGrantDays = 30

// barcodeAttempts bounds regeneration when a generated card token
// collides with an existing one. With a 10^12 keyspace collisions are
// vanishingly rare; three attempts is plenty.
const barcodeAttempts = 3

// WebhookConfig holds the shared secret the payment gateway sends with
// webhook deliveries. An empty token disables authentication, which is
// acceptable only in local development.
type WebhookConfig struct {
	AccessToken string `env:"PAYMENT_WEBHOOK_TOKEN"`
}

// Service is the subscription core: checkout, webhook reconciliation,
// free activation, cancellation, and card lookup.
type Service struct {
	catalog PlanCatalog
	gateway PaymentGateway
	store   SubscriptionStore
	cards   CardCache
	webhook WebhookConfig
	log     *slog.Logger
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCardCache enables cached public card lookups.
func WithCardCache(cache CardCache) ServiceOption {
	return func(s *Service) { s.cards = cache }
}

// WithWebhookConfig sets the webhook shared secret.
func WithWebhookConfig(cfg WebhookConfig) ServiceOption {
	return func(s *Service) { s.webhook = cfg }
}

// NewService creates the subscription service. Panics on nil required
// collaborators to fail fast during initialization.
func NewService(catalog PlanCatalog, gateway PaymentGateway, store SubscriptionStore, opts ...ServiceOption) *Service {
	if catalog == nil {
		panic("billing: PlanCatalog is required")
	}
	if gateway == nil {
		panic("billing: PaymentGateway is required")
	}
	if store == nil {
		panic("billing: SubscriptionStore is required")
	}

	s := &Service{
		catalog: catalog,
		gateway: gateway,
		store:   store,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActivateFree activates a zero-price plan for the user with no gateway
// interaction. Refuses paid plans: a plan priced above zero can only be
// activated through webhook-confirmed payment.
func (s *Service) ActivateFree(ctx context.Context, userID, planID uuid.UUID) (*Subscription, error) {
	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, ErrPlanNotActive
	}
	if !plan.IsFree() {
		return nil, ErrPlanNotFree
	}

	start := time.Now().UTC()
	end := start.AddDate(0, 0, freeGrantDays)

	result, err := s.activateWithFreshBarcode(ctx, ActivateParams{
		UserID:    userID,
		PlanID:    planID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCards(ctx, result.SupersededBarcodes)
	s.log.InfoContext(ctx, "free plan activated",
		"user_id", userID, "plan_id", planID,
		"subscription_id", result.Subscription.ID)

	return result.Subscription, nil
}

// Cancel transitions the user's subscription to cancelled. Only the
// owner can cancel; anyone else gets ErrSubscriptionNotFound. Idempotent:
// repeating the call yields the same final state and a success.
func (s *Service) Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) (*Subscription, error) {
	sub, err := s.store.Cancel(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	s.invalidateCards(ctx, []string{sub.Barcode})
	return sub, nil
}

// ActiveSubscription returns the user's current active subscription.
func (s *Service) ActiveSubscription(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.store.GetActiveForUser(ctx, userID)
}

// CardByBarcode resolves a membership card for public verification.
// Served from cache when possible; the database is the fallback.
func (s *Service) CardByBarcode(ctx context.Context, code string) (*Card, error) {
	if s.cards != nil {
		if card, ok := s.cards.Get(ctx, code); ok {
			return card, nil
		}
	}

	sub, err := s.store.GetByBarcode(ctx, code)
	if err != nil {
		return nil, err
	}

	planName := ""
	if plan, err := s.catalog.GetPlan(ctx, sub.PlanID); err == nil {
		planName = plan.Name
	}

	card := &Card{
		Barcode:  sub.Barcode,
		PlanName: planName,
		Status:   sub.Status,
		EndDate:  sub.EndDate,
	}
	if s.cards != nil {
		s.cards.Set(ctx, card)
	}
	return card, nil
}

// activateWithFreshBarcode runs the supersede-and-activate transition,
// regenerating the card token on the rare unique-constraint collision.
func (s *Service) activateWithFreshBarcode(ctx context.Context, params ActivateParams) (*ActivationResult, error) {
	for i := 0; i < barcodeAttempts; i++ {
		code, err := barcode.Generate()
		if err != nil {
			return nil, err
		}
		params.Barcode = code

		result, err := s.store.SupersedeActiveAndActivate(ctx, params)
		if err == nil {
			return result, nil
		}
		if !pg.IsDuplicateKey(err) {
			return nil, err
		}
		// Duplicate key on the webhook path can also mean a concurrent
		// redelivery landed the same transaction id first.
		if params.Payment != nil {
			exists, checkErr := s.store.PaymentExists(ctx, params.Payment.TransactionID)
			if checkErr == nil && exists {
				return nil, errDuplicatePayment
			}
		}
	}
	return nil, ErrBarcodeExhausted
}

// errDuplicatePayment is internal: it signals that a concurrent webhook
// delivery already recorded the payment, so the caller acks success.
var errDuplicatePayment = fmt.Errorf("billing: payment already recorded")

func (s *Service) invalidateCards(ctx context.Context, barcodes []string) {
	if s.cards == nil || len(barcodes) == 0 {
		return
	}
	s.cards.Invalidate(ctx, barcodes...)
}
