package billing

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway webhook event types that mean "money arrived". Everything else
// is acknowledged without touching the ledger.
const (
	EventPaymentReceived  = "PAYMENT_RECEIVED"
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
)

// WebhookEvent is the gateway's payment event envelope.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payment WebhookPayment `json:"payment"`
}

// WebhookPayment is the payment section of a webhook delivery.
type WebhookPayment struct {
	ID                string      `json:"id"`
	ExternalReference string      `json:"externalReference"`
	Value             float64     `json:"value"`
	BillingType       BillingType `json:"billingType"`
}

// CorrelationToken builds the opaque reference round-tripped through the
// gateway to bind a payment event back to a local user and plan.
func CorrelationToken(userID, planID uuid.UUID) string {
	return userID.String() + ":" + planID.String()
}

// ParseCorrelationToken splits an external reference into its user and
// plan ids. Anything other than two non-empty, well-formed halves is
// rejected; the reconciler never guesses.
func ParseCorrelationToken(token string) (userID, planID uuid.UUID, err error) {
	left, right, found := strings.Cut(token, ":")
	if !found || left == "" || right == "" {
		return uuid.Nil, uuid.Nil, ErrBadCorrelationToken
	}
	userID, err = uuid.Parse(left)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.Join(ErrBadCorrelationToken, err)
	}
	planID, err = uuid.Parse(right)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.Join(ErrBadCorrelationToken, err)
	}
	return userID, planID, nil
}

// HandlePaymentWebhook reconciles an asynchronous payment confirmation
// from the gateway into the subscription ledger.
//
// The returned subscription is nil when the event was filtered out or
// was a redelivery of an already-recorded payment; both are successful
// outcomes the gateway must see a 2xx for, so it stops retrying.
// Persistence failures return an error so the gateway's retry mechanism
// redelivers the event later — that retry is the sole recovery path for
// transient database unavailability here.
func (s *Service) HandlePaymentWebhook(ctx context.Context, event WebhookEvent, token string) (*Subscription, error) {
	if s.webhook.AccessToken != "" {
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.webhook.AccessToken)) != 1 {
			return nil, ErrInvalidWebhookToken
		}
	}

	if event.Event != EventPaymentReceived && event.Event != EventPaymentConfirmed {
		s.log.DebugContext(ctx, "ignoring webhook event", "event", event.Event)
		return nil, nil
	}

	userID, planID, err := ParseCorrelationToken(event.Payment.ExternalReference)
	if err != nil {
		return nil, err
	}

	// Redelivery detection: the gateway retries until it sees success,
	// and retries can race. An already-recorded transaction id means the
	// membership was granted; ack and stand down.
	exists, err := s.store.PaymentExists(ctx, event.Payment.ID)
	if err != nil {
		return nil, fmt.Errorf("billing: failed to check payment dedup: %w", err)
	}
	if exists {
		s.log.InfoContext(ctx, "duplicate webhook delivery ignored",
			"transaction_id", event.Payment.ID, "user_id", userID)
		return nil, nil
	}

	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	start := time.Now().UTC()
	end := start.AddDate(0, 0, plan.CycleDays())

	result, err := s.activateWithFreshBarcode(ctx, ActivateParams{
		UserID:    userID,
		PlanID:    planID,
		StartDate: start,
		EndDate:   end,
		Payment: &PaymentRecord{
			UserID:        userID,
			Amount:        decimal.NewFromFloat(event.Payment.Value),
			Method:        event.Payment.BillingType.Method(),
			TransactionID: event.Payment.ID,
			PaidAt:        start,
		},
	})
	if err != nil {
		if errors.Is(err, errDuplicatePayment) {
			// A concurrent delivery won the race; same outcome as the
			// dedup check above.
			return nil, nil
		}
		return nil, err
	}

	s.invalidateCards(ctx, result.SupersededBarcodes)
	s.log.InfoContext(ctx, "payment reconciled",
		"user_id", userID, "plan_id", planID,
		"subscription_id", result.Subscription.ID,
		"transaction_id", event.Payment.ID,
		"method", event.Payment.BillingType.Method())

	return result.Subscription, nil
}
