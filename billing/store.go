package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePendingParams creates a pending ledger row during paid checkout.
// A user may accumulate several pending rows from abandoned checkouts;
// that is accepted, only active rows are constrained to one per user.
type CreatePendingParams struct {
	UserID    uuid.UUID
	PlanID    uuid.UUID
	GatewayID string
	Barcode   string
	DueDate   time.Time
}

// PaymentRecord is a confirmed payment to insert alongside an
// activation, in the same transaction.
type PaymentRecord struct {
	UserID        uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	TransactionID string
	PaidAt        time.Time
}

// ActivateParams drives SupersedeActiveAndActivate. Payment is set on
// the webhook path and nil on the free-activation path.
type ActivateParams struct {
	UserID    uuid.UUID
	PlanID    uuid.UUID
	Barcode   string
	GatewayID string
	StartDate time.Time
	EndDate   time.Time
	Payment   *PaymentRecord
}

// ActivationResult reports what an activation did: the new active row
// and the barcodes of rows it cancelled, so callers can drop stale
// card-cache entries.
type ActivationResult struct {
	Subscription       *Subscription
	SupersededBarcodes []string
}

// SubscriptionStore is the subscription ledger. All mutations are named
// transitions; there is no free-form update.
type SubscriptionStore interface {
	// CreatePending inserts a pending row. No prior-row side effects.
	CreatePending(ctx context.Context, params CreatePendingParams) (*Subscription, error)

	// SupersedeActiveAndActivate atomically cancels every active row the
	// user has and inserts a new active row, plus the payment record when
	// given, all in one transaction. Concurrent invocations for the same
	// user serialize on row locks, preserving at-most-one-active.
	SupersedeActiveAndActivate(ctx context.Context, params ActivateParams) (*ActivationResult, error)

	// Cancel transitions the user's row to cancelled. Cancelling an
	// already cancelled row is a no-op success; the row is returned either
	// way. A row owned by a different user is reported as
	// ErrSubscriptionNotFound, never revealed.
	Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) (*Subscription, error)

	// GetActiveForUser returns the user's single active row, or
	// ErrSubscriptionNotFound.
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// GetByBarcode resolves a membership card token to its row.
	GetByBarcode(ctx context.Context, barcode string) (*Subscription, error)

	// PaymentExists reports whether a gateway payment id has already been
	// recorded, which is how webhook redelivery is detected.
	PaymentExists(ctx context.Context, transactionID string) (bool, error)
}
