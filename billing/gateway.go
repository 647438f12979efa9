package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentGateway abstracts the external payment provider. Implementations
// wrap the provider's HTTP API; they never retry on their own, retry
// policy belongs to the caller.
type PaymentGateway interface {
	// FindOrCreateCustomer resolves a gateway customer id for the user.
	// Lookup is by email; an existing customer missing a tax id gets it
	// patched in. Returns ErrMissingTaxID before any network call when
	// taxID is empty.
	FindOrCreateCustomer(ctx context.Context, email, name, taxID string) (string, error)

	// CreateSubscription creates a recurring subscription at the gateway.
	// Provider rejections come back as *GatewayError with the provider's
	// own description.
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*GatewaySubscription, error)

	// FirstInvoice fetches the first charge of a gateway subscription.
	// The gateway materializes invoices asynchronously, so shortly after
	// CreateSubscription this can legitimately return ErrInvoiceNotReady.
	FirstInvoice(ctx context.Context, gatewaySubscriptionID string) (*Invoice, error)

	// PixQRCode fetches the PIX payload for an invoice. Callers treat
	// absence as non-fatal: not every charge is payable by PIX.
	PixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error)
}

// Cycle is the gateway's billing period vocabulary.
type Cycle string

const (
	CycleMonthly      Cycle = "MONTHLY"
	CycleQuarterly    Cycle = "QUARTERLY"
	CycleSemiannually Cycle = "SEMIANNUALLY"
	CycleYearly       Cycle = "YEARLY"
)

// CycleForDays maps a plan's billing cycle length onto the gateway's
// enumerated cycles. Unrecognized lengths bill monthly.
func CycleForDays(days int) Cycle {
	switch days {
	case 365:
		return CycleYearly
	case 180:
		return CycleSemiannually
	case 90:
		return CycleQuarterly
	default:
		return CycleMonthly
	}
}

// SubscriptionRequest is the input for PaymentGateway.CreateSubscription.
type SubscriptionRequest struct {
	CustomerID        string
	BillingType       BillingType
	Value             decimal.Decimal
	Cycle             Cycle
	Description       string
	ExternalReference string    // correlation token echoed back by the webhook
	Card              *CardData // inline card data, only for CREDIT_CARD
}

// CardData is passed through to the gateway and never persisted locally.
type CardData struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CCV         string `json:"ccv"`
}

// GatewaySubscription is the gateway's view of a created subscription.
type GatewaySubscription struct {
	ID          string
	NextDueDate time.Time
}

// Invoice is the first charge of a gateway subscription.
type Invoice struct {
	PaymentID string
	Value     decimal.Decimal
	URL       string
}

// PixQRCode is the gateway-rendered PIX charge: a base64 QR image plus
// the copy-and-paste payload.
type PixQRCode struct {
	EncodedImage   string
	Payload        string
	ExpirationDate string
}
