package billing

import (
	"errors"
	"fmt"
)

var (
	// Input validation.
	ErrMissingTaxID        = errors.New("billing: tax id (CPF/CNPJ) is required")
	ErrMissingEmail        = errors.New("billing: customer email is required")
	ErrBadCorrelationToken = errors.New("billing: malformed correlation token")

	// Plan catalog.
	ErrPlanNotFound     = errors.New("billing: plan not found")
	ErrPlanNotActive    = errors.New("billing: plan is not active")
	ErrPlanNotFree      = errors.New("billing: plan is not free")
	ErrFreePlanCheckout = errors.New("billing: free plans cannot go through paid checkout")

	// Gateway timing: the first invoice has not materialized yet.
	// Transient by nature, callers may retry.
	ErrInvoiceNotReady = errors.New("billing: first invoice not available yet, try again")

	// Webhook authentication.
	ErrInvalidWebhookToken = errors.New("billing: invalid webhook access token")

	// Ledger.
	ErrSubscriptionNotFound = errors.New("billing: subscription not found")
	ErrBarcodeExhausted     = errors.New("billing: could not generate a unique barcode")
)

// GatewayError carries the payment provider's own rejection description
// so it can be surfaced to the user on failed checkouts.
type GatewayError struct {
	StatusCode  int
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("billing: gateway request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("billing: gateway rejected request: %s", e.Description)
}

// IsGatewayError reports whether err originated from a provider
// rejection and returns the typed error if so.
func IsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
