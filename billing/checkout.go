package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubecard/api/pkg/barcode"
	"github.com/clubecard/api/pkg/qrcode"
)

// CheckoutParams is the input for a paid-plan checkout. The price is
// deliberately absent: it is derived server-side from the plan catalog,
// never trusted from the caller.
type CheckoutParams struct {
	UserID      uuid.UUID
	PlanID      uuid.UUID
	UserEmail   string
	Name        string
	TaxID       string // CPF/CNPJ, required by the gateway
	BillingType BillingType
	Card        *CardData
}

// PixCharge carries everything a client needs to pay by PIX: the QR
// image (as a data URI) and the copy-and-paste payload.
type PixCharge struct {
	QRCodeImage  string `json:"qrCode"`
	CopyAndPaste string `json:"copyAndPaste"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
}

// CheckoutResult is returned to the caller so the user can complete
// payment at the gateway.
type CheckoutResult struct {
	PaymentURL            string          `json:"paymentUrl"`
	PaymentID             string          `json:"paymentId"`
	GatewaySubscriptionID string          `json:"subscriptionId"`
	Value                 decimal.Decimal `json:"value"`
	Pix                   *PixCharge      `json:"pix,omitempty"`
}

// Checkout initiates a paid subscription: creates the customer and
// subscription at the gateway, writes a best-effort pending ledger row,
// and returns the first invoice's payment link with an optional PIX
// charge. The subscription only becomes active when the gateway's
// payment webhook confirms it.
func (s *Service) Checkout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error) {
	if params.TaxID == "" {
		return nil, ErrMissingTaxID
	}
	// An empty email would turn the gateway's customer lookup into an
	// unfiltered listing and bind the charge to a stranger's record.
	if params.UserEmail == "" {
		return nil, ErrMissingEmail
	}

	plan, err := s.catalog.GetPlan(ctx, params.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, ErrPlanNotActive
	}
	if plan.IsFree() {
		return nil, ErrFreePlanCheckout
	}

	customerID, err := s.gateway.FindOrCreateCustomer(ctx, params.UserEmail, params.Name, params.TaxID)
	if err != nil {
		return nil, err
	}

	gwSub, err := s.gateway.CreateSubscription(ctx, SubscriptionRequest{
		CustomerID:        customerID,
		BillingType:       params.BillingType,
		Value:             plan.Price,
		Cycle:             CycleForDays(plan.CycleDays()),
		Description:       fmt.Sprintf("Assinatura %s", plan.Name),
		ExternalReference: CorrelationToken(params.UserID, params.PlanID),
		Card:              params.Card,
	})
	if err != nil {
		return nil, err
	}

	// Best-effort pending row. The gateway-side subscription already
	// exists and the user must still get their payment link, so a ledger
	// failure here is logged, not surfaced. The webhook rebuilds local
	// state from the gateway's confirmation either way.
	if code, err := barcode.Generate(); err != nil {
		s.log.WarnContext(ctx, "failed to generate barcode for pending subscription",
			"user_id", params.UserID, "gateway_id", gwSub.ID, "error", err)
	} else if _, err := s.store.CreatePending(ctx, CreatePendingParams{
		UserID:    params.UserID,
		PlanID:    params.PlanID,
		GatewayID: gwSub.ID,
		Barcode:   code,
		DueDate:   gwSub.NextDueDate,
	}); err != nil {
		s.log.WarnContext(ctx, "failed to persist pending subscription",
			"user_id", params.UserID, "gateway_id", gwSub.ID, "error", err)
	}

	invoice, err := s.gateway.FirstInvoice(ctx, gwSub.ID)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{
		PaymentURL:            invoice.URL,
		PaymentID:             invoice.PaymentID,
		GatewaySubscriptionID: gwSub.ID,
		Value:                 invoice.Value,
	}
	result.Pix = s.pixCharge(ctx, invoice.PaymentID)

	return result, nil
}

// pixCharge fetches and renders the PIX payload for an invoice.
// Best-effort: a charge without PIX support simply returns nil.
func (s *Service) pixCharge(ctx context.Context, paymentID string) *PixCharge {
	qr, err := s.gateway.PixQRCode(ctx, paymentID)
	if err != nil || qr == nil || qr.Payload == "" {
		if err != nil {
			s.log.DebugContext(ctx, "pix qr code unavailable", "payment_id", paymentID, "error", err)
		}
		return nil
	}

	image := qr.EncodedImage
	if image == "" {
		// Gateway did not render the image; build one locally from the
		// copy-and-paste payload.
		if uri, err := qrcode.DataURI(qr.Payload, 0); err == nil {
			image = uri
		}
	} else {
		image = "data:image/png;base64," + image
	}

	return &PixCharge{
		QRCodeImage:  image,
		CopyAndPaste: qr.Payload,
		ExpiresAt:    qr.ExpirationDate,
	}
}
