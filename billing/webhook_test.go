package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clubecard/api/billing"
)

func paymentEvent(userID, planID uuid.UUID) billing.WebhookEvent {
	return billing.WebhookEvent{
		Event: billing.EventPaymentReceived,
		Payment: billing.WebhookPayment{
			ID:                "pay_1",
			ExternalReference: billing.CorrelationToken(userID, planID),
			Value:             49.90,
			BillingType:       billing.BillingTypePix,
		},
	}
}

func activationResult(userID, planID uuid.UUID, superseded ...string) *billing.ActivationResult {
	now := time.Now().UTC()
	end := now.AddDate(0, 0, 30)
	return &billing.ActivationResult{
		Subscription: &billing.Subscription{
			ID:        uuid.New(),
			UserID:    userID,
			PlanID:    planID,
			Status:    billing.StatusActive,
			Barcode:   "123456789012",
			StartDate: &now,
			EndDate:   &end,
		},
		SupersededBarcodes: superseded,
	}
}

func TestParseCorrelationToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	planID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		u, p, err := billing.ParseCorrelationToken(billing.CorrelationToken(userID, planID))
		require.NoError(t, err)
		assert.Equal(t, userID, u)
		assert.Equal(t, planID, p)
	})

	for _, token := range []string{"abc", ":", "", userID.String() + ":", ":" + planID.String(), "notauuid:" + planID.String()} {
		token := token
		t.Run("rejects "+token, func(t *testing.T) {
			t.Parallel()
			_, _, err := billing.ParseCorrelationToken(token)
			assert.ErrorIs(t, err, billing.ErrBadCorrelationToken)
		})
	}
}

func TestHandlePaymentWebhook_Authentication(t *testing.T) {
	t.Parallel()

	userID, planID := uuid.New(), uuid.New()

	t.Run("rejects wrong token when secret configured", func(t *testing.T) {
		t.Parallel()
		store := new(mockStore)
		svc := billing.NewService(new(mockCatalog), new(mockGateway), store,
			billing.WithWebhookConfig(billing.WebhookConfig{AccessToken: "secret"}))

		_, err := svc.HandlePaymentWebhook(context.Background(), paymentEvent(userID, planID), "wrong")
		assert.ErrorIs(t, err, billing.ErrInvalidWebhookToken)
		store.AssertNotCalled(t, "SupersedeActiveAndActivate", mock.Anything, mock.Anything)
	})

	t.Run("skips auth when no secret configured", func(t *testing.T) {
		t.Parallel()
		catalog := new(mockCatalog)
		store := new(mockStore)
		plan := billing.Plan{ID: planID, Name: "Mensal", Price: decimal.NewFromFloat(49.90), Active: true}
		catalog.On("GetPlan", mock.Anything, planID).Return(plan, nil)
		store.On("PaymentExists", mock.Anything, "pay_1").Return(false, nil)
		store.On("SupersedeActiveAndActivate", mock.Anything, mock.Anything).
			Return(activationResult(userID, planID), nil)

		svc := billing.NewService(catalog, new(mockGateway), store)

		sub, err := svc.HandlePaymentWebhook(context.Background(), paymentEvent(userID, planID), "")
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, billing.StatusActive, sub.Status)
	})
}

func TestHandlePaymentWebhook_FiltersOtherEvents(t *testing.T) {
	t.Parallel()

	store := new(mockStore)
	svc := billing.NewService(new(mockCatalog), new(mockGateway), store)

	event := billing.WebhookEvent{Event: "PAYMENT_OVERDUE"}
	sub, err := svc.HandlePaymentWebhook(context.Background(), event, "")
	require.NoError(t, err)
	assert.Nil(t, sub)
	store.AssertNotCalled(t, "SupersedeActiveAndActivate", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "PaymentExists", mock.Anything, mock.Anything)
}

func TestHandlePaymentWebhook_BadCorrelationToken(t *testing.T) {
	t.Parallel()

	store := new(mockStore)
	svc := billing.NewService(new(mockCatalog), new(mockGateway), store)

	event := billing.WebhookEvent{
		Event:   billing.EventPaymentReceived,
		Payment: billing.WebhookPayment{ID: "pay_1", ExternalReference: "abc", Value: 49.90},
	}
	_, err := svc.HandlePaymentWebhook(context.Background(), event, "")
	assert.ErrorIs(t, err, billing.ErrBadCorrelationToken)
	store.AssertNotCalled(t, "SupersedeActiveAndActivate", mock.Anything, mock.Anything)
}

func TestHandlePaymentWebhook_ActivatesAndRecordsPayment(t *testing.T) {
	t.Parallel()

	userID, planID := uuid.New(), uuid.New()
	catalog := new(mockCatalog)
	store := new(mockStore)
	cache := new(mockCardCache)

	plan := billing.Plan{ID: planID, Name: "Clube Anual", Price: decimal.NewFromFloat(199.90), BillingCycleDays: 365, Active: true}
	catalog.On("GetPlan", mock.Anything, planID).Return(plan, nil)
	store.On("PaymentExists", mock.Anything, "pay_1").Return(false, nil)

	var captured billing.ActivateParams
	store.On("SupersedeActiveAndActivate", mock.Anything, mock.MatchedBy(func(p billing.ActivateParams) bool {
		captured = p
		return p.UserID == userID && p.PlanID == planID && p.Payment != nil
	})).Return(activationResult(userID, planID, "000011112222"), nil)
	cache.On("Invalidate", mock.Anything, []string{"000011112222"}).Return()

	svc := billing.NewService(catalog, new(mockGateway), store, billing.WithCardCache(cache))

	sub, err := svc.HandlePaymentWebhook(context.Background(), paymentEvent(userID, planID), "")
	require.NoError(t, err)
	require.NotNil(t, sub)

	// Membership window follows the plan's billing cycle.
	assert.WithinDuration(t, captured.StartDate.AddDate(0, 0, 365), captured.EndDate, time.Second)
	assert.Len(t, captured.Barcode, 12)

	// Payment is recorded alongside the activation.
	require.NotNil(t, captured.Payment)
	assert.Equal(t, "pay_1", captured.Payment.TransactionID)
	assert.Equal(t, billing.MethodPix, captured.Payment.Method)
	assert.True(t, captured.Payment.Amount.Equal(decimal.NewFromFloat(49.90)))

	// Superseded cards drop out of the public lookup cache.
	cache.AssertCalled(t, "Invalidate", mock.Anything, []string{"000011112222"})
}

func TestHandlePaymentWebhook_DurationFallsBackToPlanName(t *testing.T) {
	t.Parallel()

	userID, planID := uuid.New(), uuid.New()
	catalog := new(mockCatalog)
	store := new(mockStore)

	// Legacy plan row without an explicit cycle.
	plan := billing.Plan{ID: planID, Name: "Plano Trimestral", Price: decimal.NewFromFloat(89.90), Active: true}
	catalog.On("GetPlan", mock.Anything, planID).Return(plan, nil)
	store.On("PaymentExists", mock.Anything, "pay_1").Return(false, nil)

	var captured billing.ActivateParams
	store.On("SupersedeActiveAndActivate", mock.Anything, mock.MatchedBy(func(p billing.ActivateParams) bool {
		captured = p
		return true
	})).Return(activationResult(userID, planID), nil)

	svc := billing.NewService(catalog, new(mockGateway), store)

	_, err := svc.HandlePaymentWebhook(context.Background(), paymentEvent(userID, planID), "")
	require.NoError(t, err)
	assert.WithinDuration(t, captured.StartDate.AddDate(0, 0, 90), captured.EndDate, time.Second)
}

func TestHandlePaymentWebhook_DuplicateDeliveryIsNoOp(t *testing.T) {
	t.Parallel()

	userID, planID := uuid.New(), uuid.New()
	store := new(mockStore)
	store.On("PaymentExists", mock.Anything, "pay_1").Return(true, nil)

	svc := billing.NewService(new(mockCatalog), new(mockGateway), store)

	sub, err := svc.HandlePaymentWebhook(context.Background(), paymentEvent(userID, planID), "")
	require.NoError(t, err)
	assert.Nil(t, sub)
	store.AssertNotCalled(t, "SupersedeActiveAndActivate", mock.Anything, mock.Anything)
}

func TestHandlePaymentWebhook_PersistenceFailurePropagates(t *testing.T) {
	t.Parallel()

	userID, planID := uuid.New(), uuid.New()
	catalog := new(mockCatalog)
	store := new(mockStore)

	plan := billing.Plan{ID: planID, Name: "Mensal", Price: decimal.NewFromFloat(49.90), Active: true}
	catalog.On("GetPlan", mock.Anything, planID).Return(plan, nil)
	store.On("PaymentExists", mock.Anything, "pay_1").Return(false, nil)
	store.On("SupersedeActiveAndActivate", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	svc := billing.NewService(catalog, new(mockGateway), store)

	_, err := svc.HandlePaymentWebhook(context.Background(), paymentEvent(userID, planID), "")
	require.Error(t, err)
}
