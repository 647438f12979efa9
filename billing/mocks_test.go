package billing_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/clubecard/api/billing"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetPlan(ctx context.Context, planID uuid.UUID) (billing.Plan, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).(billing.Plan), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) FindOrCreateCustomer(ctx context.Context, email, name, taxID string) (string, error) {
	args := m.Called(ctx, email, name, taxID)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreateSubscription(ctx context.Context, req billing.SubscriptionRequest) (*billing.GatewaySubscription, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.GatewaySubscription), args.Error(1)
}

func (m *mockGateway) FirstInvoice(ctx context.Context, gatewaySubscriptionID string) (*billing.Invoice, error) {
	args := m.Called(ctx, gatewaySubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *mockGateway) PixQRCode(ctx context.Context, paymentID string) (*billing.PixQRCode, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PixQRCode), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreatePending(ctx context.Context, params billing.CreatePendingParams) (*billing.Subscription, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *mockStore) SupersedeActiveAndActivate(ctx context.Context, params billing.ActivateParams) (*billing.ActivationResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ActivationResult), args.Error(1)
}

func (m *mockStore) Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) (*billing.Subscription, error) {
	args := m.Called(ctx, userID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *mockStore) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *mockStore) GetByBarcode(ctx context.Context, barcode string) (*billing.Subscription, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *mockStore) PaymentExists(ctx context.Context, transactionID string) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}

type mockCardCache struct {
	mock.Mock
}

func (m *mockCardCache) Get(ctx context.Context, barcode string) (*billing.Card, bool) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*billing.Card), args.Bool(1)
}

func (m *mockCardCache) Set(ctx context.Context, card *billing.Card) {
	m.Called(ctx, card)
}

func (m *mockCardCache) Invalidate(ctx context.Context, barcodes ...string) {
	m.Called(ctx, barcodes)
}
