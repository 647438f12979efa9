package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// AsaasConfig holds configuration for the Asaas payment gateway client.
type AsaasConfig struct {
	APIKey         string        `env:"ASAAS_API_KEY,required"`
	BaseURL        string        `env:"ASAAS_BASE_URL" envDefault:"https://api.asaas.com/v3"`
	RequestTimeout time.Duration `env:"ASAAS_REQUEST_TIMEOUT" envDefault:"30s"`
}

// AsaasClient implements PaymentGateway against the Asaas REST API.
type AsaasClient struct {
	cfg  AsaasConfig
	http *http.Client
}

// NewAsaasClient creates a gateway client. The HTTP client carries a
// bounded timeout so a stalled gateway cannot hang request handlers.
func NewAsaasClient(cfg AsaasConfig) (*AsaasClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("billing: asaas API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("billing: asaas base URL is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsaasClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// wire types

type asaasCustomer struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	CpfCnpj string `json:"cpfCnpj,omitempty"`
}

type asaasCustomerList struct {
	Data []asaasCustomer `json:"data"`
}

type asaasSubscriptionReq struct {
	Customer          string    `json:"customer"`
	BillingType       string    `json:"billingType"`
	Value             float64   `json:"value"`
	NextDueDate       string    `json:"nextDueDate"`
	Cycle             string    `json:"cycle"`
	Description       string    `json:"description,omitempty"`
	ExternalReference string    `json:"externalReference"`
	CreditCard        *CardData `json:"creditCard,omitempty"`
}

type asaasSubscription struct {
	ID          string `json:"id"`
	NextDueDate string `json:"nextDueDate"`
}

type asaasPayment struct {
	ID         string  `json:"id"`
	Value      float64 `json:"value"`
	InvoiceURL string  `json:"invoiceUrl"`
}

type asaasPaymentList struct {
	Data []asaasPayment `json:"data"`
}

type asaasPixQRCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

type asaasErrorBody struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

// FindOrCreateCustomer looks the customer up by email, patching a
// missing tax id on the existing record, and creates one otherwise.
func (c *AsaasClient) FindOrCreateCustomer(ctx context.Context, email, name, taxID string) (string, error) {
	if taxID == "" {
		return "", ErrMissingTaxID
	}

	var list asaasCustomerList
	query := url.Values{"email": {email}}
	if err := c.do(ctx, http.MethodGet, "/customers?"+query.Encode(), nil, &list); err != nil {
		return "", err
	}

	if len(list.Data) > 0 {
		existing := list.Data[0]
		if existing.CpfCnpj == "" {
			patch := asaasCustomer{CpfCnpj: taxID}
			if err := c.do(ctx, http.MethodPost, "/customers/"+existing.ID, patch, nil); err != nil {
				return "", err
			}
		}
		return existing.ID, nil
	}

	created := asaasCustomer{}
	body := asaasCustomer{Name: name, Email: email, CpfCnpj: taxID}
	if err := c.do(ctx, http.MethodPost, "/customers", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// CreateSubscription creates a recurring subscription at the gateway.
func (c *AsaasClient) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*GatewaySubscription, error) {
	body := asaasSubscriptionReq{
		Customer:          req.CustomerID,
		BillingType:       string(req.BillingType),
		Value:             req.Value.InexactFloat64(),
		NextDueDate:       time.Now().UTC().Format("2006-01-02"),
		Cycle:             string(req.Cycle),
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
		CreditCard:        req.Card,
	}

	var sub asaasSubscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", body, &sub); err != nil {
		return nil, err
	}

	nextDue, err := time.Parse("2006-01-02", sub.NextDueDate)
	if err != nil {
		// The subscription exists at the gateway; a malformed date must
		// not lose it. Fall back to today.
		nextDue = time.Now().UTC()
	}

	return &GatewaySubscription{ID: sub.ID, NextDueDate: nextDue}, nil
}

// FirstInvoice fetches the first charge of a gateway subscription.
func (c *AsaasClient) FirstInvoice(ctx context.Context, gatewaySubscriptionID string) (*Invoice, error) {
	var list asaasPaymentList
	query := url.Values{"subscription": {gatewaySubscriptionID}, "limit": {"1"}}
	if err := c.do(ctx, http.MethodGet, "/payments?"+query.Encode(), nil, &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, ErrInvoiceNotReady
	}

	first := list.Data[0]
	return &Invoice{
		PaymentID: first.ID,
		Value:     decimal.NewFromFloat(first.Value),
		URL:       first.InvoiceURL,
	}, nil
}

// PixQRCode fetches the PIX payload for an invoice.
func (c *AsaasClient) PixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error) {
	var qr asaasPixQRCode
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID+"/pixQrCode", nil, &qr); err != nil {
		return nil, err
	}
	return &PixQRCode{
		EncodedImage:   qr.EncodedImage,
		Payload:        qr.Payload,
		ExpirationDate: qr.ExpirationDate,
	}, nil
}

// do performs one authenticated request against the gateway. Non-2xx
// responses become *GatewayError carrying the provider's description.
func (c *AsaasClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("billing: failed to encode gateway request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("billing: failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access_token", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &GatewayError{Description: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{StatusCode: resp.StatusCode, Description: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ge := &GatewayError{StatusCode: resp.StatusCode}
		var errBody asaasErrorBody
		if json.Unmarshal(raw, &errBody) == nil && len(errBody.Errors) > 0 {
			ge.Description = errBody.Errors[0].Description
		}
		return ge
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("billing: failed to decode gateway response: %w", err)
		}
	}
	return nil
}
