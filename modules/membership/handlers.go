package membership

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubecard/api/billing"
)

// userIDHeader carries the authenticated user's id, set by the upstream
// auth proxy. Requests without it are rejected on user-scoped routes.
const userIDHeader = "X-User-ID"

// webhookTokenHeader is the shared-secret header the gateway sends with
// webhook deliveries.
const webhookTokenHeader = "access-token"

type handlers struct {
	svc    Service
	log    *slog.Logger
	health map[string]Healthcheck
}

type checkoutRequest struct {
	PlanID      string            `json:"planId"`
	UserEmail   string            `json:"userEmail"`
	Name        string            `json:"name"`
	CpfCnpj     string            `json:"cpfCnpj"`
	BillingType string            `json:"billingType"`
	Card        *billing.CardData `json:"cardData,omitempty"`
}

func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	billingType := billing.BillingType(req.BillingType)
	if billingType == "" {
		billingType = billing.BillingTypeUndefined
	}

	result, err := h.svc.Checkout(r.Context(), billing.CheckoutParams{
		UserID:      userID,
		PlanID:      planID,
		UserEmail:   req.UserEmail,
		Name:        req.Name,
		TaxID:       req.CpfCnpj,
		BillingType: billingType,
		Card:        req.Card,
	})
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *handlers) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, billing.ErrMissingTaxID):
		respondError(w, http.StatusBadRequest, "tax id required")
	case errors.Is(err, billing.ErrMissingEmail):
		respondError(w, http.StatusBadRequest, "email required")
	case errors.Is(err, billing.ErrPlanNotFound),
		errors.Is(err, billing.ErrPlanNotActive),
		errors.Is(err, billing.ErrFreePlanCheckout):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, billing.ErrInvoiceNotReady):
		// Transient gateway timing; the client should retry shortly.
		respondError(w, http.StatusServiceUnavailable, "payment not ready yet, try again")
	default:
		if ge, ok := billing.IsGatewayError(err); ok {
			respondError(w, http.StatusBadGateway, ge.Description)
			return
		}
		h.log.ErrorContext(r.Context(), "checkout failed", "error", err)
		respondError(w, http.StatusInternalServerError, "checkout failed")
	}
}

func (h *handlers) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var event billing.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	_, err := h.svc.HandlePaymentWebhook(r.Context(), event, r.Header.Get(webhookTokenHeader))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidWebhookToken):
			respondError(w, http.StatusUnauthorized, "invalid access token")
		case errors.Is(err, billing.ErrBadCorrelationToken),
			errors.Is(err, billing.ErrPlanNotFound):
			// Permanently malformed: log loudly and tell the gateway to
			// stop retrying with an error it will record on its side.
			h.log.ErrorContext(r.Context(), "unprocessable payment webhook",
				"event", event.Event,
				"external_reference", event.Payment.ExternalReference,
				"error", err)
			respondError(w, http.StatusBadRequest, "unprocessable webhook")
		default:
			// Transient failure: non-2xx makes the gateway redeliver.
			h.log.ErrorContext(r.Context(), "webhook reconciliation failed",
				"transaction_id", event.Payment.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "reconciliation failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type activateFreeRequest struct {
	PlanID string `json:"planId"`
}

func (h *handlers) activateFree(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req activateFreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	sub, err := h.svc.ActivateFree(r.Context(), userID, planID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPlanNotFound),
			errors.Is(err, billing.ErrPlanNotActive),
			errors.Is(err, billing.ErrPlanNotFree):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.ErrorContext(r.Context(), "free activation failed",
				"user_id", userID, "plan_id", planID, "error", err)
			respondError(w, http.StatusInternalServerError, "activation failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, subscriptionResponse(sub))
}

type cancelRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	subID, err := uuid.Parse(req.SubscriptionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	sub, err := h.svc.Cancel(r.Context(), userID, subID)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		h.log.ErrorContext(r.Context(), "cancellation failed", "subscription_id", subID, "error", err)
		respondError(w, http.StatusInternalServerError, "cancellation failed")
		return
	}

	respondJSON(w, http.StatusOK, subscriptionResponse(sub))
}

func (h *handlers) activeSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	sub, err := h.svc.ActiveSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			respondError(w, http.StatusNotFound, "no active subscription")
			return
		}
		h.log.ErrorContext(r.Context(), "active subscription lookup failed", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, subscriptionResponse(sub))
}

func (h *handlers) card(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "barcode")

	card, err := h.svc.CardByBarcode(r.Context(), code)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			respondError(w, http.StatusNotFound, "card not found")
			return
		}
		h.log.ErrorContext(r.Context(), "card lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, card)
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, probe := range h.health {
		if err := probe(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}
	respondJSON(w, status, checks)
}

// requireUser extracts the authenticated user id injected by the auth
// proxy; responds 401 and returns false when absent or malformed.
func (h *handlers) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.Header.Get(userIDHeader))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// subscriptionView is the JSON shape of a ledger row.
type subscriptionView struct {
	ID        uuid.UUID                  `json:"id"`
	UserID    uuid.UUID                  `json:"userId"`
	PlanID    uuid.UUID                  `json:"planId"`
	Status    billing.SubscriptionStatus `json:"status"`
	Barcode   string                     `json:"barcode"`
	StartDate *time.Time                 `json:"startDate,omitempty"`
	EndDate   *time.Time                 `json:"endDate,omitempty"`
	DueDate   *time.Time                 `json:"dueDate,omitempty"`
}

func subscriptionResponse(sub *billing.Subscription) subscriptionView {
	return subscriptionView{
		ID:        sub.ID,
		UserID:    sub.UserID,
		PlanID:    sub.PlanID,
		Status:    sub.Status,
		Barcode:   sub.Barcode,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		DueDate:   sub.DueDate,
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
