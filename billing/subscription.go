package billing

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is one row of the subscription ledger: a single
// membership attempt with its lifecycle state and card barcode.
type Subscription struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PlanID    uuid.UUID
	Status    SubscriptionStatus
	Barcode   string
	GatewayID *string // gateway subscription id, nil for free plans
	DueDate   *time.Time
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Subscription) IsPending() bool {
	return s.Status == StatusPending
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// IsExpiredAt reports whether the membership window has closed at the
// given instant. Cancelled and pending rows are not considered expired,
// they simply never were or are no longer active.
func (s *Subscription) IsExpiredAt(now time.Time) bool {
	return s.IsActive() && s.EndDate != nil && now.After(*s.EndDate)
}
