package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment records one confirmed gateway payment event. Rows are written
// exactly once by webhook reconciliation and never mutated afterwards;
// TransactionID is unique, which is what makes webhook redelivery a
// no-op instead of a duplicate charge record.
type Payment struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Method         PaymentMethod
	Status         PaymentStatus
	TransactionID  string
	PaidAt         time.Time
	CreatedAt      time.Time
}
