package billing

// SubscriptionStatus is the subscription ledger state.
type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusActive    SubscriptionStatus = "active"
	StatusInactive  SubscriptionStatus = "inactive"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// PaymentStatus is the state of a recorded payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is how a member paid, in local vocabulary.
type PaymentMethod string

const (
	MethodPix        PaymentMethod = "pix"
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
)

// BillingType is the gateway's charge type vocabulary.
type BillingType string

const (
	// BillingTypeUndefined lets the payer pick the method at checkout.
	BillingTypeUndefined  BillingType = "UNDEFINED"
	BillingTypePix        BillingType = "PIX"
	BillingTypeCreditCard BillingType = "CREDIT_CARD"
	BillingTypeBoleto     BillingType = "BOLETO"
)

// Method maps the gateway charge type onto the local payment method.
// BOLETO has no local equivalent and is recorded as debit_card.
func (bt BillingType) Method() PaymentMethod {
	switch bt {
	case BillingTypePix:
		return MethodPix
	case BillingTypeCreditCard:
		return MethodCreditCard
	case BillingTypeBoleto:
		return MethodDebitCard
	default:
		return MethodCreditCard
	}
}
