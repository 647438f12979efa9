package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is read-only reference data for this package; the plans CRUD
// subsystem owns writes.
type Plan struct {
	ID               uuid.UUID
	Name             string
	Price            decimal.Decimal
	BillingCycleDays int // 0 means "derive from name"
	Active           bool
}

// IsFree reports whether the plan activates without payment.
func (p Plan) IsFree() bool {
	return p.Price.IsZero()
}

// CycleDays returns the membership duration granted per billing cycle.
// Plans carry an explicit BillingCycleDays; rows predating that column
// fall back to the name heuristic.
func (p Plan) CycleDays() int {
	if p.BillingCycleDays > 0 {
		return p.BillingCycleDays
	}
	return CycleDaysForName(p.Name)
}

// CycleDaysForName derives a billing cycle from a plan name. Legacy
// catalogs encoded the cycle in Portuguese plan names; anything
// unrecognized is treated as monthly.
func CycleDaysForName(name string) int {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "anual"):
		return 365
	case strings.Contains(lower, "semestral"):
		return 180
	case strings.Contains(lower, "trimestral"):
		return 90
	default:
		return 30
	}
}

// PlanCatalog resolves plans by id.
type PlanCatalog interface {
	GetPlan(ctx context.Context, planID uuid.UUID) (Plan, error)
}
