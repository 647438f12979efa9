package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubecard/api/billing"
)

func TestParseYAMLCatalog(t *testing.T) {
	t.Parallel()

	planID := uuid.New()

	t.Run("valid catalog", func(t *testing.T) {
		t.Parallel()
		raw := []byte(`
plans:
  - id: ` + planID.String() + `
    name: Clube Anual
    price: "199.90"
    cycle_days: 365
    active: true
`)
		catalog, err := billing.ParseYAMLCatalog(raw)
		require.NoError(t, err)

		plan, err := catalog.GetPlan(context.Background(), planID)
		require.NoError(t, err)
		assert.Equal(t, "Clube Anual", plan.Name)
		assert.True(t, plan.Price.Equal(decimal.NewFromFloat(199.90)))
		assert.Equal(t, 365, plan.CycleDays())
		assert.True(t, plan.Active)
	})

	t.Run("unknown plan id", func(t *testing.T) {
		t.Parallel()
		raw := []byte(`
plans:
  - id: ` + planID.String() + `
    name: Mensal
    price: "49.90"
    active: true
`)
		catalog, err := billing.ParseYAMLCatalog(raw)
		require.NoError(t, err)

		_, err = catalog.GetPlan(context.Background(), uuid.New())
		assert.ErrorIs(t, err, billing.ErrPlanNotFound)
	})

	t.Run("rejects empty catalog", func(t *testing.T) {
		t.Parallel()
		_, err := billing.ParseYAMLCatalog([]byte("plans: []"))
		assert.Error(t, err)
	})

	t.Run("rejects bad plan id", func(t *testing.T) {
		t.Parallel()
		_, err := billing.ParseYAMLCatalog([]byte(`
plans:
  - id: not-a-uuid
    name: Mensal
    price: "49.90"
`))
		assert.Error(t, err)
	})

	t.Run("rejects malformed price", func(t *testing.T) {
		t.Parallel()
		_, err := billing.ParseYAMLCatalog([]byte(`
plans:
  - id: ` + planID.String() + `
    name: Mensal
    price: "49,90"
`))
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		t.Parallel()
		_, err := billing.ParseYAMLCatalog([]byte(`
plans:
  - id: ` + planID.String() + `
    name: Mensal
    price: "-1.00"
`))
		assert.Error(t, err)
	})
}
