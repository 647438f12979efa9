package billing

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// YAMLCatalog is a fixed, file-backed plan catalog. Used for local
// development and tests where the plans table is not available, and for
// ops seed files. The file schema:
//
//	plans:
//	  - id: 6e9c...          # uuid
//	    name: Clube Anual
//	    price: "199.90"
//	    cycle_days: 365      # optional, name heuristic applies when absent
//	    active: true
type YAMLCatalog struct {
	plans map[uuid.UUID]Plan
}

type yamlCatalogFile struct {
	Plans []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		Price     string `yaml:"price"`
		CycleDays int    `yaml:"cycle_days"`
		Active    bool   `yaml:"active"`
	} `yaml:"plans"`
}

// LoadYAMLCatalog reads and validates a plan catalog file.
func LoadYAMLCatalog(path string) (*YAMLCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("billing: failed to read plan catalog file: %w", err)
	}
	return ParseYAMLCatalog(raw)
}

// ParseYAMLCatalog builds a catalog from raw YAML bytes.
func ParseYAMLCatalog(raw []byte) (*YAMLCatalog, error) {
	var file yamlCatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("billing: failed to parse plan catalog: %w", err)
	}
	if len(file.Plans) == 0 {
		return nil, errors.New("billing: plan catalog file contains no plans")
	}

	plans := make(map[uuid.UUID]Plan, len(file.Plans))
	for _, entry := range file.Plans {
		id, err := uuid.Parse(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("billing: invalid plan id %q: %w", entry.ID, err)
		}
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("billing: invalid price for plan %q: %w", entry.Name, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("billing: negative price for plan %q", entry.Name)
		}
		plans[id] = Plan{
			ID:               id,
			Name:             entry.Name,
			Price:            price,
			BillingCycleDays: entry.CycleDays,
			Active:           entry.Active,
		}
	}
	return &YAMLCatalog{plans: plans}, nil
}

func (c *YAMLCatalog) GetPlan(_ context.Context, planID uuid.UUID) (Plan, error) {
	plan, ok := c.plans[planID]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

var _ PlanCatalog = (*YAMLCatalog)(nil)
