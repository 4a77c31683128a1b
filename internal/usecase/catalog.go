package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
)

// Catalog is the fixed set of plans offered to users.
type Catalog struct {
	plans []model.Plan
	byID  map[string]model.Plan
}

// NewCatalog validates plans and keeps them in menu order.
func NewCatalog(plans ...model.Plan) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]model.Plan, len(plans))}
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan id must not be empty")
		}
		if p.DurationMonths <= 0 {
			return nil, fmt.Errorf("plan %q: duration must be positive", p.ID)
		}
		if !p.Price.IsPositive() {
			return nil, fmt.Errorf("plan %q: price must be positive", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("plan %q declared twice", p.ID)
		}
		c.byID[p.ID] = p
		c.plans = append(c.plans, p)
	}
	return c, nil
}

// DefaultCatalog returns the 1, 3 and 6 month plans.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		model.Plan{ID: "1", DurationMonths: 1, Price: decimal.NewFromInt(10000)},
		model.Plan{ID: "3", DurationMonths: 3, Price: decimal.NewFromInt(25000)},
		model.Plan{ID: "6", DurationMonths: 6, Price: decimal.NewFromInt(50000)},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the plan with the given identifier.
func (c *Catalog) Lookup(planID string) (model.Plan, error) {
	p, ok := c.byID[planID]
	if !ok {
		return model.Plan{}, domainErrors.ErrPlanNotFound
	}
	return p, nil
}

// Plans returns a copy of the catalog in menu order.
func (c *Catalog) Plans() []model.Plan {
	out := make([]model.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}
