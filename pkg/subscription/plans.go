package subscription

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrPlanNotFound             = errors.New("subscription plan not found")
	ErrInvalidPlanConfiguration = errors.New("invalid subscription plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load subscription plans")
)

// Plan is a purchasable catalog entry mapping a gateway plan id to a tier
// and price. Amount is in the smallest currency unit (paise for INR).
type Plan struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Tier     Tier            `yaml:"tier"`
	Amount   int64           `yaml:"amount"`
	Currency string          `yaml:"currency"`
	Interval BillingInterval `yaml:"interval"`
}

// Catalog is the set of known plans keyed by plan id.
type Catalog map[string]Plan

// DefaultCatalog returns the built-in plan set. A YAML catalog loaded at
// startup overrides it when deployments need different pricing.
func DefaultCatalog() Catalog {
	plans := []Plan{
		{ID: "basic_monthly", Name: "Basic (monthly)", Tier: TierBasic, Amount: 49_900, Currency: "INR", Interval: IntervalMonthly},
		{ID: "basic_yearly", Name: "Basic (yearly)", Tier: TierBasic, Amount: 4_99_900, Currency: "INR", Interval: IntervalYearly},
		{ID: "pro_monthly", Name: "Pro (monthly)", Tier: TierPro, Amount: 99_900, Currency: "INR", Interval: IntervalMonthly},
		{ID: "pro_yearly", Name: "Pro (yearly)", Tier: TierPro, Amount: 9_99_900, Currency: "INR", Interval: IntervalYearly},
		{ID: "ultra_monthly", Name: "Ultra (monthly)", Tier: TierUltra, Amount: 1_99_900, Currency: "INR", Interval: IntervalMonthly},
		{ID: "ultra_yearly", Name: "Ultra (yearly)", Tier: TierUltra, Amount: 19_99_900, Currency: "INR", Interval: IntervalYearly},
	}

	catalog := make(Catalog, len(plans))
	for _, p := range plans {
		catalog[p.ID] = p
	}
	return catalog
}

// LoadCatalog reads a YAML plan list and validates it.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var plans []Plan
	if err := yaml.NewDecoder(r).Decode(&plans); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	catalog := make(Catalog, len(plans))
	for _, p := range plans {
		if _, dup := catalog[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate plan id %q", ErrInvalidPlanConfiguration, p.ID)
		}
		catalog[p.ID] = p
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Validate checks catalog consistency; run once at startup so pricing
// misconfiguration fails fast.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: catalog is empty", ErrInvalidPlanConfiguration)
	}
	for id, p := range c {
		switch {
		case p.ID == "" || p.ID != id:
			return fmt.Errorf("%w: plan id mismatch for %q", ErrInvalidPlanConfiguration, id)
		case !p.Tier.Valid() || p.Tier == TierFree:
			return fmt.Errorf("%w: plan %q has non-purchasable tier %q", ErrInvalidPlanConfiguration, id, p.Tier)
		case p.Amount <= 0:
			return fmt.Errorf("%w: plan %q has non-positive amount", ErrInvalidPlanConfiguration, id)
		case p.Currency == "":
			return fmt.Errorf("%w: plan %q has no currency", ErrInvalidPlanConfiguration, id)
		case p.Interval != IntervalMonthly && p.Interval != IntervalYearly:
			return fmt.Errorf("%w: plan %q has invalid interval %q", ErrInvalidPlanConfiguration, id, p.Interval)
		}
	}
	return nil
}

// Get returns the plan for id.
func (c Catalog) Get(id string) (Plan, error) {
	p, ok := c[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// Verify reports whether id names a known plan.
func (c Catalog) Verify(id string) error {
	if _, ok := c[id]; !ok {
		return ErrPlanNotFound
	}
	return nil
}

// TermEnd returns the subscription end date for a plan purchased at now.
func (p Plan) TermEnd(now time.Time) time.Time {
	if p.Interval == IntervalYearly {
		return now.AddDate(1, 0, 0).UTC()
	}
	return now.AddDate(0, 1, 0).UTC()
}
