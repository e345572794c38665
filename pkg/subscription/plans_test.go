package subscription_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/pkg/subscription"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	catalog := subscription.DefaultCatalog()
	require.NoError(t, catalog.Validate())

	plan, err := catalog.Get("pro_monthly")
	require.NoError(t, err)
	assert.Equal(t, subscription.TierPro, plan.Tier)
	assert.Equal(t, "INR", plan.Currency)
	assert.Equal(t, subscription.IntervalMonthly, plan.Interval)

	assert.NoError(t, catalog.Verify("ultra_yearly"))
	assert.ErrorIs(t, catalog.Verify("nonexistent"), subscription.ErrPlanNotFound)
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	t.Run("valid yaml", func(t *testing.T) {
		t.Parallel()
		src := `
- id: basic_monthly
  name: Basic
  tier: basic
  amount: 49900
  currency: INR
  interval: monthly
- id: pro_monthly
  name: Pro
  tier: pro
  amount: 99900
  currency: INR
  interval: monthly
`
		catalog, err := subscription.LoadCatalog(strings.NewReader(src))
		require.NoError(t, err)
		assert.Len(t, catalog, 2)

		plan, err := catalog.Get("basic_monthly")
		require.NoError(t, err)
		assert.Equal(t, int64(49900), plan.Amount)
	})

	t.Run("duplicate plan id rejected", func(t *testing.T) {
		t.Parallel()
		src := `
- id: pro_monthly
  tier: pro
  amount: 1
  currency: INR
  interval: monthly
- id: pro_monthly
  tier: pro
  amount: 2
  currency: INR
  interval: monthly
`
		_, err := subscription.LoadCatalog(strings.NewReader(src))
		assert.ErrorIs(t, err, subscription.ErrInvalidPlanConfiguration)
	})

	t.Run("free tier is not purchasable", func(t *testing.T) {
		t.Parallel()
		src := `
- id: free_monthly
  tier: free
  amount: 1
  currency: INR
  interval: monthly
`
		_, err := subscription.LoadCatalog(strings.NewReader(src))
		assert.ErrorIs(t, err, subscription.ErrInvalidPlanConfiguration)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		_, err := subscription.LoadCatalog(strings.NewReader("::: not yaml"))
		assert.ErrorIs(t, err, subscription.ErrFailedToLoadPlans)
	})
}

func TestCatalogValidate(t *testing.T) {
	t.Parallel()

	t.Run("empty catalog", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, subscription.Catalog{}.Validate(), subscription.ErrInvalidPlanConfiguration)
	})

	t.Run("key and plan id must agree", func(t *testing.T) {
		t.Parallel()
		c := subscription.Catalog{
			"a": {ID: "b", Tier: subscription.TierPro, Amount: 1, Currency: "INR", Interval: subscription.IntervalMonthly},
		}
		assert.ErrorIs(t, c.Validate(), subscription.ErrInvalidPlanConfiguration)
	})
}

func TestPlanTermEnd(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	monthly := subscription.Plan{Interval: subscription.IntervalMonthly}
	assert.Equal(t, time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC), monthly.TermEnd(now))

	yearly := subscription.Plan{Interval: subscription.IntervalYearly}
	assert.Equal(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC), yearly.TermEnd(now))
}
