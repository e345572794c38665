package subscription

import "time"

// Tier is a named subscription level determining feature access and quotas.
type Tier string

const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
	TierUltra Tier = "ultra"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierBasic, TierPro, TierUltra:
		return true
	}
	return false
}

// Status is the stored subscription state of a profile.
type Status string

const (
	StatusNone     Status = "none"
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

const (
	// TrialTier is the tier granted during a trial.
	TrialTier = TierUltra
	// TrialDays is the trial length.
	TrialDays = 7
)

// TrialEnd returns when a trial started at now would end.
func TrialEnd(now time.Time) time.Time {
	return now.AddDate(0, 0, TrialDays).UTC()
}

// Profile is the persisted subscription record for a user. Payment and
// webhook handlers mutate it; the access calculator only reads it.
type Profile struct {
	ID                 string
	Status             Status
	Tier               Tier
	TrialEndsAt        *time.Time
	SubscriptionEndsAt *time.Time
	// HasUsedTrial is set permanently once a trial is granted, never reset.
	HasUsedTrial      bool
	RazorpayPaymentID string
	RazorpayOrderID   string
	UpdatedAt         time.Time
}

// Access is the derived access decision for a profile at a point in time.
type Access struct {
	HasAccess     bool
	Status        Status
	Tier          Tier
	DaysRemaining int
	Restrictions  Restrictions
}

// BillingInterval is the billing frequency of a paid plan.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)
