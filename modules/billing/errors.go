package billing

import "errors"

// Security-gate errors. Each maps to a distinct security-event subtype in
// logs; outward responses stay generic so a caller cannot probe which gate
// tripped beyond what the status code already reveals.
var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderOwnershipViolation = errors.New("order ownership violation")
	ErrOrderAlreadyProcessed   = errors.New("order already processed")
	ErrOrderExpired            = errors.New("order expired")
	ErrAmountMismatch          = errors.New("payment amount mismatch")
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrTrialAlreadyUsed = errors.New("trial already used")
	ErrTrialUnavailable = errors.New("trial unavailable while subscription is active")
	ErrInvalidPlan      = errors.New("invalid plan")
	ErrGatewayFailure   = errors.New("payment gateway failure")
	ErrSessionInvalid   = errors.New("session invalid")
)
