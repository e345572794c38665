package webhook

import "errors"

var (
	// ErrMissingSecret is a configuration error: the capability must halt,
	// never degrade into accepting unsigned events.
	ErrMissingSecret = errors.New("webhook secret is not configured")

	// ErrMissingSignature is a client error: the signature header was absent.
	ErrMissingSignature = errors.New("signature is missing")

	// ErrSignatureMismatch is an authorization failure.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrInvalidPayload is returned for malformed or out-of-shape JSON.
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrAlreadyProcessed marks an idempotent replay. Handlers return it so
	// the dispatcher can acknowledge without treating it as a failure.
	ErrAlreadyProcessed = errors.New("event already processed")
)
