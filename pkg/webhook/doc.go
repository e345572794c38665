// Package webhook handles inbound payment-gateway callbacks: HMAC-SHA256
// signature verification over the raw request body, schema validation of
// the gateway's event envelope, and type-based dispatch to registered
// handlers.
//
// Verification must run against the exact bytes received. Re-serializing a
// parsed body can change byte-for-byte content and invalidate the hash, so
// callers read the body once and pass it through untouched.
//
// The gateway delivers at-least-once and treats any non-2xx response as
// "redeliver". The dispatcher therefore acknowledges unknown event types
// and idempotent replays, and propagates only genuine processing failures.
package webhook
