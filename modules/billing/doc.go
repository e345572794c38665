// Package billing implements the payment authorization core: order
// creation against the Razorpay gateway, the security gates that guard
// payment application, idempotent webhook-driven subscription activation,
// and the HTTP surface tying it together.
//
// All mutations to a given order or payment are serialized by the external
// id itself: the payments table carries a unique constraint on the payment
// id and inserts use ON CONFLICT DO NOTHING, which closes the race between
// the existence check and the insert under concurrent webhook deliveries.
package billing
