// Package subscription holds the subscription domain model: tiers and
// statuses, the pure access calculator that maps a user profile to an
// access decision, the per-tier feature restriction table, and the plan
// catalog used to validate checkout requests.
//
// The access calculator performs no I/O; callers load the profile and pass
// the current time, which keeps every boundary condition unit-testable.
//
// # Access rules
//
// Priority order, first match wins:
//
//  1. Active subscription with a future end date: full access at the paid tier.
//  2. Active status with a past end date: expired, no access.
//  3. Trial window still open: access at the trial tier.
//  4. Trial window passed: expired, no access.
//  5. Neither trial nor subscription: no paid access; the free tier's fixed
//     restriction set applies.
//
// An end timestamp exactly equal to "now" counts as expired.
package subscription
