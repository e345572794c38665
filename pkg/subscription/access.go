package subscription

import "time"

const dayMillis = 24 * 60 * 60 * 1000

// CalculateAccess derives the access decision for p at now. Pure function:
// no I/O, no clock reads. A nil profile is a user with no subscription
// record at all and resolves like case 5.
//
// An active paid subscription takes priority over a concurrently-present
// trial window; only one of the two determines access at a time.
func CalculateAccess(p *Profile, now time.Time) Access {
	if p == nil {
		return noAccess()
	}

	// Paused and cancelled subscriptions keep access for the term already
	// paid; the status is reported as stored so clients can prompt renewal.
	if paidStatus(p.Status) && p.SubscriptionEndsAt != nil {
		// Strict After: an end timestamp equal to now is already expired.
		if p.SubscriptionEndsAt.After(now) {
			tier := p.Tier
			if !tier.Valid() || tier == TierFree {
				tier = TierBasic // paid subscription rows always carry a paid tier; tolerate bad data
			}
			return Access{
				HasAccess:     true,
				Status:        p.Status,
				Tier:          tier,
				DaysRemaining: daysRemaining(now, *p.SubscriptionEndsAt),
				Restrictions:  GetRestrictions(tier),
			}
		}
		return expired()
	}

	if p.TrialEndsAt != nil {
		if p.TrialEndsAt.After(now) {
			return Access{
				HasAccess:     true,
				Status:        StatusTrial,
				Tier:          TrialTier,
				DaysRemaining: daysRemaining(now, *p.TrialEndsAt),
				Restrictions:  GetRestrictions(TrialTier),
			}
		}
		return expired()
	}

	return noAccess()
}

func paidStatus(s Status) bool {
	return s == StatusActive || s == StatusPastDue || s == StatusCanceled
}

// expired is the decision for a lapsed trial or subscription: back to the
// free tier's baseline, status telling the client what lapsed.
func expired() Access {
	return Access{
		HasAccess:    false,
		Status:       StatusExpired,
		Tier:         TierFree,
		Restrictions: GetRestrictions(TierFree),
	}
}

// noAccess is the decision for users who never started a trial or
// subscription: no paid access, but the free tier's fixed feature set is
// always resolvable.
func noAccess() Access {
	return Access{
		HasAccess:    false,
		Status:       StatusNone,
		Tier:         TierFree,
		Restrictions: GetRestrictions(TierFree),
	}
}

// daysRemaining is ceiling division over the millisecond delta, so any
// partial day counts as a full remaining day.
func daysRemaining(now, until time.Time) int {
	ms := until.Sub(now).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int((ms + dayMillis - 1) / dayMillis)
}
