package settlement

import (
	"time"

	"gatepass/internal/passes"
)

// Percent defaults applied when a snapshot carries zero values (passes sold
// before policy fields existed, or places created without explicit terms).
const (
	DefaultBeforeVisitPercent = 80
	DefaultSameDayPercent     = 50
)

// CalculateRefund computes the refund owed for a pass under its frozen
// policy snapshot. Pure function of (pass, policy, now); rules apply in
// precedence order and the first match wins:
//
//  1. policy not refundable              -> 0
//  2. guest already checked in           -> 0
//  3. visit day already past             -> 0
//  4. pass expired                       -> 0
//  5. visit day is today                 -> floor(amountPaid * sameDay% / 100)
//  6. visit day is in the future         -> floor(amountPaid * beforeVisit% / 100)
//
// Amounts are in minor currency units; integer division truncates toward
// zero so a refund never rounds up past what the policy grants.
func CalculateRefund(pass *passes.Pass, policy passes.RefundPolicySnapshot, now time.Time) int64 {
	if !policy.Refundable {
		return 0
	}
	if pass.CheckInTime != nil {
		return 0
	}

	visitDay := truncateToDay(pass.VisitDate)
	today := truncateToDay(now)

	if visitDay.Before(today) {
		return 0
	}
	if pass.Status == passes.StatusExpired {
		return 0
	}

	if visitDay.Equal(today) {
		return pass.AmountPaid * int64(sameDayPercent(policy)) / 100
	}
	return pass.AmountPaid * int64(beforeVisitPercent(policy)) / 100
}

func beforeVisitPercent(policy passes.RefundPolicySnapshot) int {
	if policy.BeforeVisitPercent <= 0 {
		return DefaultBeforeVisitPercent
	}
	return policy.BeforeVisitPercent
}

func sameDayPercent(policy passes.RefundPolicySnapshot) int {
	if policy.SameDayPercent <= 0 {
		return DefaultSameDayPercent
	}
	return policy.SameDayPercent
}

// truncateToDay normalizes to midnight UTC so day comparisons are calendar
// comparisons, not 24h-interval arithmetic.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
