package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gatepass/internal/passes"
)

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func policyPass(amountPaid int64, visitDate time.Time) *passes.Pass {
	return &passes.Pass{
		Status:        passes.StatusApproved,
		AmountPaid:    amountPaid,
		PaymentStatus: passes.PaymentPaid,
		VisitDate:     visitDate,
	}
}

func standardPolicy() passes.RefundPolicySnapshot {
	return passes.RefundPolicySnapshot{
		Refundable:         true,
		BeforeVisitPercent: 80,
		SameDayPercent:     50,
	}
}

func TestCalculateRefund_FutureVisit(t *testing.T) {
	pass := policyPass(1000, testNow.Add(24*time.Hour))
	refund := CalculateRefund(pass, standardPolicy(), testNow)
	assert.Equal(t, int64(800), refund)
}

func TestCalculateRefund_SameDayVisit(t *testing.T) {
	// Later the same calendar day still counts as same-day, not future.
	pass := policyPass(1000, testNow.Add(2*time.Hour))
	refund := CalculateRefund(pass, standardPolicy(), testNow)
	assert.Equal(t, int64(500), refund)
}

func TestCalculateRefund_PastVisit(t *testing.T) {
	pass := policyPass(1000, testNow.Add(-24*time.Hour))
	refund := CalculateRefund(pass, standardPolicy(), testNow)
	assert.Equal(t, int64(0), refund)
}

func TestCalculateRefund_CheckedInPaysNothing(t *testing.T) {
	pass := policyPass(1000, testNow.Add(24*time.Hour))
	checkIn := testNow.Add(-time.Hour)
	pass.CheckInTime = &checkIn

	refund := CalculateRefund(pass, standardPolicy(), testNow)
	assert.Equal(t, int64(0), refund)
}

func TestCalculateRefund_NotRefundablePolicy(t *testing.T) {
	policy := standardPolicy()
	policy.Refundable = false

	pass := policyPass(1000, testNow.Add(72*time.Hour))
	refund := CalculateRefund(pass, policy, testNow)
	assert.Equal(t, int64(0), refund)
}

func TestCalculateRefund_ExpiredPass(t *testing.T) {
	pass := policyPass(1000, testNow.Add(24*time.Hour))
	pass.Status = passes.StatusExpired

	refund := CalculateRefund(pass, standardPolicy(), testNow)
	assert.Equal(t, int64(0), refund)
}

func TestCalculateRefund_FreePass(t *testing.T) {
	pass := policyPass(0, testNow.Add(24*time.Hour))
	refund := CalculateRefund(pass, standardPolicy(), testNow)
	assert.Equal(t, int64(0), refund)
}

func TestCalculateRefund_TruncatesTowardZero(t *testing.T) {
	// 999 * 80 / 100 = 799.2 -> 799, never rounded up
	pass := policyPass(999, testNow.Add(24*time.Hour))
	refund := CalculateRefund(pass, standardPolicy(), testNow)
	assert.Equal(t, int64(799), refund)

	// 333 * 50 / 100 = 166.5 -> 166
	pass = policyPass(333, testNow)
	refund = CalculateRefund(pass, standardPolicy(), testNow)
	assert.Equal(t, int64(166), refund)
}

func TestCalculateRefund_DefaultPercents(t *testing.T) {
	// A zero-valued snapshot falls back to 80/50.
	policy := passes.RefundPolicySnapshot{Refundable: true}

	pass := policyPass(1000, testNow.Add(24*time.Hour))
	assert.Equal(t, int64(800), CalculateRefund(pass, policy, testNow))

	pass = policyPass(1000, testNow)
	assert.Equal(t, int64(500), CalculateRefund(pass, policy, testNow))
}

func TestCalculateRefund_NeverExceedsAmountPaid(t *testing.T) {
	policy := passes.RefundPolicySnapshot{
		Refundable:         true,
		BeforeVisitPercent: 100,
		SameDayPercent:     100,
	}

	amounts := []int64{1, 99, 1000, 123456789}
	for _, amount := range amounts {
		pass := policyPass(amount, testNow.Add(24*time.Hour))
		refund := CalculateRefund(pass, policy, testNow)
		assert.LessOrEqual(t, refund, amount)
	}
}

func TestCalculateRefund_MidnightBoundary(t *testing.T) {
	// 23:59 today is same-day; 00:00 tomorrow is before-visit.
	now := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)

	sameDay := policyPass(1000, time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, int64(500), CalculateRefund(sameDay, standardPolicy(), now))

	nextDay := policyPass(1000, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, int64(800), CalculateRefund(nextDay, standardPolicy(), now))
}
