package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/bookings"
	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/shared/apperrors"
	"gatepass/pkg/logger"
)

// TriggerKind identifies who initiated a cancellation. It determines both
// the refund semantics (policy-evaluated vs forced 100%) and the
// authorization checks applied before settlement.
type TriggerKind string

const (
	TriggerVisitor TriggerKind = "VISITOR"
	TriggerHost    TriggerKind = "HOST"
	TriggerAdmin   TriggerKind = "ADMIN"
)

// Trigger is a cancellation request entering the engine.
type Trigger struct {
	Kind    TriggerKind
	ActorID uuid.UUID
	Reason  string

	// EventLevel cascades the cancellation to the Place after all passes
	// and bookings are settled. HOST and ADMIN triggers set this; visitor
	// self-cancels never do.
	EventLevel bool
	PlaceID    uuid.UUID
}

// ForcesFullRefund reports whether this trigger bypasses the refund policy
// and pays out 100% of amountPaid. Host event-cancels and admin emergency
// cancels do; visitor self-service cancels never do.
func (t Trigger) ForcesFullRefund() bool {
	return t.Kind == TriggerHost || t.Kind == TriggerAdmin
}

// PassOutcome records what settlement did to one targeted pass.
type PassOutcome struct {
	PassID       uuid.UUID `json:"pass_id"`
	BookingID    uuid.UUID `json:"booking_id"`
	Cancelled    bool      `json:"cancelled"`
	Skipped      bool      `json:"skipped"`
	SkipReason   string    `json:"skip_reason,omitempty"`
	RefundAmount int64     `json:"refund_amount"`
}

// Result is the aggregate outcome of one settlement call.
type Result struct {
	TotalRefundAmount  int64         `json:"total_refund_amount"`
	CancelledPassCount int           `json:"cancelled_pass_count"`
	SkippedPassCount   int           `json:"skipped_pass_count"`
	AffectedBookingIDs []uuid.UUID   `json:"affected_booking_ids"`
	PerPass            []PassOutcome `json:"passes"`
	PlaceCancelled     bool          `json:"place_cancelled"`
	ProcessingEstimate string        `json:"processing_estimate,omitempty"`
}

// PassStore is the slice of the pass repository the engine mutates through.
// CancelCAS must be a conditional update: rows are touched only while still
// cancellable, which is what makes concurrent overlapping settlements safe.
type PassStore interface {
	CancelCAS(ctx context.Context, id uuid.UUID, upd passes.CancelUpdate) (bool, error)
}

// BookingStore transitions bookings exactly once per settlement cascade.
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
	CancelCAS(ctx context.Context, id uuid.UUID, upd bookings.CancelUpdate) (bool, error)
}

// PlaceStore transitions a place once for event-level triggers.
type PlaceStore interface {
	CancelCAS(ctx context.Context, id uuid.UUID, upd places.CancelUpdate) (bool, error)
}

// Engine applies the cancellation cascade: pass transitions first, then one
// booking transition per distinct booking, then (for event-level triggers)
// the place transition. Refund amounts are fixed at pass-transition time and
// never recomputed afterwards.
type Engine struct {
	passStore    PassStore
	bookingStore BookingStore
	placeStore   PlaceStore

	// now is swappable so refund-date arithmetic is testable.
	now func() time.Time

	processingEstimate string
}

func NewEngine(passStore PassStore, bookingStore BookingStore, placeStore PlaceStore, processingEstimate string) *Engine {
	return &Engine{
		passStore:          passStore,
		bookingStore:       bookingStore,
		placeStore:         placeStore,
		now:                time.Now,
		processingEstimate: processingEstimate,
	}
}

// Settle runs the cascade over the given target passes. Callers are
// responsible for target selection and for the whole-request preconditions
// (ownership, event-started, cross-booking); the engine re-validates
// ownership for VISITOR triggers as a last line of defense.
//
// Already-cancelled and checked-in passes are skipped, never failed: inside
// a batch an unsettleable pass must not abort the rest of the cascade. The
// per-pass CAS closes the race with concurrent settlements - losing the CAS
// is reported as a skip, and a skipped pass contributes nothing to refund
// totals.
func (e *Engine) Settle(ctx context.Context, targets []passes.Pass, trig Trigger) (*Result, error) {
	if trig.Kind == TriggerVisitor {
		for i := range targets {
			if targets[i].VisitorID != trig.ActorID {
				return nil, apperrors.Authorizationf("pass %s does not belong to the acting visitor", targets[i].ID)
			}
		}
	}

	now := e.now()
	result := &Result{ProcessingEstimate: e.processingEstimate}

	type bookingAccum struct {
		refundTotal   int64
		refundedCount int
		settledCount  int
	}
	perBooking := make(map[uuid.UUID]*bookingAccum)
	bookingOrder := make([]uuid.UUID, 0)

	for i := range targets {
		pass := &targets[i]
		outcome := PassOutcome{PassID: pass.ID, BookingID: pass.BookingID}

		switch {
		case pass.IsCancelled():
			outcome.Skipped = true
			outcome.SkipReason = "already cancelled"
		case pass.IsCheckedIn():
			outcome.Skipped = true
			outcome.SkipReason = "already checked in"
		case pass.Status.IsTerminal():
			outcome.Skipped = true
			outcome.SkipReason = "pass is " + string(pass.Status)
		}
		if outcome.Skipped {
			result.SkippedPassCount++
			result.PerPass = append(result.PerPass, outcome)
			continue
		}

		refund := e.refundFor(pass, trig, now)

		ok, err := e.passStore.CancelCAS(ctx, pass.ID, passes.CancelUpdate{
			CancelledAt:       now,
			Reason:            trig.Reason,
			CancelledByKind:   string(trig.Kind),
			CancelledByUserID: trig.ActorID,
			RefundAmount:      refund,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost the race to a concurrent settlement or a check-in.
			outcome.Skipped = true
			outcome.SkipReason = "concurrent state change"
			result.SkippedPassCount++
			result.PerPass = append(result.PerPass, outcome)
			continue
		}

		outcome.Cancelled = true
		outcome.RefundAmount = refund
		result.CancelledPassCount++
		result.TotalRefundAmount += refund
		result.PerPass = append(result.PerPass, outcome)

		accum, known := perBooking[pass.BookingID]
		if !known {
			accum = &bookingAccum{}
			perBooking[pass.BookingID] = accum
			bookingOrder = append(bookingOrder, pass.BookingID)
		}
		accum.refundTotal += refund
		accum.settledCount++
		if refund > 0 {
			accum.refundedCount++
		}
	}

	// Booking transitions run only after every pass in the batch has been
	// settled, so each booking's refund total reflects the full batch.
	for _, bookingID := range bookingOrder {
		accum := perBooking[bookingID]

		booking, err := e.bookingStore.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		refundStatus := bookings.RefundNone
		if accum.refundedCount > 0 && accum.refundedCount == booking.GuestCount {
			refundStatus = bookings.RefundFull
		}

		ok, err := e.bookingStore.CancelCAS(ctx, bookingID, bookings.CancelUpdate{
			CancelledAt:  now,
			Reason:       trig.Reason,
			RefundAmount: accum.refundTotal,
			RefundStatus: refundStatus,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			// An earlier cascade already cancelled this booking; it is not
			// part of this settlement's outcome.
			logger.SettlementBookingAlreadyCancelled(bookingID.String())
			continue
		}
		result.AffectedBookingIDs = append(result.AffectedBookingIDs, bookingID)
	}

	if trig.EventLevel {
		ok, err := e.placeStore.CancelCAS(ctx, trig.PlaceID, places.CancelUpdate{
			CancelledAt:       now,
			Reason:            trig.Reason,
			CancelledByKind:   string(trig.Kind),
			CancelledByUserID: trig.ActorID,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			// Unlike the pass-level skip, a double event cancellation is a
			// genuine conflict and must surface.
			return nil, apperrors.Conflictf("place %s is already cancelled", trig.PlaceID)
		}
		result.PlaceCancelled = true
	}

	logger.SettlementCompleted(string(trig.Kind), result.CancelledPassCount,
		result.SkippedPassCount, result.TotalRefundAmount)

	return result, nil
}

// refundFor fixes the refund amount for one pass at transition time. HOST
// and ADMIN event cancellations force a 100% payout regardless of the
// policy snapshot; visitor cancellations go through the evaluator. Either
// way a refund is only recorded against money actually captured.
func (e *Engine) refundFor(pass *passes.Pass, trig Trigger, now time.Time) int64 {
	if pass.PaymentStatus != passes.PaymentPaid {
		return 0
	}
	if trig.ForcesFullRefund() {
		return pass.AmountPaid
	}
	return CalculateRefund(pass, pass.Policy, now)
}

// SetClock replaces the engine's time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}
