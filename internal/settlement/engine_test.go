package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/bookings"
	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/shared/apperrors"
	"gatepass/internal/users"
)

// In-memory stores mirroring the repositories' conditional-update
// semantics, so engine tests exercise the same CAS behavior the database
// enforces.

type fakePassStore struct {
	passes map[uuid.UUID]*passes.Pass
}

func newFakePassStore(list ...*passes.Pass) *fakePassStore {
	store := &fakePassStore{passes: make(map[uuid.UUID]*passes.Pass)}
	for _, p := range list {
		store.passes[p.ID] = p
	}
	return store
}

func (f *fakePassStore) CancelCAS(_ context.Context, id uuid.UUID, upd passes.CancelUpdate) (bool, error) {
	pass, ok := f.passes[id]
	if !ok {
		return false, nil
	}
	if !pass.Status.CanBeCancelled() || pass.CheckInTime != nil {
		return false, nil
	}
	at := upd.CancelledAt
	pass.Status = passes.StatusCancelled
	pass.QRActive = false
	pass.CancelledAt = &at
	pass.CancellationReason = upd.Reason
	pass.CancelledByKind = upd.CancelledByKind
	actor := upd.CancelledByUserID
	pass.CancelledByUserID = &actor
	if upd.RefundAmount > 0 {
		pass.RefundAmount = upd.RefundAmount
		pass.RefundStatus = passes.RefundInitiated
		pass.PaymentStatus = passes.PaymentRefunded
	}
	return true, nil
}

func (f *fakePassStore) GetByID(_ context.Context, id uuid.UUID) (*passes.Pass, error) {
	pass, ok := f.passes[id]
	if !ok {
		return nil, apperrors.NotFoundf("pass %s", id)
	}
	copied := *pass
	return &copied, nil
}

func (f *fakePassStore) GetByIDs(_ context.Context, ids []uuid.UUID) ([]passes.Pass, error) {
	// Like a SQL IN lookup: each matching row exactly once.
	var result []passes.Pass
	returned := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if returned[id] {
			continue
		}
		if pass, ok := f.passes[id]; ok {
			result = append(result, *pass)
			returned[id] = true
		}
	}
	return result, nil
}

func (f *fakePassStore) GetCancellableByPlace(_ context.Context, placeID uuid.UUID, onlyPaid bool) ([]passes.Pass, error) {
	var result []passes.Pass
	for _, pass := range f.passes {
		if pass.PlaceID != placeID || !pass.Status.CanBeCancelled() {
			continue
		}
		if onlyPaid && pass.PaymentStatus != passes.PaymentPaid {
			continue
		}
		result = append(result, *pass)
	}
	return result, nil
}

func (f *fakePassStore) ListRefunded(_ context.Context, limit, offset int) ([]passes.Pass, int64, error) {
	var all []passes.Pass
	for _, pass := range f.passes {
		if pass.RefundStatus != passes.RefundNone {
			all = append(all, *pass)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type fakeBookingStore struct {
	bookings     map[uuid.UUID]*bookings.Booking
	cancelCalls  map[uuid.UUID]int
	transitioned map[uuid.UUID]int
}

func newFakeBookingStore(list ...*bookings.Booking) *fakeBookingStore {
	store := &fakeBookingStore{
		bookings:     make(map[uuid.UUID]*bookings.Booking),
		cancelCalls:  make(map[uuid.UUID]int),
		transitioned: make(map[uuid.UUID]int),
	}
	for _, b := range list {
		store.bookings[b.ID] = b
	}
	return store
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uuid.UUID) (*bookings.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.NotFoundf("booking %s", id)
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) CancelCAS(_ context.Context, id uuid.UUID, upd bookings.CancelUpdate) (bool, error) {
	f.cancelCalls[id]++
	booking, ok := f.bookings[id]
	if !ok || booking.Status == bookings.StatusCancelled {
		return false, nil
	}
	at := upd.CancelledAt
	booking.Status = bookings.StatusCancelled
	booking.CancelledAt = &at
	booking.CancellationReason = upd.Reason
	booking.RefundAmount = upd.RefundAmount
	if upd.RefundStatus != "" {
		booking.RefundStatus = upd.RefundStatus
	}
	f.transitioned[id]++
	return true, nil
}

type fakePlaceStore struct {
	places map[uuid.UUID]*places.Place
}

func newFakePlaceStore(list ...*places.Place) *fakePlaceStore {
	store := &fakePlaceStore{places: make(map[uuid.UUID]*places.Place)}
	for _, p := range list {
		store.places[p.ID] = p
	}
	return store
}

func (f *fakePlaceStore) CancelCAS(_ context.Context, id uuid.UUID, upd places.CancelUpdate) (bool, error) {
	place, ok := f.places[id]
	if !ok {
		return false, nil
	}
	if !place.Status.CanBeCancelled() {
		return false, nil
	}
	at := upd.CancelledAt
	place.Status = places.StatusCancelled
	place.BookingEnabled = false
	place.CancelledAt = &at
	place.CancellationReason = upd.Reason
	place.CancelledByKind = upd.CancelledByKind
	actor := upd.CancelledByUserID
	place.CancelledByUserID = &actor
	return true, nil
}

func (f *fakePlaceStore) GetByID(_ context.Context, id uuid.UUID) (*places.Place, error) {
	place, ok := f.places[id]
	if !ok {
		return nil, apperrors.NotFoundf("place %s", id)
	}
	copied := *place
	return &copied, nil
}

func (f *fakePlaceStore) ListActiveByHost(_ context.Context, hostID uuid.UUID) ([]places.Place, error) {
	var result []places.Place
	for _, place := range f.places {
		if place.HostID == hostID && place.Status == places.StatusActive {
			result = append(result, *place)
		}
	}
	return result, nil
}

func (f *fakePlaceStore) DisableBookingByHost(_ context.Context, hostID uuid.UUID) error {
	for _, place := range f.places {
		if place.HostID == hostID {
			place.BookingEnabled = false
		}
	}
	return nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*users.User
}

func newFakeUserStore(list ...*users.User) *fakeUserStore {
	store := &fakeUserStore{users: make(map[uuid.UUID]*users.User)}
	for _, u := range list {
		store.users[u.ID] = u
	}
	return store
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFoundf("user %s", id)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) DisableHosting(_ context.Context, hostID uuid.UUID, reason string, disabledBy uuid.UUID) error {
	user, ok := f.users[hostID]
	if !ok {
		return apperrors.NotFoundf("user %s", hostID)
	}
	if user.Role != users.RoleHost || user.HostingDisabled {
		return apperrors.Conflictf("host %s is not an active host", hostID)
	}
	user.HostingDisabled = true
	user.DisabledReason = reason
	return nil
}

// Test fixtures

func paidPass(bookingID, placeID, visitorID uuid.UUID, amount int64, visitDate time.Time) *passes.Pass {
	return &passes.Pass{
		ID:            uuid.New(),
		BookingID:     bookingID,
		PlaceID:       placeID,
		VisitorID:     visitorID,
		Status:        passes.StatusApproved,
		AmountPaid:    amount,
		PaymentStatus: passes.PaymentPaid,
		RefundStatus:  passes.RefundNone,
		VisitDate:     visitDate,
		QRActive:      true,
		Policy:        standardPolicy(),
	}
}

func confirmedBooking(id, visitorID, placeID uuid.UUID, guestCount int, total int64) *bookings.Booking {
	return &bookings.Booking{
		ID:            id,
		VisitorID:     visitorID,
		PlaceID:       placeID,
		GuestCount:    guestCount,
		TotalAmount:   total,
		Status:        bookings.StatusConfirmed,
		PaymentStatus: passes.PaymentPaid,
		RefundStatus:  bookings.RefundNone,
	}
}

func activePlace(id, hostID uuid.UUID, start time.Time) *places.Place {
	return &places.Place{
		ID:             id,
		HostID:         hostID,
		Name:           "Test Venue",
		StartDate:      start,
		EndDate:        start.Add(7 * 24 * time.Hour),
		DailyCapacity:  100,
		Status:         places.StatusActive,
		BookingEnabled: true,
		Refundable:     true,
	}
}

func newTestEngine(ps *fakePassStore, bs *fakeBookingStore, pls *fakePlaceStore) *Engine {
	engine := NewEngine(ps, bs, pls, "5-7 business days")
	engine.SetClock(func() time.Time { return testNow })
	return engine
}

func TestSettle_AdminEventCancelRefundsEverythingInFull(t *testing.T) {
	adminID := uuid.New()
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingA := uuid.New()
	bookingB := uuid.New()
	visit := testNow.Add(48 * time.Hour)

	p1 := paidPass(bookingA, placeID, visitorID, 1000, visit)
	p2 := paidPass(bookingA, placeID, visitorID, 2000, visit)
	p3 := paidPass(bookingB, placeID, visitorID, 500, visit)

	passStore := newFakePassStore(p1, p2, p3)
	bookingStore := newFakeBookingStore(
		confirmedBooking(bookingA, visitorID, placeID, 2, 3000),
		confirmedBooking(bookingB, visitorID, placeID, 1, 500),
	)
	placeStore := newFakePlaceStore(activePlace(placeID, uuid.New(), visit))
	engine := newTestEngine(passStore, bookingStore, placeStore)

	targets := []passes.Pass{*p1, *p2, *p3}
	result, err := engine.Settle(context.Background(), targets, Trigger{
		Kind:       TriggerAdmin,
		ActorID:    adminID,
		Reason:     "safety inspection failed",
		EventLevel: true,
		PlaceID:    placeID,
	})
	require.NoError(t, err)

	// Forced 100% payout, policy percentages ignored.
	assert.Equal(t, int64(3500), result.TotalRefundAmount)
	assert.Equal(t, 3, result.CancelledPassCount)
	assert.Equal(t, 0, result.SkippedPassCount)
	assert.True(t, result.PlaceCancelled)

	// Exactly one booking transition per distinct booking.
	assert.ElementsMatch(t, []uuid.UUID{bookingA, bookingB}, result.AffectedBookingIDs)
	assert.Equal(t, 1, bookingStore.transitioned[bookingA])
	assert.Equal(t, 1, bookingStore.transitioned[bookingB])
	assert.Equal(t, int64(3000), bookingStore.bookings[bookingA].RefundAmount)
	assert.Equal(t, int64(500), bookingStore.bookings[bookingB].RefundAmount)
	assert.Equal(t, bookings.RefundFull, bookingStore.bookings[bookingA].RefundStatus)
	assert.Equal(t, bookings.RefundFull, bookingStore.bookings[bookingB].RefundStatus)

	place := placeStore.places[placeID]
	assert.Equal(t, places.StatusCancelled, place.Status)
	assert.False(t, place.BookingEnabled)

	// Cancelled passes never keep an active QR.
	for _, pass := range passStore.passes {
		assert.Equal(t, passes.StatusCancelled, pass.Status)
		assert.False(t, pass.QRActive)
		assert.Equal(t, passes.RefundInitiated, pass.RefundStatus)
		assert.Equal(t, passes.PaymentRefunded, pass.PaymentStatus)
	}
}

func TestSettle_SecondRunIsANoOp(t *testing.T) {
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()

	p1 := paidPass(bookingID, placeID, visitorID, 1000, testNow.Add(48*time.Hour))
	passStore := newFakePassStore(p1)
	bookingStore := newFakeBookingStore(confirmedBooking(bookingID, visitorID, placeID, 1, 1000))
	engine := newTestEngine(passStore, bookingStore, newFakePlaceStore())

	trig := Trigger{Kind: TriggerVisitor, ActorID: visitorID, Reason: "change of plans"}

	first, err := engine.Settle(context.Background(), []passes.Pass{*p1}, trig)
	require.NoError(t, err)
	assert.Equal(t, int64(800), first.TotalRefundAmount)

	refundAfterFirst := passStore.passes[p1.ID].RefundAmount
	cancelledAtAfterFirst := passStore.passes[p1.ID].CancelledAt

	// Re-settling the already-cancelled pass: skipped, nothing changes.
	reloaded, err := passStore.GetByID(context.Background(), p1.ID)
	require.NoError(t, err)

	second, err := engine.Settle(context.Background(), []passes.Pass{*reloaded}, trig)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.TotalRefundAmount)
	assert.Equal(t, 0, second.CancelledPassCount)
	assert.Equal(t, 1, second.SkippedPassCount)
	assert.Empty(t, second.AffectedBookingIDs)

	assert.Equal(t, refundAfterFirst, passStore.passes[p1.ID].RefundAmount)
	assert.Equal(t, cancelledAtAfterFirst, passStore.passes[p1.ID].CancelledAt)
}

func TestSettle_CheckedInPassSkippedInsideBatch(t *testing.T) {
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()
	visit := testNow.Add(48 * time.Hour)

	cancellable := paidPass(bookingID, placeID, visitorID, 1000, visit)
	checkedIn := paidPass(bookingID, placeID, visitorID, 1000, visit)
	entry := testNow.Add(-time.Hour)
	checkedIn.CheckInTime = &entry

	passStore := newFakePassStore(cancellable, checkedIn)
	bookingStore := newFakeBookingStore(confirmedBooking(bookingID, visitorID, placeID, 2, 2000))
	engine := newTestEngine(passStore, bookingStore, newFakePlaceStore())

	result, err := engine.Settle(context.Background(),
		[]passes.Pass{*cancellable, *checkedIn},
		Trigger{Kind: TriggerVisitor, ActorID: visitorID, Reason: "partial cancel"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CancelledPassCount)
	assert.Equal(t, 1, result.SkippedPassCount)
	assert.Equal(t, passes.StatusApproved, passStore.passes[checkedIn.ID].Status)

	// Only one of two passes refunded: the booking must not read as fully
	// refunded.
	assert.Equal(t, bookings.RefundNone, bookingStore.bookings[bookingID].RefundStatus)
	assert.Equal(t, int64(800), bookingStore.bookings[bookingID].RefundAmount)
}

func TestSettle_BookingCancelledElsewhereNotCountedAsAffected(t *testing.T) {
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()

	p1 := paidPass(bookingID, placeID, visitorID, 1000, testNow.Add(48*time.Hour))
	passStore := newFakePassStore(p1)

	// The booking was already cancelled by an earlier cascade; its passes
	// lagged behind and are still being settled here.
	booking := confirmedBooking(bookingID, visitorID, placeID, 1, 1000)
	booking.Status = bookings.StatusCancelled
	bookingStore := newFakeBookingStore(booking)
	engine := newTestEngine(passStore, bookingStore, newFakePlaceStore())

	result, err := engine.Settle(context.Background(), []passes.Pass{*p1},
		Trigger{Kind: TriggerVisitor, ActorID: visitorID, Reason: "stragglers"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CancelledPassCount)
	assert.Empty(t, result.AffectedBookingIDs)
}

func TestSettle_VisitorTriggerRejectsForeignPass(t *testing.T) {
	ownerID := uuid.New()
	intruderID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()

	p1 := paidPass(bookingID, placeID, ownerID, 1000, testNow.Add(48*time.Hour))
	passStore := newFakePassStore(p1)
	bookingStore := newFakeBookingStore(confirmedBooking(bookingID, ownerID, placeID, 1, 1000))
	engine := newTestEngine(passStore, bookingStore, newFakePlaceStore())

	_, err := engine.Settle(context.Background(), []passes.Pass{*p1},
		Trigger{Kind: TriggerVisitor, ActorID: intruderID, Reason: "not mine"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))

	// Rejected before any mutation.
	assert.Equal(t, passes.StatusApproved, passStore.passes[p1.ID].Status)
	assert.Equal(t, 0, bookingStore.cancelCalls[bookingID])
}

func TestSettle_UnpaidPassCancelsWithoutRefund(t *testing.T) {
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()

	pending := paidPass(bookingID, placeID, visitorID, 1000, testNow.Add(48*time.Hour))
	pending.Status = passes.StatusPending
	pending.PaymentStatus = passes.PaymentPending

	passStore := newFakePassStore(pending)
	bookingStore := newFakeBookingStore(confirmedBooking(bookingID, visitorID, placeID, 1, 1000))
	engine := newTestEngine(passStore, bookingStore, newFakePlaceStore())

	result, err := engine.Settle(context.Background(), []passes.Pass{*pending},
		Trigger{Kind: TriggerVisitor, ActorID: visitorID, Reason: "never paid"})
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.TotalRefundAmount)
	assert.Equal(t, 1, result.CancelledPassCount)

	stored := passStore.passes[pending.ID]
	assert.Equal(t, passes.StatusCancelled, stored.Status)
	assert.Equal(t, passes.RefundNone, stored.RefundStatus)
	assert.Equal(t, passes.PaymentPending, stored.PaymentStatus)
}

func TestSettle_ForcedRefundIgnoresNonRefundablePolicy(t *testing.T) {
	adminID := uuid.New()
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()

	p1 := paidPass(bookingID, placeID, visitorID, 1500, testNow.Add(48*time.Hour))
	p1.Policy = passes.RefundPolicySnapshot{Refundable: false}

	passStore := newFakePassStore(p1)
	bookingStore := newFakeBookingStore(confirmedBooking(bookingID, visitorID, placeID, 1, 1500))
	placeStore := newFakePlaceStore(activePlace(placeID, uuid.New(), testNow.Add(48*time.Hour)))
	engine := newTestEngine(passStore, bookingStore, placeStore)

	result, err := engine.Settle(context.Background(), []passes.Pass{*p1}, Trigger{
		Kind:       TriggerAdmin,
		ActorID:    adminID,
		Reason:     "emergency",
		EventLevel: true,
		PlaceID:    placeID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), result.TotalRefundAmount)
}

func TestSettle_AlreadyCancelledPlaceIsAConflict(t *testing.T) {
	adminID := uuid.New()
	placeID := uuid.New()

	cancelled := activePlace(placeID, uuid.New(), testNow.Add(48*time.Hour))
	cancelled.Status = places.StatusCancelled
	cancelled.BookingEnabled = false

	engine := newTestEngine(newFakePassStore(), newFakeBookingStore(), newFakePlaceStore(cancelled))

	_, err := engine.Settle(context.Background(), nil, Trigger{
		Kind:       TriggerAdmin,
		ActorID:    adminID,
		Reason:     "double cancel",
		EventLevel: true,
		PlaceID:    placeID,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}
