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

type recordingNotifier struct {
	visitorEvents []VisitorRefundEvent
	hostEvents    []HostEventCancelledEvent
}

func (n *recordingNotifier) VisitorRefund(_ context.Context, ev VisitorRefundEvent) {
	n.visitorEvents = append(n.visitorEvents, ev)
}

func (n *recordingNotifier) HostEventCancelled(_ context.Context, ev HostEventCancelledEvent) {
	n.hostEvents = append(n.hostEvents, ev)
}

type serviceFixture struct {
	service      Service
	passStore    *fakePassStore
	bookingStore *fakeBookingStore
	placeStore   *fakePlaceStore
	userStore    *fakeUserStore
	notifier     *recordingNotifier
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	passStore := newFakePassStore()
	bookingStore := newFakeBookingStore()
	placeStore := newFakePlaceStore()
	userStore := newFakeUserStore()
	notifier := &recordingNotifier{}

	engine := newTestEngine(passStore, bookingStore, placeStore)
	svc := NewService(engine, passStore, bookingStore, placeStore, userStore)
	svc.SetNotifier(notifier)
	if impl, ok := svc.(*service); ok {
		impl.now = func() time.Time { return testNow }
	}

	return &serviceFixture{
		service:      svc,
		passStore:    passStore,
		bookingStore: bookingStore,
		placeStore:   placeStore,
		userStore:    userStore,
		notifier:     notifier,
	}
}

func (f *serviceFixture) addUser(u *users.User)          { f.userStore.users[u.ID] = u }
func (f *serviceFixture) addPlace(p *places.Place)       { f.placeStore.places[p.ID] = p }
func (f *serviceFixture) addBooking(b *bookings.Booking) { f.bookingStore.bookings[b.ID] = b }
func (f *serviceFixture) addPass(p *passes.Pass)         { f.passStore.passes[p.ID] = p }

func visitorUser(id uuid.UUID) *users.User {
	return &users.User{ID: id, FirstName: "Vera", LastName: "Visitor", Email: "vera@example.com", Role: users.RoleVisitor}
}

func hostUser(id uuid.UUID) *users.User {
	return &users.User{ID: id, FirstName: "Hank", LastName: "Host", Email: "hank@example.com", Role: users.RoleHost}
}

func TestCancelPasses_CrossBookingRejectedWithoutMutation(t *testing.T) {
	f := newServiceFixture(t)
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingA := uuid.New()
	bookingB := uuid.New()
	visit := testNow.Add(48 * time.Hour)

	p1 := paidPass(bookingA, placeID, visitorID, 1000, visit)
	p2 := paidPass(bookingB, placeID, visitorID, 2000, visit)
	f.addPass(p1)
	f.addPass(p2)
	f.addBooking(confirmedBooking(bookingA, visitorID, placeID, 1, 1000))
	f.addBooking(confirmedBooking(bookingB, visitorID, placeID, 1, 2000))

	_, err := f.service.CancelPasses(context.Background(), visitorID,
		[]uuid.UUID{p1.ID, p2.ID}, "both please")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCrossBooking))

	// Zero state mutations on rejection.
	assert.Equal(t, passes.StatusApproved, f.passStore.passes[p1.ID].Status)
	assert.Equal(t, passes.StatusApproved, f.passStore.passes[p2.ID].Status)
	assert.Equal(t, 0, f.bookingStore.cancelCalls[bookingA])
	assert.Equal(t, 0, f.bookingStore.cancelCalls[bookingB])
	assert.Empty(t, f.notifier.visitorEvents)
}

func TestCancelPass_OwnershipEnforced(t *testing.T) {
	f := newServiceFixture(t)
	ownerID := uuid.New()
	p1 := paidPass(uuid.New(), uuid.New(), ownerID, 1000, testNow.Add(48*time.Hour))
	f.addPass(p1)

	_, err := f.service.CancelPass(context.Background(), uuid.New(), p1.ID, "mine now")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))
}

func TestCancelPass_AlreadyCancelledSurfacesForSingleTarget(t *testing.T) {
	f := newServiceFixture(t)
	visitorID := uuid.New()
	p1 := paidPass(uuid.New(), uuid.New(), visitorID, 1000, testNow.Add(48*time.Hour))
	p1.Status = passes.StatusCancelled
	p1.QRActive = false
	f.addPass(p1)

	_, err := f.service.CancelPass(context.Background(), visitorID, p1.ID, "again")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyCancelled))
}

func TestCancelPass_CheckedInSurfacesForSingleTarget(t *testing.T) {
	f := newServiceFixture(t)
	visitorID := uuid.New()
	p1 := paidPass(uuid.New(), uuid.New(), visitorID, 1000, testNow.Add(48*time.Hour))
	entry := testNow.Add(-time.Hour)
	p1.CheckInTime = &entry
	f.addPass(p1)

	_, err := f.service.CancelPass(context.Background(), visitorID, p1.ID, "too late")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyCheckedIn))
}

func TestCancelPass_ExpiredSurfacesForSingleTarget(t *testing.T) {
	f := newServiceFixture(t)
	visitorID := uuid.New()
	p1 := paidPass(uuid.New(), uuid.New(), visitorID, 1000, testNow.Add(-48*time.Hour))
	p1.Status = passes.StatusExpired
	p1.QRActive = false
	f.addPass(p1)

	_, err := f.service.CancelPass(context.Background(), visitorID, p1.ID, "too late")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, passes.StatusExpired, f.passStore.passes[p1.ID].Status)
}

func TestCancelPasses_DuplicateIDsCancelOnce(t *testing.T) {
	f := newServiceFixture(t)
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()
	visit := testNow.Add(48 * time.Hour)

	f.addUser(visitorUser(visitorID))
	f.addPlace(activePlace(placeID, uuid.New(), visit))
	f.addBooking(confirmedBooking(bookingID, visitorID, placeID, 1, 1000))
	p1 := paidPass(bookingID, placeID, visitorID, 1000, visit)
	f.addPass(p1)

	result, err := f.service.CancelPasses(context.Background(), visitorID,
		[]uuid.UUID{p1.ID, p1.ID}, "sent twice")
	require.NoError(t, err)

	assert.Equal(t, 1, result.CancelledPassCount)
	assert.Equal(t, 0, result.SkippedPassCount)
	assert.Equal(t, int64(800), result.TotalRefundAmount)
	assert.Equal(t, passes.StatusCancelled, f.passStore.passes[p1.ID].Status)
}

func TestCancelPass_NotifiesTheBookingVisitor(t *testing.T) {
	f := newServiceFixture(t)
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()

	f.addUser(visitorUser(visitorID))
	f.addPlace(activePlace(placeID, uuid.New(), testNow.Add(48*time.Hour)))
	f.addBooking(confirmedBooking(bookingID, visitorID, placeID, 1, 1000))
	p1 := paidPass(bookingID, placeID, visitorID, 1000, testNow.Add(48*time.Hour))
	f.addPass(p1)

	result, err := f.service.CancelPass(context.Background(), visitorID, p1.ID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, int64(800), result.TotalRefundAmount)
	assert.Equal(t, "5-7 business days", result.ProcessingEstimate)

	require.Len(t, f.notifier.visitorEvents, 1)
	ev := f.notifier.visitorEvents[0]
	assert.Equal(t, bookingID, ev.BookingID)
	assert.Equal(t, "vera@example.com", ev.VisitorEmail)
	assert.Equal(t, int64(800), ev.RefundAmount)
	assert.Equal(t, 1, ev.CancelledPassCount)
}

func TestCancelPlaceAsHost_RejectedAfterEventStart(t *testing.T) {
	f := newServiceFixture(t)
	hostID := uuid.New()
	placeID := uuid.New()

	started := activePlace(placeID, hostID, testNow.Add(-24*time.Hour))
	f.addPlace(started)
	f.addUser(hostUser(hostID))

	_, err := f.service.CancelPlaceAsHost(context.Background(), hostID, placeID, "cold feet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEventAlreadyStarted))
	assert.Equal(t, places.StatusActive, f.placeStore.places[placeID].Status)
}

func TestCancelPlaceAsHost_OnlyRefundsPaidPasses(t *testing.T) {
	f := newServiceFixture(t)
	hostID := uuid.New()
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()
	visit := testNow.Add(48 * time.Hour)

	f.addUser(hostUser(hostID))
	f.addUser(visitorUser(visitorID))
	f.addPlace(activePlace(placeID, hostID, visit))
	f.addBooking(confirmedBooking(bookingID, visitorID, placeID, 2, 1000))

	paid := paidPass(bookingID, placeID, visitorID, 1000, visit)
	unpaid := paidPass(bookingID, placeID, visitorID, 1000, visit)
	unpaid.Status = passes.StatusPending
	unpaid.PaymentStatus = passes.PaymentPending
	f.addPass(paid)
	f.addPass(unpaid)

	result, err := f.service.CancelPlaceAsHost(context.Background(), hostID, placeID, "venue flooded")
	require.NoError(t, err)

	// Host cancellation targets PAID passes only, at 100%.
	assert.Equal(t, int64(1000), result.TotalRefundAmount)
	assert.Equal(t, 1, result.CancelledPassCount)
	assert.True(t, result.PlaceCancelled)
	assert.Equal(t, passes.StatusCancelled, f.passStore.passes[paid.ID].Status)
	assert.Equal(t, passes.StatusPending, f.passStore.passes[unpaid.ID].Status)

	require.Len(t, f.notifier.hostEvents, 1)
	assert.Equal(t, int64(1000), f.notifier.hostEvents[0].TotalRefundAmount)
}

func TestCancelPlaceAsHost_ForeignPlaceRejected(t *testing.T) {
	f := newServiceFixture(t)
	placeID := uuid.New()
	f.addPlace(activePlace(placeID, uuid.New(), testNow.Add(48*time.Hour)))

	_, err := f.service.CancelPlaceAsHost(context.Background(), uuid.New(), placeID, "not mine")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))
}

func TestCancelPlaceAsAdmin_BypassesEventStartedCheck(t *testing.T) {
	f := newServiceFixture(t)
	adminID := uuid.New()
	hostID := uuid.New()
	visitorID := uuid.New()
	placeID := uuid.New()
	bookingID := uuid.New()

	f.addUser(hostUser(hostID))
	f.addUser(visitorUser(visitorID))
	started := activePlace(placeID, hostID, testNow.Add(-24*time.Hour))
	f.addPlace(started)
	f.addBooking(confirmedBooking(bookingID, visitorID, placeID, 1, 750))
	f.addPass(paidPass(bookingID, placeID, visitorID, 750, testNow.Add(24*time.Hour)))

	result, err := f.service.CancelPlaceAsAdmin(context.Background(), adminID, placeID, "emergency closure")
	require.NoError(t, err)
	assert.Equal(t, int64(750), result.TotalRefundAmount)
	assert.Equal(t, places.StatusCancelled, f.placeStore.places[placeID].Status)
}

func TestDisableHost_CascadesAcrossAllPlaces(t *testing.T) {
	f := newServiceFixture(t)
	adminID := uuid.New()
	hostID := uuid.New()
	visitorID := uuid.New()
	placeA := uuid.New()
	placeB := uuid.New()
	emptyPlace := uuid.New()
	bookingA := uuid.New()
	bookingB := uuid.New()
	visit := testNow.Add(48 * time.Hour)

	f.addUser(hostUser(hostID))
	f.addUser(visitorUser(visitorID))
	f.addPlace(activePlace(placeA, hostID, visit))
	f.addPlace(activePlace(placeB, hostID, visit))
	f.addPlace(activePlace(emptyPlace, hostID, visit))
	f.addBooking(confirmedBooking(bookingA, visitorID, placeA, 1, 1000))
	f.addBooking(confirmedBooking(bookingB, visitorID, placeB, 1, 2000))
	f.addPass(paidPass(bookingA, placeA, visitorID, 1000, visit))
	f.addPass(paidPass(bookingB, placeB, visitorID, 2000, visit))

	result, err := f.service.DisableHost(context.Background(), adminID, hostID, "policy violations")
	require.NoError(t, err)

	assert.Equal(t, 3, result.PlacesCancelled)
	assert.Equal(t, 2, result.CancelledPassCount)
	assert.Equal(t, int64(3000), result.TotalRefundAmount)

	assert.True(t, f.userStore.users[hostID].HostingDisabled)
	// Every place of the host, passes or not, ends cancelled and closed.
	for _, placeID := range []uuid.UUID{placeA, placeB, emptyPlace} {
		place := f.placeStore.places[placeID]
		assert.Equal(t, places.StatusCancelled, place.Status)
		assert.False(t, place.BookingEnabled)
	}
}

func TestDisableHost_NonHostRejected(t *testing.T) {
	f := newServiceFixture(t)
	visitorID := uuid.New()
	f.addUser(visitorUser(visitorID))

	_, err := f.service.DisableHost(context.Background(), uuid.New(), visitorID, "wrong target")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestDisableHost_SecondDisableConflicts(t *testing.T) {
	f := newServiceFixture(t)
	adminID := uuid.New()
	hostID := uuid.New()
	f.addUser(hostUser(hostID))

	_, err := f.service.DisableHost(context.Background(), adminID, hostID, "first")
	require.NoError(t, err)

	_, err = f.service.DisableHost(context.Background(), adminID, hostID, "second")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}
