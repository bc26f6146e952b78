package bookings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/shared/apperrors"
	"gatepass/internal/users"
)

// fakeBookingRepo emulates the repository's transactional semantics in
// memory: capacity is enforced at create time and payment confirmation
// mutates booking and passes together.
type fakeBookingRepo struct {
	bookings map[uuid.UUID]*Booking
	capacity int
}

func newFakeBookingRepo(capacity int) *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[uuid.UUID]*Booking),
		capacity: capacity,
	}
}

func (f *fakeBookingRepo) activeGuestCount(placeID uuid.UUID, visitDate time.Time) int {
	count := 0
	for _, b := range f.bookings {
		if b.PlaceID != placeID || !b.VisitDate.Equal(visitDate) {
			continue
		}
		for i := range b.Passes {
			if b.Passes[i].Status == passes.StatusPending || b.Passes[i].Status == passes.StatusApproved {
				count++
			}
		}
	}
	return count
}

func (f *fakeBookingRepo) CreateWithCapacityCheck(_ context.Context, booking *Booking) error {
	if f.activeGuestCount(booking.PlaceID, booking.VisitDate)+booking.GuestCount > f.capacity {
		return apperrors.Conflictf("daily capacity exceeded for %s", booking.VisitDate.Format("2006-01-02"))
	}
	booking.ID = uuid.New()
	for i := range booking.Passes {
		booking.Passes[i].ID = uuid.New()
		booking.Passes[i].BookingID = booking.ID
	}
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.NotFoundf("booking %s", id)
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) GetByIDWithPasses(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeBookingRepo) GetByVisitor(_ context.Context, visitorID uuid.UUID, _ BookingListQuery) ([]Booking, int64, error) {
	var result []Booking
	for _, b := range f.bookings {
		if b.VisitorID == visitorID {
			result = append(result, *b)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeBookingRepo) ConfirmPayment(_ context.Context, bookingID uuid.UUID, conf PaymentConfirmation) (*Booking, error) {
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, apperrors.NotFoundf("booking %s", bookingID)
	}
	if b.Status != StatusPending {
		return nil, apperrors.Conflictf("booking %s is not awaiting payment", bookingID)
	}
	at := conf.ConfirmedAt
	for i := range b.Passes {
		p := &b.Passes[i]
		p.Status = passes.StatusApproved
		p.PaymentStatus = conf.PaymentStatus
		p.SlotNumber = i + 1
		p.QRToken = conf.QRTokens[p.ID]
		p.QRActive = true
		p.Policy = conf.Snapshot
		p.PolicySnapshotAt = &at
	}
	b.Status = StatusConfirmed
	b.PaymentStatus = conf.PaymentStatus
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) CancelCAS(_ context.Context, id uuid.UUID, upd CancelUpdate) (bool, error) {
	b, ok := f.bookings[id]
	if !ok || !b.Status.CanBeCancelled() {
		return false, nil
	}
	at := upd.CancelledAt
	b.Status = StatusCancelled
	b.CancelledAt = &at
	b.RefundStatus = upd.RefundStatus
	b.RefundAmount = upd.RefundAmount
	return true, nil
}

type fakePlaceStore struct {
	places map[uuid.UUID]*places.Place
}

func (f *fakePlaceStore) GetByID(_ context.Context, id uuid.UUID) (*places.Place, error) {
	p, ok := f.places[id]
	if !ok {
		return nil, apperrors.NotFoundf("place %s", id)
	}
	copied := *p
	return &copied, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*users.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFoundf("user %s", id)
	}
	copied := *u
	return &copied, nil
}

type confirmationRecorder struct {
	bookings   []*Booking
	placeNames []string
	emails     [][]string
}

func (r *confirmationRecorder) PassesConfirmed(_ context.Context, booking *Booking, placeName string, guestEmails []string) {
	r.bookings = append(r.bookings, booking)
	r.placeNames = append(r.placeNames, placeName)
	r.emails = append(r.emails, guestEmails)
}

type bookingFixture struct {
	svc      Service
	repo     *fakeBookingRepo
	place    *places.Place
	host     *users.User
	visitor  *users.User
	notifier *confirmationRecorder
}

func newBookingFixture(t *testing.T, pricePerGuest int64, capacity int) *bookingFixture {
	t.Helper()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	host := &users.User{ID: uuid.New(), FirstName: "Hana", LastName: "Okafor", Email: "hana@example.com", Role: users.RoleHost}
	visitor := &users.User{ID: uuid.New(), FirstName: "Vera", LastName: "Lindqvist", Email: "vera@example.com", Role: users.RoleVisitor}
	place := &places.Place{
		ID:                 uuid.New(),
		HostID:             host.ID,
		Name:               "Botanical Night Garden",
		StartDate:          today.AddDate(0, 0, 1),
		EndDate:            today.AddDate(0, 0, 30),
		DailyCapacity:      capacity,
		PricePerGuest:      pricePerGuest,
		Refundable:         true,
		BeforeVisitPercent: 80,
		SameDayPercent:     50,
		BookingEnabled:     true,
		Status:             places.StatusActive,
	}

	repo := newFakeBookingRepo(capacity)
	notifier := &confirmationRecorder{}
	svc := NewService(repo,
		&fakePlaceStore{places: map[uuid.UUID]*places.Place{place.ID: place}},
		&fakeUserStore{users: map[uuid.UUID]*users.User{host.ID: host, visitor.ID: visitor}},
	)
	svc.SetNotifier(notifier)

	return &bookingFixture{svc: svc, repo: repo, place: place, host: host, visitor: visitor, notifier: notifier}
}

func (fx *bookingFixture) createRequest(guests int) CreateBookingRequest {
	req := CreateBookingRequest{
		PlaceID:   fx.place.ID,
		VisitDate: fx.place.StartDate.AddDate(0, 0, 1),
	}
	for i := 0; i < guests; i++ {
		req.Guests = append(req.Guests, GuestInfo{Name: "Guest " + string(rune('A'+i)), Email: "guest@example.com"})
	}
	return req
}

func TestCreateBooking_OnePassPerGuest(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	resp, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(3))
	require.NoError(t, err)

	assert.Equal(t, 3, resp.GuestCount)
	assert.Equal(t, int64(13500), resp.TotalAmount)
	assert.Equal(t, StatusPending, resp.Status)
	assert.True(t, strings.HasPrefix(resp.BookingRef, "GP-"))

	stored := fx.repo.bookings[uuid.MustParse(resp.ID)]
	require.Len(t, stored.Passes, 3)
	for _, p := range stored.Passes {
		assert.Equal(t, passes.StatusPending, p.Status)
		assert.Equal(t, int64(4500), p.AmountPaid)
		assert.False(t, p.QRActive)
	}
}

func TestCreateBooking_CapacityEnforcedAcrossBookings(t *testing.T) {
	fx := newBookingFixture(t, 4500, 4)

	_, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(3))
	require.NoError(t, err)

	_, err = fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateBooking_RejectsPastVisitDate(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	req := fx.createRequest(1)
	req.VisitDate = time.Now().UTC().AddDate(0, 0, -2)

	_, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateBooking_RejectsDateOutsideOperatingWindow(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	req := fx.createRequest(1)
	req.VisitDate = fx.place.EndDate.AddDate(0, 0, 5)

	_, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateBooking_RejectsCancelledPlace(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)
	fx.place.Status = places.StatusCancelled

	_, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(1))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateBooking_RejectsDisabledHost(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)
	fx.host.HostingDisabled = true

	_, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(1))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateBooking_FreePlaceConfirmsImmediately(t *testing.T) {
	fx := newBookingFixture(t, 0, 100)

	resp, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(2))
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, resp.Status)
	assert.Equal(t, passes.PaymentFree, resp.PaymentStatus)

	stored := fx.repo.bookings[uuid.MustParse(resp.ID)]
	for _, p := range stored.Passes {
		assert.Equal(t, passes.StatusApproved, p.Status)
		assert.True(t, p.QRActive)
		assert.NotEmpty(t, p.QRToken)
	}
}

func TestConfirmPayment_FreezesPolicySnapshot(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	created, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(2))
	require.NoError(t, err)

	confirmed, err := fx.svc.ConfirmPayment(context.Background(), fx.visitor.ID, uuid.MustParse(created.ID), ConfirmPaymentRequest{TransactionRef: "txn-001"})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	// Later policy edits on the place must not leak into sold passes.
	fx.place.BeforeVisitPercent = 10
	fx.place.SameDayPercent = 5

	stored := fx.repo.bookings[uuid.MustParse(created.ID)]
	for _, p := range stored.Passes {
		assert.True(t, p.Policy.Refundable)
		assert.Equal(t, 80, p.Policy.BeforeVisitPercent)
		assert.Equal(t, 50, p.Policy.SameDayPercent)
		require.NotNil(t, p.PolicySnapshotAt)
	}
}

func TestConfirmPayment_AssignsDistinctSlotsAndTokens(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	created, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(3))
	require.NoError(t, err)

	_, err = fx.svc.ConfirmPayment(context.Background(), fx.visitor.ID, uuid.MustParse(created.ID), ConfirmPaymentRequest{TransactionRef: "txn-002"})
	require.NoError(t, err)

	stored := fx.repo.bookings[uuid.MustParse(created.ID)]
	seenSlots := make(map[int]bool)
	seenTokens := make(map[string]bool)
	for _, p := range stored.Passes {
		assert.False(t, seenSlots[p.SlotNumber], "slot %d assigned twice", p.SlotNumber)
		assert.False(t, seenTokens[p.QRToken], "token reused")
		seenSlots[p.SlotNumber] = true
		seenTokens[p.QRToken] = true
	}
}

func TestConfirmPayment_OwnershipEnforced(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	created, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(1))
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = fx.svc.ConfirmPayment(context.Background(), stranger, uuid.MustParse(created.ID), ConfirmPaymentRequest{TransactionRef: "txn-003"})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

func TestConfirmPayment_NotifiesGuests(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	created, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(2))
	require.NoError(t, err)

	_, err = fx.svc.ConfirmPayment(context.Background(), fx.visitor.ID, uuid.MustParse(created.ID), ConfirmPaymentRequest{TransactionRef: "txn-004"})
	require.NoError(t, err)

	require.Len(t, fx.notifier.bookings, 1)
	assert.Equal(t, "Botanical Night Garden", fx.notifier.placeNames[0])
	assert.Len(t, fx.notifier.emails[0], 2)
}

func TestGetBooking_AdminMayReadAnyBooking(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	created, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(1))
	require.NoError(t, err)
	bookingID := uuid.MustParse(created.ID)

	_, err = fx.svc.GetBooking(context.Background(), uuid.New(), string(users.RoleAdmin), bookingID)
	assert.NoError(t, err)

	_, err = fx.svc.GetBooking(context.Background(), uuid.New(), string(users.RoleVisitor), bookingID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

func TestListMyBookings_ReturnsOnlyOwnBookings(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	_, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, fx.createRequest(1))
	require.NoError(t, err)

	page, err := fx.svc.ListMyBookings(context.Background(), fx.visitor.ID, BookingListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Bookings, 1)
	assert.Equal(t, int64(1), page.TotalCount)

	other, err := fx.svc.ListMyBookings(context.Background(), uuid.New(), BookingListQuery{})
	require.NoError(t, err)
	assert.Empty(t, other.Bookings)
}

func TestCreateBooking_UnknownPlace(t *testing.T) {
	fx := newBookingFixture(t, 4500, 100)

	req := fx.createRequest(1)
	req.PlaceID = uuid.New()

	_, err := fx.svc.CreateBooking(context.Background(), fx.visitor.ID, req)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
