package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/shared/apperrors"
	"gatepass/internal/users"
	"gatepass/pkg/logger"
)

// PlaceStore is the slice of the places repository this service needs.
type PlaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*places.Place, error)
}

// UserStore resolves hosts so bookings against disabled hosts are rejected.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// Notifier fans out booking lifecycle events. Delivery is best-effort.
type Notifier interface {
	PassesConfirmed(ctx context.Context, booking *Booking, placeName string, guestEmails []string)
}

type Service interface {
	CreateBooking(ctx context.Context, visitorID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error)
	ConfirmPayment(ctx context.Context, visitorID uuid.UUID, bookingID uuid.UUID, req ConfirmPaymentRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, requesterID uuid.UUID, requesterRole string, bookingID uuid.UUID) (*BookingResponse, error)
	ListMyBookings(ctx context.Context, visitorID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)
	SetNotifier(n Notifier)
}

type service struct {
	repo      Repository
	placeRepo PlaceStore
	userRepo  UserStore
	notifier  Notifier
}

func NewService(repo Repository, placeRepo PlaceStore, userRepo UserStore) Service {
	return &service{
		repo:      repo,
		placeRepo: placeRepo,
		userRepo:  userRepo,
	}
}

// SetNotifier wires the notification fan-out after construction so the
// booking and notification packages stay decoupled.
func (s *service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *service) CreateBooking(ctx context.Context, visitorID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	place, err := s.placeRepo.GetByID(ctx, req.PlaceID)
	if err != nil {
		return nil, err
	}

	if place.IsCancelled() {
		return nil, fmt.Errorf("%w: place has been cancelled", apperrors.ErrConflict)
	}
	if !place.BookingEnabled {
		return nil, fmt.Errorf("%w: bookings are disabled for this place", apperrors.ErrConflict)
	}

	host, err := s.userRepo.GetByID(ctx, place.HostID)
	if err != nil {
		return nil, err
	}
	if host.HostingDisabled {
		return nil, fmt.Errorf("%w: bookings are disabled for this place", apperrors.ErrConflict)
	}

	visitDate := req.VisitDate.Truncate(24 * time.Hour)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if visitDate.Before(today) {
		return nil, fmt.Errorf("%w: visit date cannot be in the past", apperrors.ErrValidation)
	}
	if visitDate.Before(place.StartDate.Truncate(24*time.Hour)) || visitDate.After(place.EndDate.Truncate(24*time.Hour)) {
		return nil, fmt.Errorf("%w: visit date is outside the place's operating window", apperrors.ErrValidation)
	}

	guestCount := len(req.Guests)
	totalAmount := place.PricePerGuest * int64(guestCount)

	booking := &Booking{
		VisitorID:     visitorID,
		PlaceID:       place.ID,
		VisitDate:     visitDate,
		GuestCount:    guestCount,
		TotalAmount:   totalAmount,
		Status:        StatusPending,
		PaymentStatus: passes.PaymentPending,
		RefundStatus:  RefundNone,
		BookingRef:    newBookingRef(),
	}
	for _, guest := range req.Guests {
		booking.Passes = append(booking.Passes, passes.Pass{
			PlaceID:       place.ID,
			HostID:        place.HostID,
			VisitorID:     visitorID,
			GuestName:     guest.Name,
			GuestEmail:    guest.Email,
			VisitDate:     visitDate,
			Status:        passes.StatusPending,
			AmountPaid:    place.PricePerGuest,
			PaymentStatus: passes.PaymentPending,
			RefundStatus:  passes.RefundNone,
		})
	}

	if err := s.repo.CreateWithCapacityCheck(ctx, booking); err != nil {
		return nil, err
	}

	logger.BookingCreated(booking.ID.String(), place.ID.String(), guestCount, totalAmount)

	// Free places skip the payment leg entirely.
	if totalAmount == 0 {
		return s.confirm(ctx, booking, passes.PaymentFree, place)
	}

	resp := booking.ToResponse()
	return &resp, nil
}

func (s *service) ConfirmPayment(ctx context.Context, visitorID uuid.UUID, bookingID uuid.UUID, req ConfirmPaymentRequest) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.VisitorID != visitorID {
		return nil, apperrors.Authorizationf("booking %s does not belong to you", bookingID)
	}

	place, err := s.placeRepo.GetByID(ctx, booking.PlaceID)
	if err != nil {
		return nil, err
	}
	if place.IsCancelled() {
		return nil, fmt.Errorf("%w: place has been cancelled", apperrors.ErrConflict)
	}

	return s.confirm(ctx, booking, passes.PaymentPaid, place)
}

// confirm freezes the place's refund policy onto every pass and activates
// QR tokens. The snapshot is what all later refund decisions read.
func (s *service) confirm(ctx context.Context, booking *Booking, paymentStatus passes.PaymentStatus, place *places.Place) (*BookingResponse, error) {
	now := time.Now().UTC()

	passList := booking.Passes
	if len(passList) == 0 {
		full, err := s.repo.GetByIDWithPasses(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		passList = full.Passes
	}

	tokens := make(map[uuid.UUID]string, len(passList))
	for _, p := range passList {
		tokens[p.ID] = newQRToken()
	}

	conf := PaymentConfirmation{
		PaymentStatus: paymentStatus,
		Snapshot: passes.RefundPolicySnapshot{
			Refundable:         place.Refundable,
			BeforeVisitPercent: place.BeforeVisitPercent,
			SameDayPercent:     place.SameDayPercent,
		},
		QRTokens:    tokens,
		ConfirmedAt: now,
	}

	confirmed, err := s.repo.ConfirmPayment(ctx, booking.ID, conf)
	if err != nil {
		return nil, err
	}

	logger.BookingConfirmed(confirmed.ID.String(), string(paymentStatus), confirmed.TotalAmount)

	if s.notifier != nil {
		emails := make([]string, 0, len(confirmed.Passes))
		for _, p := range confirmed.Passes {
			if p.GuestEmail != "" {
				emails = append(emails, p.GuestEmail)
			}
		}
		s.notifier.PassesConfirmed(ctx, confirmed, place.Name, emails)
	}

	resp := confirmed.ToResponse()
	return &resp, nil
}

func (s *service) GetBooking(ctx context.Context, requesterID uuid.UUID, requesterRole string, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetByIDWithPasses(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.VisitorID != requesterID && requesterRole != string(users.RoleAdmin) {
		return nil, apperrors.Authorizationf("booking %s does not belong to you", bookingID)
	}
	resp := booking.ToResponse()
	return &resp, nil
}

func (s *service) ListMyBookings(ctx context.Context, visitorID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	list, totalCount, err := s.repo.GetByVisitor(ctx, visitorID, query)
	if err != nil {
		return nil, err
	}

	responses := make([]BookingResponse, 0, len(list))
	for i := range list {
		responses = append(responses, list[i].ToResponse())
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}
	totalPages := int((totalCount + int64(query.Limit) - 1) / int64(query.Limit))

	return &PaginatedBookings{
		Bookings:   responses,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

func newBookingRef() string {
	return "GP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func newQRToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
