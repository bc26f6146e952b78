package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/shared/apperrors"
	"gatepass/internal/users"
	"gatepass/pkg/cache"
	"gatepass/pkg/logger"
)

// PassRepository is the full pass-store surface the orchestration layer
// needs: target selection on top of the engine's mutation interface.
type PassRepository interface {
	PassStore
	GetByID(ctx context.Context, id uuid.UUID) (*passes.Pass, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]passes.Pass, error)
	GetCancellableByPlace(ctx context.Context, placeID uuid.UUID, onlyPaid bool) ([]passes.Pass, error)
	ListRefunded(ctx context.Context, limit, offset int) ([]passes.Pass, int64, error)
}

// PlaceRepository adds place lookups to the engine's mutation interface.
type PlaceRepository interface {
	PlaceStore
	GetByID(ctx context.Context, id uuid.UUID) (*places.Place, error)
	ListActiveByHost(ctx context.Context, hostID uuid.UUID) ([]places.Place, error)
	DisableBookingByHost(ctx context.Context, hostID uuid.UUID) error
}

// UserRepository resolves actors and applies the host moderation flag.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	DisableHosting(ctx context.Context, hostID uuid.UUID, reason string, disabledBy uuid.UUID) error
}

// VisitorRefundEvent carries one booking's refund summary to its visitor.
type VisitorRefundEvent struct {
	BookingID          uuid.UUID
	VisitorID          uuid.UUID
	VisitorEmail       string
	VisitorName        string
	PlaceName          string
	CancelledPassCount int
	RefundAmount       int64
	ProcessingEstimate string
	Reason             string
}

// HostEventCancelledEvent tells a host their event was cancelled.
type HostEventCancelledEvent struct {
	PlaceID            uuid.UUID
	HostID             uuid.UUID
	PlaceName          string
	HostEmail          string
	HostName           string
	CancelledPassCount int
	TotalRefundAmount  int64
	Reason             string
}

// Notifier fans settlement outcomes out to the affected parties. Delivery
// is fire-and-forget: implementations log failures and never return them.
type Notifier interface {
	VisitorRefund(ctx context.Context, ev VisitorRefundEvent)
	HostEventCancelled(ctx context.Context, ev HostEventCancelledEvent)
}

// RefundRecord is one settled refund in the admin listing.
type RefundRecord struct {
	PassID          uuid.UUID  `json:"pass_id"`
	BookingID       uuid.UUID  `json:"booking_id"`
	PlaceID         uuid.UUID  `json:"place_id"`
	GuestName       string     `json:"guest_name"`
	RefundAmount    int64      `json:"refund_amount"`
	RefundStatus    string     `json:"refund_status"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelledByKind string     `json:"cancelled_by_kind,omitempty"`
	Reason          string     `json:"reason,omitempty"`
}

// RefundListing is a page of settled refunds.
type RefundListing struct {
	Refunds []RefundRecord `json:"refunds"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
}

// DisableHostResult aggregates the cascade across all of a host's places.
type DisableHostResult struct {
	HostID             uuid.UUID   `json:"host_id"`
	PlacesCancelled    int         `json:"places_cancelled"`
	CancelledPassCount int         `json:"cancelled_pass_count"`
	TotalRefundAmount  int64       `json:"total_refund_amount"`
	PlaceIDs           []uuid.UUID `json:"place_ids"`
}

type Service interface {
	// CancelPass settles a single visitor-owned pass. Unlike batch
	// cascades, an unsettleable single target is surfaced as an error.
	CancelPass(ctx context.Context, visitorID uuid.UUID, passID uuid.UUID, reason string) (*Result, error)

	// CancelPasses settles a batch of passes from one booking on behalf of
	// the owning visitor.
	CancelPasses(ctx context.Context, visitorID uuid.UUID, passIDs []uuid.UUID, reason string) (*Result, error)

	// CancelPlaceAsHost cancels an entire not-yet-started event, refunding
	// every PAID pass in full.
	CancelPlaceAsHost(ctx context.Context, hostID uuid.UUID, placeID uuid.UUID, reason string) (*Result, error)

	// CancelPlaceAsAdmin is the emergency path: no event-started check,
	// every cancellable pass refunded in full.
	CancelPlaceAsAdmin(ctx context.Context, adminID uuid.UUID, placeID uuid.UUID, reason string) (*Result, error)

	// DisableHost disables the host account and cancels all of its active
	// places, cascading a full refund through each.
	DisableHost(ctx context.Context, adminID uuid.UUID, hostID uuid.UUID, reason string) (*DisableHostResult, error)

	// ListRefunds pages through settled refunds for admin oversight.
	ListRefunds(ctx context.Context, page, limit int) (*RefundListing, error)

	SetNotifier(n Notifier)
	SetCacheService(cacheService cache.Service)
}

type service struct {
	engine       *Engine
	passRepo     PassRepository
	bookingRepo  BookingStore
	placeRepo    PlaceRepository
	userRepo     UserRepository
	notifier     Notifier
	cacheService cache.Service
	now          func() time.Time
}

func NewService(engine *Engine, passRepo PassRepository, bookingRepo BookingStore, placeRepo PlaceRepository, userRepo UserRepository) Service {
	return &service{
		engine:      engine,
		passRepo:    passRepo,
		bookingRepo: bookingRepo,
		placeRepo:   placeRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

func (s *service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) CancelPass(ctx context.Context, visitorID uuid.UUID, passID uuid.UUID, reason string) (*Result, error) {
	pass, err := s.passRepo.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if pass.VisitorID != visitorID {
		return nil, apperrors.Authorizationf("pass %s does not belong to you", passID)
	}
	if pass.IsCancelled() {
		return nil, fmt.Errorf("pass %s: %w", passID, apperrors.ErrAlreadyCancelled)
	}
	if pass.IsCheckedIn() {
		return nil, fmt.Errorf("pass %s: %w", passID, apperrors.ErrAlreadyCheckedIn)
	}
	if pass.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: pass %s is %s", apperrors.ErrValidation, passID, pass.Status)
	}

	result, err := s.engine.Settle(ctx, []passes.Pass{*pass}, Trigger{
		Kind:    TriggerVisitor,
		ActorID: visitorID,
		Reason:  reason,
	})
	if err != nil {
		return nil, err
	}

	s.notifyVisitors(ctx, result, pass.PlaceID, reason)
	return result, nil
}

func (s *service) CancelPasses(ctx context.Context, visitorID uuid.UUID, passIDs []uuid.UUID, reason string) (*Result, error) {
	if len(passIDs) == 0 {
		return nil, fmt.Errorf("%w: no passes given", apperrors.ErrValidation)
	}

	// Duplicate IDs in the request collapse to one row in the lookup; dedupe
	// first so the length check only trips for genuinely missing passes.
	seen := make(map[uuid.UUID]struct{}, len(passIDs))
	ids := make([]uuid.UUID, 0, len(passIDs))
	for _, id := range passIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	targets, err := s.passRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(targets) != len(ids) {
		return nil, apperrors.NotFoundf("one or more passes do not exist")
	}

	// Whole-batch preconditions run before any mutation: a violation
	// anywhere rejects the entire request.
	bookingID := targets[0].BookingID
	for i := range targets {
		if targets[i].VisitorID != visitorID {
			return nil, apperrors.Authorizationf("pass %s does not belong to you", targets[i].ID)
		}
		if targets[i].BookingID != bookingID {
			return nil, fmt.Errorf("%w: all passes must belong to one booking", apperrors.ErrCrossBooking)
		}
	}

	result, err := s.engine.Settle(ctx, targets, Trigger{
		Kind:    TriggerVisitor,
		ActorID: visitorID,
		Reason:  reason,
	})
	if err != nil {
		return nil, err
	}

	s.notifyVisitors(ctx, result, targets[0].PlaceID, reason)
	return result, nil
}

func (s *service) CancelPlaceAsHost(ctx context.Context, hostID uuid.UUID, placeID uuid.UUID, reason string) (*Result, error) {
	place, err := s.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if place.HostID != hostID {
		return nil, apperrors.Authorizationf("place %s does not belong to you", placeID)
	}
	if place.IsCancelled() {
		return nil, apperrors.Conflictf("place %s is already cancelled", placeID)
	}
	if place.HasStarted(s.now()) {
		return nil, fmt.Errorf("place %s: %w", placeID, apperrors.ErrEventAlreadyStarted)
	}

	// Hosts refund money actually captured; unpaid pending passes are
	// released by the place cancellation itself.
	targets, err := s.passRepo.GetCancellableByPlace(ctx, placeID, true)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Settle(ctx, targets, Trigger{
		Kind:       TriggerHost,
		ActorID:    hostID,
		Reason:     reason,
		EventLevel: true,
		PlaceID:    placeID,
	})
	if err != nil {
		return nil, err
	}

	s.afterPlaceCancelled(ctx, place, result, TriggerHost, reason)
	return result, nil
}

func (s *service) CancelPlaceAsAdmin(ctx context.Context, adminID uuid.UUID, placeID uuid.UUID, reason string) (*Result, error) {
	place, err := s.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if place.IsCancelled() {
		return nil, apperrors.Conflictf("place %s is already cancelled", placeID)
	}

	targets, err := s.passRepo.GetCancellableByPlace(ctx, placeID, false)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Settle(ctx, targets, Trigger{
		Kind:       TriggerAdmin,
		ActorID:    adminID,
		Reason:     reason,
		EventLevel: true,
		PlaceID:    placeID,
	})
	if err != nil {
		return nil, err
	}

	s.afterPlaceCancelled(ctx, place, result, TriggerAdmin, reason)
	return result, nil
}

func (s *service) DisableHost(ctx context.Context, adminID uuid.UUID, hostID uuid.UUID, reason string) (*DisableHostResult, error) {
	host, err := s.userRepo.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if host.Role != users.RoleHost {
		return nil, fmt.Errorf("%w: user %s is not a host", apperrors.ErrValidation, hostID)
	}

	if err := s.userRepo.DisableHosting(ctx, hostID, reason, adminID); err != nil {
		return nil, err
	}

	activePlaces, err := s.placeRepo.ListActiveByHost(ctx, hostID)
	if err != nil {
		return nil, err
	}

	agg := &DisableHostResult{HostID: hostID}
	for i := range activePlaces {
		place := &activePlaces[i]

		targets, err := s.passRepo.GetCancellableByPlace(ctx, place.ID, false)
		if err != nil {
			return nil, err
		}

		result, err := s.engine.Settle(ctx, targets, Trigger{
			Kind:       TriggerAdmin,
			ActorID:    adminID,
			Reason:     reason,
			EventLevel: true,
			PlaceID:    place.ID,
		})
		if err != nil {
			return nil, err
		}

		agg.PlacesCancelled++
		agg.CancelledPassCount += result.CancelledPassCount
		agg.TotalRefundAmount += result.TotalRefundAmount
		agg.PlaceIDs = append(agg.PlaceIDs, place.ID)

		s.afterPlaceCancelled(ctx, place, result, TriggerAdmin, reason)
	}

	// Cover the host's remaining places too, cancelled or not: nothing of
	// theirs may accept bookings again.
	if err := s.placeRepo.DisableBookingByHost(ctx, hostID); err != nil {
		return nil, err
	}

	logger.HostDisabled(hostID.String(), adminID.String(), agg.PlacesCancelled)
	return agg, nil
}

// afterPlaceCancelled handles everything settlement state does not depend
// on: cache invalidation and notification fan-out.
func (s *service) afterPlaceCancelled(ctx context.Context, place *places.Place, result *Result, kind TriggerKind, reason string) {
	logger.PlaceCancelled(place.ID.String(), string(kind))
	places.InvalidateAfterSettlement(ctx, s.cacheService, place.ID)

	s.notifyVisitorsForPlace(ctx, result, place, reason)

	if s.notifier == nil {
		return
	}
	host, err := s.userRepo.GetByID(ctx, place.HostID)
	if err != nil {
		logger.NotificationFailed("HOST_EVENT_CANCELLED", place.HostID.String(), err)
		return
	}
	s.notifier.HostEventCancelled(ctx, HostEventCancelledEvent{
		PlaceID:            place.ID,
		HostID:             place.HostID,
		PlaceName:          place.Name,
		HostEmail:          host.Email,
		HostName:           host.FullName(),
		CancelledPassCount: result.CancelledPassCount,
		TotalRefundAmount:  result.TotalRefundAmount,
		Reason:             reason,
	})
}

func (s *service) ListRefunds(ctx context.Context, page, limit int) (*RefundListing, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	list, total, err := s.passRepo.ListRefunded(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	records := make([]RefundRecord, 0, len(list))
	for i := range list {
		p := &list[i]
		records = append(records, RefundRecord{
			PassID:          p.ID,
			BookingID:       p.BookingID,
			PlaceID:         p.PlaceID,
			GuestName:       p.GuestName,
			RefundAmount:    p.RefundAmount,
			RefundStatus:    string(p.RefundStatus),
			CancelledAt:     p.CancelledAt,
			CancelledByKind: p.CancelledByKind,
			Reason:          p.CancellationReason,
		})
	}

	return &RefundListing{
		Refunds: records,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

func (s *service) notifyVisitors(ctx context.Context, result *Result, placeID uuid.UUID, reason string) {
	if s.notifier == nil || len(result.AffectedBookingIDs) == 0 {
		return
	}
	place, err := s.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		logger.NotificationFailed("VISITOR_REFUND", placeID.String(), err)
		return
	}
	s.notifyVisitorsForPlace(ctx, result, place, reason)
}

// notifyVisitorsForPlace emits one refund notification per affected
// booking. Lookup failures are logged and skipped; settlement already
// committed and is authoritative regardless of delivery.
func (s *service) notifyVisitorsForPlace(ctx context.Context, result *Result, place *places.Place, reason string) {
	if s.notifier == nil {
		return
	}

	perBooking := make(map[uuid.UUID]*VisitorRefundEvent)
	for _, outcome := range result.PerPass {
		if !outcome.Cancelled {
			continue
		}
		ev, known := perBooking[outcome.BookingID]
		if !known {
			ev = &VisitorRefundEvent{
				BookingID:          outcome.BookingID,
				PlaceName:          place.Name,
				ProcessingEstimate: result.ProcessingEstimate,
				Reason:             reason,
			}
			perBooking[outcome.BookingID] = ev
		}
		ev.CancelledPassCount++
		ev.RefundAmount += outcome.RefundAmount
	}

	for bookingID, ev := range perBooking {
		booking, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			logger.NotificationFailed("VISITOR_REFUND", bookingID.String(), err)
			continue
		}
		visitor, err := s.userRepo.GetByID(ctx, booking.VisitorID)
		if err != nil {
			logger.NotificationFailed("VISITOR_REFUND", booking.VisitorID.String(), err)
			continue
		}
		ev.VisitorID = visitor.ID
		ev.VisitorEmail = visitor.Email
		ev.VisitorName = visitor.FullName()
		s.notifier.VisitorRefund(ctx, *ev)
	}
}
