package places

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"gatepass/internal/shared/apperrors"
	"gatepass/internal/shared/constants"
	"gatepass/internal/users"
	"gatepass/pkg/cache"
)

// Service interface defines the contract for place business logic
type Service interface {
	SetCacheService(cacheService cache.Service)

	CreatePlace(ctx context.Context, hostID uuid.UUID, req CreatePlaceRequest) (*PlaceResponse, error)
	GetPlace(ctx context.Context, id uuid.UUID) (*PlaceResponse, error)
	UpdatePlace(ctx context.Context, id uuid.UUID, hostID uuid.UUID, req UpdatePlaceRequest) (*PlaceResponse, error)
	ListMyPlaces(ctx context.Context, hostID uuid.UUID) ([]PlaceResponse, error)
	BrowsePlaces(ctx context.Context, query ListQuery) (*PaginatedPlaces, error)

	// ApplyOverride applies an admin manual override, dispatched on the
	// request's tagged variant.
	ApplyOverride(ctx context.Context, placeID uuid.UUID, req OverrideRequest) (*PlaceResponse, error)
}

type service struct {
	repo         Repository
	userRepo     users.Repository
	cacheService cache.Service
}

func NewService(repo Repository, userRepo users.Repository) Service {
	return &service{
		repo:     repo,
		userRepo: userRepo,
	}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) CreatePlace(ctx context.Context, hostID uuid.UUID, req CreatePlaceRequest) (*PlaceResponse, error) {
	host, err := s.userRepo.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if !host.IsHost() {
		return nil, apperrors.Authorizationf("user %s cannot host places", hostID)
	}

	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("end date must not be before start date: %w", apperrors.ErrValidation)
	}

	place := &Place{
		HostID:             hostID,
		Name:               req.Name,
		Description:        req.Description,
		Address:            req.Address,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		DailyCapacity:      req.DailyCapacity,
		PricePerGuest:      req.PricePerGuest,
		Refundable:         true,
		BeforeVisitPercent: 80,
		SameDayPercent:     50,
		BookingEnabled:     true,
		Status:             StatusActive,
	}
	if req.Refundable != nil {
		place.Refundable = *req.Refundable
	}
	if req.BeforeVisitPercent != nil {
		place.BeforeVisitPercent = *req.BeforeVisitPercent
	}
	if req.SameDayPercent != nil {
		place.SameDayPercent = *req.SameDayPercent
	}

	if err := s.repo.Create(ctx, place); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)

	resp := place.ToResponse()
	return &resp, nil
}

func (s *service) GetPlace(ctx context.Context, id uuid.UUID) (*PlaceResponse, error) {
	cacheKey := constants.PlaceDetailKey(id.String())
	if s.cacheService != nil {
		var cached PlaceResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	place, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := place.ToResponse()
	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, resp, constants.TTL_PLACE_DETAIL)
	}
	return &resp, nil
}

func (s *service) UpdatePlace(ctx context.Context, id uuid.UUID, hostID uuid.UUID, req UpdatePlaceRequest) (*PlaceResponse, error) {
	place, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if place.HostID != hostID {
		return nil, apperrors.Authorizationf("place %s does not belong to host %s", id, hostID)
	}
	if place.IsCancelled() {
		return nil, apperrors.Conflictf("place %s is cancelled", id)
	}

	if req.Name != nil {
		place.Name = *req.Name
	}
	if req.Description != nil {
		place.Description = *req.Description
	}
	if req.Address != nil {
		place.Address = *req.Address
	}
	if req.StartDate != nil {
		place.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		place.EndDate = *req.EndDate
	}
	if place.EndDate.Before(place.StartDate) {
		return nil, fmt.Errorf("end date must not be before start date: %w", apperrors.ErrValidation)
	}
	if req.DailyCapacity != nil {
		place.DailyCapacity = *req.DailyCapacity
	}
	if req.PricePerGuest != nil {
		place.PricePerGuest = *req.PricePerGuest
	}
	if req.Refundable != nil {
		place.Refundable = *req.Refundable
	}
	if req.BeforeVisitPercent != nil {
		place.BeforeVisitPercent = *req.BeforeVisitPercent
	}
	if req.SameDayPercent != nil {
		place.SameDayPercent = *req.SameDayPercent
	}
	if req.BookingEnabled != nil {
		place.BookingEnabled = *req.BookingEnabled
	}

	if err := s.repo.Update(ctx, place); err != nil {
		return nil, err
	}

	s.invalidatePlace(ctx, id)

	resp := place.ToResponse()
	return &resp, nil
}

func (s *service) ListMyPlaces(ctx context.Context, hostID uuid.UUID) ([]PlaceResponse, error) {
	list, err := s.repo.ListByHost(ctx, hostID)
	if err != nil {
		return nil, err
	}
	responses := make([]PlaceResponse, len(list))
	for i := range list {
		responses[i] = list[i].ToResponse()
	}
	return responses, nil
}

func (s *service) BrowsePlaces(ctx context.Context, query ListQuery) (*PaginatedPlaces, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	cacheKey := constants.PlaceListingKey(query.Page, query.Limit, query.Search)
	if s.cacheService != nil && query.DateFrom == "" && query.DateTo == "" {
		var cached PaginatedPlaces
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	list, totalCount, err := s.repo.ListPublic(ctx, query)
	if err != nil {
		return nil, err
	}

	responses := make([]PlaceResponse, len(list))
	for i := range list {
		responses[i] = list[i].ToResponse()
	}

	result := &PaginatedPlaces{
		Places:     responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(query.Limit))),
	}

	if s.cacheService != nil && query.DateFrom == "" && query.DateTo == "" {
		_ = s.cacheService.Set(ctx, cacheKey, result, constants.TTL_PLACE_LISTING)
	}
	return result, nil
}

func (s *service) ApplyOverride(ctx context.Context, placeID uuid.UUID, req OverrideRequest) (*PlaceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	place, err := s.repo.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	switch req.Kind {
	case OverrideCapacity:
		updates["daily_capacity"] = *req.Capacity
	case OverrideBookingEnabled:
		// A cancelled place must stay booking-disabled.
		if *req.BookingEnabled && place.IsCancelled() {
			return nil, apperrors.Conflictf("cannot enable booking on cancelled place %s", placeID)
		}
		updates["booking_enabled"] = *req.BookingEnabled
	default:
		return nil, fmt.Errorf("unknown override kind %q: %w", req.Kind, apperrors.ErrValidation)
	}

	if err := s.repo.ApplyOverride(ctx, placeID, updates); err != nil {
		return nil, err
	}

	s.invalidatePlace(ctx, placeID)

	updated, err := s.repo.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	resp := updated.ToResponse()
	return &resp, nil
}

func (s *service) invalidatePlace(ctx context.Context, placeID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	_ = s.cacheService.Delete(ctx, constants.PlaceDetailKey(placeID.String()))
	s.invalidateListings(ctx)
}

func (s *service) invalidateListings(ctx context.Context) {
	if s.cacheService == nil {
		return
	}
	_ = s.cacheService.DeletePattern(ctx, constants.KEY_PLACE_LISTING+"*")
}

// InvalidateAfterSettlement drops cached place data after a settlement
// cascade touched the place. Called by the settlement layer.
func InvalidateAfterSettlement(ctx context.Context, cacheService cache.Service, placeID uuid.UUID) {
	if cacheService == nil {
		return
	}
	_ = cacheService.Delete(ctx, constants.PlaceDetailKey(placeID.String()))
	_ = cacheService.DeletePattern(ctx, constants.KEY_PLACE_LISTING+"*")
}
