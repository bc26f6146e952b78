package passes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/shared/apperrors"
	"gatepass/internal/shared/constants"
	"gatepass/pkg/cache"
)

// Service interface defines the contract for pass business logic
type Service interface {
	SetCacheService(cacheService cache.Service)

	GetPass(ctx context.Context, passID uuid.UUID, actorID uuid.UUID) (*PassResponse, error)
	ListMyPasses(ctx context.Context, visitorID uuid.UUID) ([]PassResponse, error)
	ListPlacePasses(ctx context.Context, placeID uuid.UUID, hostID uuid.UUID) ([]PassResponse, error)

	// VerifyQR looks up a pass by QR token without mutating it.
	VerifyQR(ctx context.Context, token string) (*ScanResult, error)
	// CheckIn admits a guest; the pass becomes permanently uncancellable.
	CheckIn(ctx context.Context, token string) (*ScanResult, error)
	// CheckOut records the guest leaving.
	CheckOut(ctx context.Context, token string) (*ScanResult, error)

	// ExpirePastDue sweeps passes whose visit day has passed into EXPIRED.
	ExpirePastDue(ctx context.Context) (int64, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) GetPass(ctx context.Context, passID uuid.UUID, actorID uuid.UUID) (*PassResponse, error) {
	pass, err := s.repo.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if pass.VisitorID != actorID && pass.HostID != actorID {
		return nil, apperrors.Authorizationf("pass %s does not belong to user %s", passID, actorID)
	}
	resp := pass.ToResponse()
	return &resp, nil
}

func (s *service) ListMyPasses(ctx context.Context, visitorID uuid.UUID) ([]PassResponse, error) {
	list, err := s.repo.GetByVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

func (s *service) ListPlacePasses(ctx context.Context, placeID uuid.UUID, hostID uuid.UUID) ([]PassResponse, error) {
	list, err := s.repo.GetByPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	// The place's passes all carry the host reference; reject foreign hosts.
	if len(list) > 0 && list[0].HostID != hostID {
		return nil, apperrors.Authorizationf("place %s does not belong to host %s", placeID, hostID)
	}
	return toResponses(list), nil
}

func (s *service) VerifyQR(ctx context.Context, token string) (*ScanResult, error) {
	cacheKey := constants.PassQRKey(token)
	if s.cacheService != nil {
		var cached ScanResult
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	pass, err := s.repo.GetByQRToken(ctx, token)
	if err != nil {
		return nil, err
	}

	result := toScanResult(pass, false)
	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, result, constants.TTL_PASS_LOOKUP)
	}
	return result, nil
}

func (s *service) CheckIn(ctx context.Context, token string) (*ScanResult, error) {
	pass, err := s.repo.CheckInByQR(ctx, token, time.Now())
	if err != nil {
		return nil, err
	}
	s.invalidateQR(ctx, token)
	return toScanResult(pass, true), nil
}

func (s *service) CheckOut(ctx context.Context, token string) (*ScanResult, error) {
	pass, err := s.repo.CheckOutByQR(ctx, token, time.Now())
	if err != nil {
		return nil, err
	}
	s.invalidateQR(ctx, token)
	return toScanResult(pass, false), nil
}

func (s *service) ExpirePastDue(ctx context.Context) (int64, error) {
	today := time.Now().Truncate(24 * time.Hour)
	return s.repo.ExpireDue(ctx, today)
}

func (s *service) invalidateQR(ctx context.Context, token string) {
	if s.cacheService == nil {
		return
	}
	_ = s.cacheService.Delete(ctx, constants.PassQRKey(token))
}

func toScanResult(pass *Pass, admitted bool) *ScanResult {
	return &ScanResult{
		PassID:      pass.ID.String(),
		GuestName:   pass.GuestName,
		VisitDate:   pass.VisitDate,
		SlotNumber:  pass.SlotNumber,
		Status:      pass.Status,
		QRActive:    pass.QRActive,
		CheckInTime: pass.CheckInTime,
		Admitted:    admitted,
	}
}

func toResponses(list []Pass) []PassResponse {
	responses := make([]PassResponse, len(list))
	for i := range list {
		responses[i] = list[i].ToResponse()
	}
	return responses
}
