package classes

import (
	"context"
	"time"

	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/ameyrk91/fitbooking/internal/repository"
	"go.uber.org/zap"
)

type ClassUseCase interface {
	ListUpcoming(ctx context.Context) ([]domain.FitnessClass, error)
	GetByID(ctx context.Context, id int64) (*domain.FitnessClass, error)
}

type Cache interface {
	GetClasses(ctx context.Context) ([]domain.FitnessClass, error)
	SetClasses(ctx context.Context, classes []domain.FitnessClass) error
}

type ClassService struct {
	repo  repository.ClassRepository
	cache Cache
	log   *zap.Logger
}

func NewClassService(repo repository.ClassRepository, cache Cache, log *zap.Logger) *ClassService {
	return &ClassService{repo: repo, cache: cache, log: log}
}

// ListUpcoming serves from the cache when possible; listings may observe a
// slightly stale available_slots, which is fine since listing is not a
// reservation.
func (s *ClassService) ListUpcoming(ctx context.Context) ([]domain.FitnessClass, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetClasses(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	classes, err := s.repo.ListUpcoming(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetClasses(ctx, classes); err != nil {
			s.log.Warn("cache classes failed", zap.Error(err))
		}
	}
	return classes, nil
}

func (s *ClassService) GetByID(ctx context.Context, id int64) (*domain.FitnessClass, error) {
	return s.repo.GetByID(ctx, id)
}

var _ ClassUseCase = (*ClassService)(nil)
