package service

import (
	"context"
	"fmt"

	"fan_controller/internal/curve"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

// CurveInvalidator drops a cached copy of the curve.
type CurveInvalidator interface {
	InvalidateCurveCache()
}

type CurveService struct {
	repo  repository.CurveRepo
	cache CurveInvalidator
}

func NewCurveService(repo repository.CurveRepo, cache CurveInvalidator) *CurveService {
	return &CurveService{repo: repo, cache: cache}
}

func (s *CurveService) GetCurve(ctx context.Context) ([]models.CurvePoint, error) {
	return s.repo.List(ctx)
}

// ReplaceCurve validates and stores points, then invalidates the monitor cache.
func (s *CurveService) ReplaceCurve(ctx context.Context, points []models.CurvePoint) error {
	if err := curve.Validate(points); err != nil {
		return err
	}
	if err := s.repo.Replace(ctx, curve.Sorted(points)); err != nil {
		return fmt.Errorf("store fan curve: %w", err)
	}
	s.cache.InvalidateCurveCache()
	return nil
}
