package memory

import (
	"context"

	"dex-quiz-service/internal/domain"
)

// StaticRegionLoader serves a fixed region table (the built-in one, or test data).
type StaticRegionLoader struct {
	regions []domain.Region
}

func NewStaticRegionLoader(regions []domain.Region) *StaticRegionLoader {
	return &StaticRegionLoader{regions: regions}
}

func (l *StaticRegionLoader) LoadRegions(_ context.Context) ([]domain.Region, error) {
	return append([]domain.Region(nil), l.regions...), nil
}
