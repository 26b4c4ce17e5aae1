package postgres

import (
	"context"
	"fmt"

	"dex-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RegionLoader reads the region table from Postgres.
type RegionLoader struct {
	pool *pgxpool.Pool
}

func NewRegionLoader(pool *pgxpool.Pool) *RegionLoader {
	return &RegionLoader{pool: pool}
}

// LoadRegions returns every region ordered by the start of its range.
func (l *RegionLoader) LoadRegions(ctx context.Context) ([]domain.Region, error) {
	rows, err := l.pool.Query(ctx, `SELECT key, name, start_id, end_id FROM regions ORDER BY start_id`)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var r domain.Region
		if err := rows.Scan(&r.Key, &r.Name, &r.Start, &r.End); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	return regions, nil
}
