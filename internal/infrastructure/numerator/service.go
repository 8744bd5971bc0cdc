// Package numerator provides the PostgreSQL implementation of sequential
// document numbering (ticket and order numbers).
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "brigade/internal/core/numerator"
)

// Querier is the subset of pgx needed for numbering.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service issues gapless sequence numbers with an UPSERT + RETURNING per
// call. Slower than range caching, but ticket volume does not warrant more,
// and numbers survive restarts without gaps.
type Service struct {
	querier Querier
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates the numbering service over a pool or transaction.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// Next implements corenumerator.Generator.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	key := cfg.Prefix
	if pk := cfg.PeriodKey(period); pk != "" {
		key = key + "-" + pk
	}

	var value int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO numerators (key, last_value)
		VALUES ($1, 1)
		ON CONFLICT (key)
		DO UPDATE SET last_value = numerators.last_value + 1
		RETURNING last_value`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, err)
	}

	return cfg.Format(period, value), nil
}
