package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/docuchat/docuchat/internal/model"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

// TokenSummer reports a user's logged token usage since a point in time.
type TokenSummer interface {
	SumSince(ctx context.Context, userID string, since int64) (int, error)
}

// QuotaChecker enforces the per-user daily token ceiling before any
// token-spending operation starts.
type QuotaChecker struct {
	tokens       TokenSummer
	defaultLimit int
	now          func() time.Time
}

func NewQuotaChecker(tokens TokenSummer, defaultLimit int) *QuotaChecker {
	return &QuotaChecker{tokens: tokens, defaultLimit: defaultLimit, now: time.Now}
}

// Check fails with ErrQuotaExceeded once the caller's usage for the current
// UTC day reaches their limit. Callers with no configured limit fall back to
// the process-wide default.
func (q *QuotaChecker) Check(ctx context.Context, caller model.Caller) error {
	limit := caller.DailyTokenLimit
	if limit <= 0 {
		limit = q.defaultLimit
	}
	if limit <= 0 {
		return nil
	}
	now := q.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()
	used, err := q.tokens.SumSince(ctx, caller.ID, dayStart)
	if err != nil {
		return fmt.Errorf("sum token usage: %w", err)
	}
	if used >= limit {
		return fmt.Errorf("%w: used %d of %d daily tokens", appErr.ErrQuotaExceeded, used, limit)
	}
	return nil
}
