package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/model"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

type fixedSummer struct {
	used  int
	since int64
}

func (f *fixedSummer) SumSince(ctx context.Context, userID string, since int64) (int, error) {
	f.since = since
	return f.used, nil
}

func TestQuotaCheck(t *testing.T) {
	tests := []struct {
		name        string
		used        int
		callerLimit int
		defaultLim  int
		wantErr     bool
	}{
		{"under caller limit", 99, 100, 0, false},
		{"at caller limit", 100, 100, 0, true},
		{"over caller limit", 150, 100, 0, true},
		{"caller limit falls back to default", 50, 0, 60, false},
		{"default limit reached", 60, 0, 60, true},
		{"no limits configured allows", 1 << 30, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuotaChecker(&fixedSummer{used: tt.used}, tt.defaultLim)
			caller := model.Caller{ID: "user-1", DailyTokenLimit: tt.callerLimit}
			err := q.Check(context.Background(), caller)
			if tt.wantErr {
				require.ErrorIs(t, err, appErr.ErrQuotaExceeded)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestQuotaCheckSumsFromStartOfDay(t *testing.T) {
	summer := &fixedSummer{}
	q := NewQuotaChecker(summer, 100)
	q.now = func() time.Time {
		return time.Date(2025, 3, 10, 15, 42, 7, 0, time.UTC)
	}
	require.NoError(t, q.Check(context.Background(), model.Caller{ID: "user-1"}))
	require.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).Unix(), summer.since)
}
