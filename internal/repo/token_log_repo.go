package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docuchat/docuchat/internal/model"
	"github.com/docuchat/docuchat/internal/pkg/dbutil"
)

// TokenLogRepo writes append-only usage records. There is no update or
// delete path; quota checks and billing read the sums.
type TokenLogRepo struct {
	db *sql.DB
}

func NewTokenLogRepo(db *sql.DB) *TokenLogRepo {
	return &TokenLogRepo{db: db}
}

func (r *TokenLogRepo) Insert(ctx context.Context, log *model.TokenLog) error {
	data := map[string]interface{}{
		"id":              log.ID,
		"user_id":         log.UserID,
		"organization_id": log.OrganizationID,
		"token_type":      log.TokenType,
		"operation_type":  log.OperationType,
		"tokens_used":     log.TokensUsed,
		"model":           log.Model,
		"ctime":           log.Ctime,
	}
	if log.DocumentID != "" {
		data["document_id"] = log.DocumentID
	}
	if log.ChatID != "" {
		data["chat_id"] = log.ChatID
	}
	sqlStr, args, err := builder.BuildInsert("token_logs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// SumSince returns the user's total tokens logged at or after the given
// time, across all operation types.
func (r *TokenLogRepo) SumSince(ctx context.Context, userID string, since int64) (int, error) {
	const query = `
		SELECT COALESCE(SUM(tokens_used), 0)
		FROM token_logs
		WHERE user_id = $1 AND ctime >= $2
	`
	var total int
	err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&total)
	return total, err
}

// SumSinceByOperation breaks the user's usage down per operation type.
func (r *TokenLogRepo) SumSinceByOperation(ctx context.Context, userID string, since int64) (map[string]int, error) {
	const query = `
		SELECT operation_type, COALESCE(SUM(tokens_used), 0)
		FROM token_logs
		WHERE user_id = $1 AND ctime >= $2
		GROUP BY operation_type
	`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	totals := make(map[string]int)
	for rows.Next() {
		var op string
		var sum int
		if err := rows.Scan(&op, &sum); err != nil {
			return nil, err
		}
		totals[op] = sum
	}
	return totals, rows.Err()
}
