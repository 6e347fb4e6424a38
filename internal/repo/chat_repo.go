package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docuchat/docuchat/internal/model"
	"github.com/docuchat/docuchat/internal/pkg/dbutil"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Create(ctx context.Context, chat *model.Chat) error {
	data := map[string]interface{}{
		"id":      chat.ID,
		"user_id": chat.UserID,
		"name":    chat.Name,
		"ctime":   chat.Ctime,
		"mtime":   chat.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chats", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// GetForUser loads a chat only when it belongs to the given user.
func (r *ChatRepo) GetForUser(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	where := map[string]interface{}{
		"id":      chatID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("chats", where, []string{"id", "user_id", "name", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var chat model.Chat
	if err := row.Scan(&chat.ID, &chat.UserID, &chat.Name, &chat.Ctime, &chat.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepo) Touch(ctx context.Context, chatID string, now int64) error {
	where := map[string]interface{}{
		"id": chatID,
	}
	update := map[string]interface{}{
		"mtime": now,
	}
	sqlStr, args, err := builder.BuildUpdate("chats", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatRepo) Delete(ctx context.Context, userID, chatID string) error {
	where := map[string]interface{}{
		"id":      chatID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("chats", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
