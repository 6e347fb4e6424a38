package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/docuchat/docuchat/internal/model"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, msg *model.Message) error {
	sources := ""
	if len(msg.Sources) > 0 {
		data, err := json.Marshal(msg.Sources)
		if err != nil {
			return err
		}
		sources = string(data)
	}
	const query = `
		INSERT INTO messages (id, chat_id, role, content, sources, ctime)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.ChatID, msg.Role, msg.Content, sources, msg.Ctime)
	return err
}

// ListRecent returns the most recent limit messages of a chat in
// chronological order. This is the model-context window.
func (r *MessageRepo) ListRecent(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	const query = `
		SELECT id, chat_id, role, content, sources, ctime
		FROM messages
		WHERE chat_id = $1
		ORDER BY ctime DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse into oldest-first order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *MessageRepo) ListByChat(ctx context.Context, chatID string) ([]model.Message, error) {
	const query = `
		SELECT id, chat_id, role, content, sources, ctime
		FROM messages
		WHERE chat_id = $1
		ORDER BY ctime ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

func scanMessage(rows *sql.Rows) (*model.Message, error) {
	var msg model.Message
	var sources string
	if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &sources, &msg.Ctime); err != nil {
		return nil, err
	}
	if sources != "" {
		if err := json.Unmarshal([]byte(sources), &msg.Sources); err != nil {
			return nil, err
		}
	}
	return &msg, nil
}
