package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pgvector/pgvector-go"

	"github.com/docuchat/docuchat/internal/model"
)

type TableRepo struct {
	db *sql.DB
}

func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

func (r *TableRepo) Insert(ctx context.Context, table *model.TableEmbedding) error {
	rowsJSON, err := json.Marshal(table.Rows)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO document_tables (id, document_id, location_id, page_number, table_number, content, html_content, description, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.ExecContext(ctx, query,
		table.ID,
		table.DocumentID,
		table.LocationID,
		table.PageNumber,
		table.TableNumber,
		string(rowsJSON),
		table.HTMLContent,
		table.Description,
		pgvector.NewVector(table.Embedding),
		table.Ctime,
	)
	return err
}

func (r *TableRepo) DeleteByDocument(ctx context.Context, docID string) error {
	const query = `DELETE FROM document_tables WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, query, docID)
	return err
}

func (r *TableRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	const query = `SELECT COUNT(*) FROM document_tables WHERE document_id = $1`
	var count int
	err := r.db.QueryRowContext(ctx, query, docID).Scan(&count)
	return count, err
}
