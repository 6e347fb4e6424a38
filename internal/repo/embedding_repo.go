package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/docuchat/docuchat/internal/model"
)

// EmbeddingRepo persists page-text embeddings. Rows are owned by the most
// recent ingestion run: reprocessing deletes them all and repopulates.
type EmbeddingRepo struct {
	db *sql.DB
}

func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

func (r *EmbeddingRepo) Insert(ctx context.Context, emb *model.TextEmbedding) error {
	const query = `
		INSERT INTO document_embeddings (id, document_id, location_id, page_number, content, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		emb.ID,
		emb.DocumentID,
		emb.LocationID,
		emb.PageNumber,
		emb.Content,
		pgvector.NewVector(emb.Embedding),
		emb.Ctime,
	)
	return err
}

func (r *EmbeddingRepo) DeleteByDocument(ctx context.Context, docID string) error {
	const query = `DELETE FROM document_embeddings WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, query, docID)
	return err
}

func (r *EmbeddingRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	const query = `SELECT COUNT(*) FROM document_embeddings WHERE document_id = $1`
	var count int
	err := r.db.QueryRowContext(ctx, query, docID).Scan(&count)
	return count, err
}
