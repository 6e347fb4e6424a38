package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/docuchat/docuchat/internal/model"
)

type ImageRepo struct {
	db *sql.DB
}

func NewImageRepo(db *sql.DB) *ImageRepo {
	return &ImageRepo{db: db}
}

func (r *ImageRepo) Insert(ctx context.Context, img *model.ImageEmbedding) error {
	const query = `
		INSERT INTO document_images (id, document_id, location_id, page_number, image_number, storage_path, description, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		img.ID,
		img.DocumentID,
		img.LocationID,
		img.PageNumber,
		img.ImageNumber,
		img.StoragePath,
		img.Description,
		pgvector.NewVector(img.Embedding),
		img.Ctime,
	)
	return err
}

func (r *ImageRepo) DeleteByDocument(ctx context.Context, docID string) error {
	const query = `DELETE FROM document_images WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, query, docID)
	return err
}

func (r *ImageRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	const query = `SELECT COUNT(*) FROM document_images WHERE document_id = $1`
	var count int
	err := r.db.QueryRowContext(ctx, query, docID).Scan(&count)
	return count, err
}

// ListStoragePathsByDocument returns blob keys of stored page images so they
// can be removed alongside the rows.
func (r *ImageRepo) ListStoragePathsByDocument(ctx context.Context, docID string) ([]string, error) {
	const query = `SELECT storage_path FROM document_images WHERE document_id = $1`
	rows, err := r.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
