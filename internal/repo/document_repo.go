package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docuchat/docuchat/internal/model"
	"github.com/docuchat/docuchat/internal/pkg/dbutil"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

var documentFields = []string{"id", "name", "folder_id", "file_path", "file_type", "page_count", "status", "created_by", "ctime", "mtime"}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":         doc.ID,
		"name":       doc.Name,
		"folder_id":  doc.FolderID,
		"file_path":  doc.FilePath,
		"file_type":  doc.FileType,
		"page_count": doc.PageCount,
		"status":     doc.Status,
		"created_by": doc.CreatedBy,
		"ctime":      doc.Ctime,
		"mtime":      doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id": docID,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var doc model.Document
	if err := row.Scan(&doc.ID, &doc.Name, &doc.FolderID, &doc.FilePath, &doc.FileType, &doc.PageCount, &doc.Status, &doc.CreatedBy, &doc.Ctime, &doc.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// MarkProcessing flips status added -> processing as a single conditional
// update. The rows-affected check is the only concurrency guard against a
// second processing request for the same document.
func (r *DocumentRepo) MarkProcessing(ctx context.Context, docID string, now int64) error {
	const query = `
		UPDATE documents SET status = $1, mtime = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, model.DocumentStatusProcessing, now, docID, model.DocumentStatusAdded)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrConflict
	}
	return nil
}

func (r *DocumentRepo) MarkProcessed(ctx context.Context, docID string, pageCount int, now int64) error {
	return r.setStatus(ctx, docID, map[string]interface{}{
		"status":     model.DocumentStatusProcessed,
		"page_count": pageCount,
		"mtime":      now,
	})
}

func (r *DocumentRepo) MarkError(ctx context.Context, docID string, now int64) error {
	return r.setStatus(ctx, docID, map[string]interface{}{
		"status": model.DocumentStatusError,
		"mtime":  now,
	})
}

func (r *DocumentRepo) setStatus(ctx context.Context, docID string, update map[string]interface{}) error {
	where := map[string]interface{}{
		"id": docID,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
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

// ListStuckProcessing returns documents still in processing whose mtime is
// older than the cutoff. They are leftovers of a crashed ingestion run.
func (r *DocumentRepo) ListStuckProcessing(ctx context.Context, cutoff int64) ([]model.Document, error) {
	const query = `
		SELECT id, name, folder_id, file_path, file_type, page_count, status, created_by, ctime, mtime
		FROM documents
		WHERE status = $1 AND mtime < $2
	`
	rows, err := r.db.QueryContext(ctx, query, model.DocumentStatusProcessing, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.FolderID, &doc.FilePath, &doc.FileType, &doc.PageCount, &doc.Status, &doc.CreatedBy, &doc.Ctime, &doc.Mtime); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, docID string) error {
	where := map[string]interface{}{
		"id": docID,
	}
	sqlStr, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
