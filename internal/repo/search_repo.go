package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/docuchat/docuchat/internal/model"
)

// SearchRepo runs the unified similarity search across the three content
// tables. Cosine similarity is 1 - (embedding <=> query).
type SearchRepo struct {
	db *sql.DB
}

func NewSearchRepo(db *sql.DB) *SearchRepo {
	return &SearchRepo{db: db}
}

const searchAllContentQuery = `
	SELECT content_type, content, similarity, additional_info FROM (
		SELECT 'text' AS content_type,
		       e.content AS content,
		       1 - (e.embedding <=> $1) AS similarity,
		       json_build_object(
		           'document_id', e.document_id,
		           'document_name', d.name,
		           'file_path', d.file_path,
		           'page_number', e.page_number
		       )::text AS additional_info
		FROM document_embeddings e
		JOIN documents d ON d.id = e.document_id
		WHERE e.location_id = ANY($2)
		UNION ALL
		SELECT 'table',
		       t.description,
		       1 - (t.embedding <=> $1),
		       json_build_object(
		           'document_id', t.document_id,
		           'document_name', d.name,
		           'file_path', d.file_path,
		           'page_number', t.page_number,
		           'table_number', t.table_number,
		           'html_content', t.html_content
		       )::text
		FROM document_tables t
		JOIN documents d ON d.id = t.document_id
		WHERE t.location_id = ANY($2)
		UNION ALL
		SELECT 'image',
		       i.description,
		       1 - (i.embedding <=> $1),
		       json_build_object(
		           'document_id', i.document_id,
		           'document_name', d.name,
		           'file_path', d.file_path,
		           'page_number', i.page_number,
		           'image_number', i.image_number
		       )::text
		FROM document_images i
		JOIN documents d ON d.id = i.document_id
		WHERE i.location_id = ANY($2)
	) matches
	WHERE similarity >= $3
	ORDER BY similarity DESC
	LIMIT $4
`

func (r *SearchRepo) SearchAllContent(ctx context.Context, queryEmbedding []float32, threshold float64, count int, locationIDs []string) ([]model.SearchResult, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, searchAllContentQuery,
		pgvector.NewVector(queryEmbedding),
		pq.Array(locationIDs),
		threshold,
		count,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.SearchResult
	for rows.Next() {
		var item model.SearchResult
		var infoJSON string
		if err := rows.Scan(&item.ContentType, &item.Content, &item.Similarity, &infoJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(infoJSON), &item.Info); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}
