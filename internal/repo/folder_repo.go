package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docuchat/docuchat/internal/model"
	"github.com/docuchat/docuchat/internal/pkg/dbutil"
	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

type FolderRepo struct {
	db *sql.DB
}

func NewFolderRepo(db *sql.DB) *FolderRepo {
	return &FolderRepo{db: db}
}

func (r *FolderRepo) Create(ctx context.Context, folder *model.Folder) error {
	data := map[string]interface{}{
		"id":               folder.ID,
		"name":             folder.Name,
		"location_id":      folder.LocationID,
		"parent_folder_id": folder.ParentFolderID,
	}
	sqlStr, args, err := builder.BuildInsert("folders", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *FolderRepo) GetByID(ctx context.Context, folderID string) (*model.Folder, error) {
	where := map[string]interface{}{
		"id": folderID,
	}
	sqlStr, args, err := builder.BuildSelect("folders", where, []string{"id", "name", "location_id", "parent_folder_id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var folder model.Folder
	var parent sql.NullString
	if err := row.Scan(&folder.ID, &folder.Name, &folder.LocationID, &parent); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	folder.ParentFolderID = parent.String
	return &folder, nil
}

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Create(ctx context.Context, loc *model.Location) error {
	data := map[string]interface{}{
		"id":              loc.ID,
		"organization_id": loc.OrganizationID,
		"name":            loc.Name,
	}
	sqlStr, args, err := builder.BuildInsert("locations", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListIDsByOrganization returns every location ID belonging to the
// organization. Retrieval scoping depends on this set.
func (r *LocationRepo) ListIDsByOrganization(ctx context.Context, orgID string) ([]string, error) {
	const query = `SELECT id FROM locations WHERE organization_id = $1`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
