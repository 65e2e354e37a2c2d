package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {

	query :=
		`INSERT INTO files (owner_id, storage_name, original_name, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
		`

	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.StorageName, file.OriginalName, file.ContentType, file.Size).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, &common.DuplicateError{Field: "storage_name"}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	query := `SELECT id, owner_id, storage_name, original_name, content_type, size_bytes, created_at FROM files
		WHERE id = $1
		`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.File, error) {
	query := `SELECT id, owner_id, storage_name, original_name, content_type, size_bytes, created_at FROM files
		WHERE id = $1
		FOR UPDATE
		`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id int64) (*models.File, error) {
	result := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&result.ID, &result.OwnerID, &result.StorageName,
		&result.OriginalName, &result.ContentType, &result.Size, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]*models.File, error) {
	query := `SELECT id, owner_id, storage_name, original_name, content_type, size_bytes, created_at FROM files
		WHERE owner_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3
		`
	rows, err := r.db.QueryContext(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := []*models.File{}
	for rows.Next() {
		var item = models.File{}
		err := rows.Scan(&item.ID, &item.OwnerID, &item.StorageName, &item.OriginalName,
			&item.ContentType, &item.Size, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {

	query := `DELETE FROM files WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	switch rowsAffected {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", rowsAffected)
	}
}
