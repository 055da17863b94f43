// Package postgres implements the descriptor repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cmorandi/docvault"
)

const descriptorColumns = `id, owner_id, storage_key, file_name, title, description,
	content_type, size_bytes, visibility, COALESCE(share_token, ''), download_count,
	created_at, updated_at`

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) Create(ctx context.Context, d docvault.Descriptor) (docvault.Descriptor, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, storage_key, file_name, title, description,
			content_type, size_bytes, visibility, download_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
		RETURNING created_at, updated_at
	`, r.tableName)

	err := r.pool.QueryRow(ctx, query,
		d.ID, d.OwnerID, d.StorageKey, d.FileName, d.Title, d.Description,
		d.ContentType, d.SizeBytes, string(d.Visibility),
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return docvault.Descriptor{}, wrapErr("create", err)
	}

	d.DownloadCount = 0
	return d, nil
}

func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (docvault.Descriptor, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, descriptorColumns, r.tableName)

	d, err := scanDescriptor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return docvault.Descriptor{}, wrapErr("get by id", err)
	}

	return d, nil
}

func (r *repo) FindByOwner(ctx context.Context, ownerID string, q docvault.ListQuery) (docvault.ListResult, error) {
	cursor, err := docvault.DecodeCursor(q.Cursor)
	if err != nil {
		return docvault.ListResult{}, fmt.Errorf("find by owner: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, descriptorColumns, r.tableName)
		args = []any{ownerID, limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`, descriptorColumns, r.tableName)
		args = []any{ownerID, cursor.CreatedAt, cursor.ID, limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return docvault.ListResult{}, wrapErr("find by owner", err)
	}
	defer rows.Close()

	items := make([]docvault.Descriptor, 0, limit)
	for rows.Next() {
		d, scanErr := scanDescriptor(rows)
		if scanErr != nil {
			return docvault.ListResult{}, fmt.Errorf("find by owner: scan: %w", scanErr)
		}
		items = append(items, d)
	}

	if err := rows.Err(); err != nil {
		return docvault.ListResult{}, wrapErr("find by owner", err)
	}

	var nextCursor string
	if len(items) > limit {
		// Cursor points to the last item of the current page
		lastItem := items[limit-1]
		nextCursor = docvault.EncodeCursor(lastItem.CreatedAt, lastItem.ID)
		items = items[:limit]
	}

	return docvault.ListResult{Items: items, NextCursor: nextCursor}, nil
}

// FindByShareToken filters on visibility in SQL: a dormant token on a private
// descriptor misses exactly like an unknown token.
func (r *repo) FindByShareToken(ctx context.Context, token string) (docvault.Descriptor, error) {
	if token == "" {
		return docvault.Descriptor{}, docvault.ErrNotFound
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE share_token = $1 AND visibility = 'public'
	`, descriptorColumns, r.tableName)

	d, err := scanDescriptor(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		return docvault.Descriptor{}, wrapErr("find by share token", err)
	}

	return d, nil
}

func (r *repo) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET download_count = download_count + 1,
			updated_at = NOW()
		WHERE id = $1
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return wrapErr("increment download count", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("increment download count: %w", docvault.ErrNotFound)
	}

	return nil
}

// Publish flips visibility and assigns the token in one statement, so no
// window exists where the row is public without a token. COALESCE keeps a
// previously assigned token, making repeated publishes return the same link.
func (r *repo) Publish(ctx context.Context, id uuid.UUID, token string) (string, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET visibility = 'public',
			share_token = COALESCE(share_token, $2),
			updated_at = NOW()
		WHERE id = $1
		RETURNING share_token
	`, r.tableName)

	var stored string
	err := r.pool.QueryRow(ctx, query, id, token).Scan(&stored)
	if err != nil {
		return "", wrapErr("publish", err)
	}

	return stored, nil
}

func (r *repo) Unpublish(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET visibility = 'private',
			updated_at = NOW()
		WHERE id = $1
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return wrapErr("unpublish", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("unpublish: %w", docvault.ErrNotFound)
	}

	return nil
}

func (r *repo) UpdateDetails(ctx context.Context, id uuid.UUID, update docvault.DetailsUpdate) (docvault.Descriptor, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tableName, descriptorColumns)

	d, err := scanDescriptor(r.pool.QueryRow(ctx, query, id, update.Title, update.Description))
	if err != nil {
		return docvault.Descriptor{}, wrapErr("update details", err)
	}

	return d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tableName)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return wrapErr("delete", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", docvault.ErrNotFound)
	}

	return nil
}

func scanDescriptor(row pgx.Row) (docvault.Descriptor, error) {
	var d docvault.Descriptor
	var visibility string

	err := row.Scan(
		&d.ID, &d.OwnerID, &d.StorageKey, &d.FileName, &d.Title, &d.Description,
		&d.ContentType, &d.SizeBytes, &visibility, &d.ShareToken, &d.DownloadCount,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return docvault.Descriptor{}, err
	}

	d.Visibility = docvault.Visibility(visibility)
	return d, nil
}

// wrapErr translates driver errors into the domain taxonomy: missing rows
// become ErrNotFound, unique violations ErrConflict, cancelled or timed-out
// calls the retryable ErrRepositoryUnavailable.
func wrapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, docvault.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, docvault.ErrConflict)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %v: %w", op, err, docvault.ErrRepositoryUnavailable)
	}

	return fmt.Errorf("%s: %w", op, err)
}
