// Package sqlite implements the descriptor repository using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cmorandi/docvault"
)

const descriptorColumns = `id, owner_id, storage_key, file_name, title, description,
	content_type, size_bytes, visibility, COALESCE(share_token, ''), download_count,
	created_at, updated_at`

// timeFormat is fixed-width so stored timestamps compare correctly as text in
// the keyset pagination predicate. RFC3339Nano trims trailing zeros, which
// would break lexicographic ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Create(ctx context.Context, d docvault.Descriptor) (docvault.Descriptor, error) {
	now := time.Now().UTC().Format(timeFormat)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, owner_id, storage_key, file_name, title, description,
			content_type, size_bytes, visibility, download_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		d.ID.String(), d.OwnerID, d.StorageKey, d.FileName, d.Title, d.Description,
		d.ContentType, d.SizeBytes, string(d.Visibility), now, now,
	)
	if err != nil {
		return docvault.Descriptor{}, wrapErr("create", err)
	}

	d.DownloadCount = 0
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, now)
	d.UpdatedAt = d.CreatedAt

	return d, nil
}

func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (docvault.Descriptor, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE id = ?`, descriptorColumns, r.tableName)

	d, err := scanDescriptor(r.db.QueryRowContext(ctx, query, id.String()))
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
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s FROM %s
			WHERE owner_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, descriptorColumns, r.tableName)
		args = []any{ownerID, limit + 1}
	} else {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s FROM %s
			WHERE owner_id = ? AND (created_at, id) < (?, ?)
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, descriptorColumns, r.tableName)
		args = []any{ownerID, cursor.CreatedAt.UTC().Format(timeFormat), cursor.ID.String(), limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return docvault.ListResult{}, wrapErr("find by owner", err)
	}
	defer func() { _ = rows.Close() }()

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

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE share_token = ? AND visibility = 'public'`,
		descriptorColumns, r.tableName)

	d, err := scanDescriptor(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		return docvault.Descriptor{}, wrapErr("find by share token", err)
	}

	return d, nil
}

func (r *repo) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC().Format(timeFormat)
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET download_count = download_count + 1, updated_at = ?
		WHERE id = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, now, id.String())
	if err != nil {
		return wrapErr("increment download count", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment download count: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("increment download count: %w", docvault.ErrNotFound)
	}

	return nil
}

// Publish flips visibility and assigns the token in one statement, so no
// window exists where the row is public without a token. COALESCE keeps a
// previously assigned token, making repeated publishes return the same link.
func (r *repo) Publish(ctx context.Context, id uuid.UUID, token string) (string, error) {
	now := time.Now().UTC().Format(timeFormat)
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET visibility = 'public',
			share_token = COALESCE(share_token, ?),
			updated_at = ?
		WHERE id = ?
		RETURNING share_token`, r.tableName)

	var stored string
	err := r.db.QueryRowContext(ctx, query, token, now, id.String()).Scan(&stored)
	if err != nil {
		return "", wrapErr("publish", err)
	}

	return stored, nil
}

func (r *repo) Unpublish(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC().Format(timeFormat)
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET visibility = 'private', updated_at = ?
		WHERE id = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, now, id.String())
	if err != nil {
		return wrapErr("unpublish", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unpublish: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("unpublish: %w", docvault.ErrNotFound)
	}

	return nil
}

func (r *repo) UpdateDetails(ctx context.Context, id uuid.UUID, update docvault.DetailsUpdate) (docvault.Descriptor, error) {
	now := time.Now().UTC().Format(timeFormat)
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET title = COALESCE(?, title),
			description = COALESCE(?, description),
			updated_at = ?
		WHERE id = ?
		RETURNING %s`, r.tableName, descriptorColumns)

	d, err := scanDescriptor(r.db.QueryRowContext(ctx, query, update.Title, update.Description, now, id.String()))
	if err != nil {
		return docvault.Descriptor{}, wrapErr("update details", err)
	}

	return d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE id = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return wrapErr("delete", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete: %w", docvault.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDescriptor(row rowScanner) (docvault.Descriptor, error) {
	var d docvault.Descriptor
	var idStr, visibility, createdAt, updatedAt string

	err := row.Scan(
		&idStr, &d.OwnerID, &d.StorageKey, &d.FileName, &d.Title, &d.Description,
		&d.ContentType, &d.SizeBytes, &visibility, &d.ShareToken, &d.DownloadCount,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return docvault.Descriptor{}, err
	}

	d.ID, err = uuid.Parse(idStr)
	if err != nil {
		return docvault.Descriptor{}, fmt.Errorf("parse uuid: %w", err)
	}

	d.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return docvault.Descriptor{}, fmt.Errorf("parse created_at: %w", err)
	}

	d.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return docvault.Descriptor{}, fmt.Errorf("parse updated_at: %w", err)
	}

	d.Visibility = docvault.Visibility(visibility)
	return d, nil
}

// wrapErr translates driver errors into the domain taxonomy.
func wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, docvault.ErrNotFound)
	}

	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, docvault.ErrConflict)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %v: %w", op, err, docvault.ErrRepositoryUnavailable)
	}

	return fmt.Errorf("%s: %w", op, err)
}
