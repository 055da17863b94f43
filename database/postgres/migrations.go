package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func createDescriptorsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexShareToken := pgx.Identifier{fmt.Sprintf("idx_%s_share_token", tableName)}.Sanitize()
	indexOwnerList := pgx.Identifier{fmt.Sprintf("idx_%s_owner_list", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			storage_key TEXT NOT NULL UNIQUE,
			file_name TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			visibility TEXT NOT NULL DEFAULT 'private',
			share_token TEXT,
			download_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS %s
		ON %s (share_token)
		WHERE (share_token IS NOT NULL);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (owner_id, created_at DESC, id DESC);
	`,
		quotedTable,
		indexShareToken, quotedTable,
		indexOwnerList, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create descriptors table: %w", err)
	}
	return nil
}
