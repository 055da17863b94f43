package postgres_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorandi/docvault"
)

func newDescriptor(ownerID, fileName string) docvault.Descriptor {
	return docvault.Descriptor{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		StorageKey:  docvault.NewStorageKey(ownerID, fileName),
		FileName:    fileName,
		Title:       fileName,
		ContentType: "application/octet-stream",
		SizeBytes:   256,
		Visibility:  docvault.VisibilityPrivate,
	}
}

func TestRepoCreateAndGetByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	d := newDescriptor("alice", "report.pdf")
	d.Description = "quarterly numbers"

	created, err := repo.Create(ctx, d)
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.Equal(t, int64(0), created.DownloadCount)

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, d.StorageKey, got.StorageKey)
	assert.Equal(t, "quarterly numbers", got.Description)
	assert.Equal(t, docvault.VisibilityPrivate, got.Visibility)
	assert.Empty(t, got.ShareToken)
}

func TestRepoGetByIDNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, docvault.ErrNotFound)
}

func TestRepoCreateDuplicateStorageKey(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	d := newDescriptor("alice", "report.pdf")
	_, err := repo.Create(ctx, d)
	require.NoError(t, err)

	dup := newDescriptor("alice", "report.pdf")
	dup.StorageKey = d.StorageKey

	_, err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, docvault.ErrConflict)
}

func TestRepoFindByOwnerPagination(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		d := newDescriptor("alice", "doc.txt")
		_, err := repo.Create(ctx, d)
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}
	_, err := repo.Create(ctx, newDescriptor("bob", "other.txt"))
	require.NoError(t, err)

	var seen []uuid.UUID
	cursor := ""
	pages := 0
	for {
		page, err := repo.FindByOwner(ctx, "alice", docvault.ListQuery{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		pages++

		for _, d := range page.Items {
			assert.Equal(t, "alice", d.OwnerID)
			seen = append(seen, d.ID)
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 5)

	// No duplicates and no missing rows across pages.
	unique := make(map[uuid.UUID]bool)
	for _, id := range seen {
		unique[id] = true
	}
	for _, id := range ids {
		assert.True(t, unique[id], "row %s missing from paged results", id)
	}
}

func TestRepoFindByOwnerInvalidCursor(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.FindByOwner(context.Background(), "alice", docvault.ListQuery{Cursor: "garbage"})
	assert.Error(t, err)
}

func TestRepoPublishTokenStability(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	d := newDescriptor("alice", "report.pdf")
	_, err := repo.Create(ctx, d)
	require.NoError(t, err)

	stored, err := repo.Publish(ctx, d.ID, "token-one")
	require.NoError(t, err)
	assert.Equal(t, "token-one", stored)

	got, err := repo.FindByShareToken(ctx, "token-one")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	require.NoError(t, repo.Unpublish(ctx, d.ID))

	_, err = repo.FindByShareToken(ctx, "token-one")
	assert.ErrorIs(t, err, docvault.ErrNotFound)

	stored, err = repo.Publish(ctx, d.ID, "token-two")
	require.NoError(t, err)
	assert.Equal(t, "token-one", stored, "republish must revive the original token")

	_, err = repo.FindByShareToken(ctx, "token-two")
	assert.ErrorIs(t, err, docvault.ErrNotFound)
}

func TestRepoPublishIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	d := newDescriptor("alice", "report.pdf")
	_, err := repo.Create(ctx, d)
	require.NoError(t, err)

	first, err := repo.Publish(ctx, d.ID, "tok-a")
	require.NoError(t, err)

	second, err := repo.Publish(ctx, d.ID, "tok-b")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRepoIncrementDownloadCountConcurrent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	d := newDescriptor("alice", "report.pdf")
	_, err := repo.Create(ctx, d)
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementDownloadCount(ctx, d.ID)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.DownloadCount)
}

func TestRepoUpdateDetails(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	d := newDescriptor("alice", "report.pdf")
	d.Description = "original"
	_, err := repo.Create(ctx, d)
	require.NoError(t, err)

	title := "New Title"
	updated, err := repo.UpdateDetails(ctx, d.ID, docvault.DetailsUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, "original", updated.Description)
}

func TestRepoDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	d := newDescriptor("alice", "report.pdf")
	_, err := repo.Create(ctx, d)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, d.ID))

	_, err = repo.GetByID(ctx, d.ID)
	assert.ErrorIs(t, err, docvault.ErrNotFound)

	err = repo.Delete(ctx, d.ID)
	assert.ErrorIs(t, err, docvault.ErrNotFound)
}
