// filepath: internal/repository/chapter_repo_test.go
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"gallerybase/internal/shared"
)

func addChapterTestGallery(t *testing.T, repo *Repository) *shared.Gallery {
	t.Helper()
	g := testGallery("Chapters", "X", "/library/chapters")
	if _, err := repo.AddGallery(context.Background(), g); err != nil {
		t.Fatalf("Failed to add test gallery: %v", err)
	}
	return g
}

func TestUpsertChaptersOverwritesExisting(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	g := addChapterTestGallery(t, repo)

	err := repo.UpsertChapters(ctx, g.ID, map[int]string{3: "/p/v1/ch3.zip"})
	assert.NoError(t, err)

	// Re-adding the same number must overwrite, not duplicate.
	err = repo.UpsertChapters(ctx, g.ID, map[int]string{3: "/p/v2/ch3.zip"})
	assert.NoError(t, err)

	count, err := repo.ChapterCount(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	path, err := repo.GetChapter(ctx, g.ID, 3)
	assert.NoError(t, err)
	assert.Equal(t, "/p/v2/ch3.zip", path)
}

func TestGetChapters(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	g := addChapterTestGallery(t, repo)

	chapters := map[int]string{0: "/p/ch0", 1: "/p/ch1.zip", 5: "/p/ch5.cbz"}
	assert.NoError(t, repo.UpsertChapters(ctx, g.ID, chapters))

	got, err := repo.GetChapters(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, chapters, got)

	_, err = repo.GetChapter(ctx, g.ID, 2)
	assert.ErrorIs(t, err, shared.ErrChapterNotFound)
	_, err = repo.GetChapterID(ctx, g.ID, 2)
	assert.ErrorIs(t, err, shared.ErrChapterNotFound)

	id, err := repo.GetChapterID(ctx, g.ID, 0)
	assert.NoError(t, err)
	assert.Greater(t, id, int64(0))
}

func TestReplaceChapters(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	g := addChapterTestGallery(t, repo)

	g.Chapters = map[int]string{0: "/p/ch0.zip", 1: "/p/ch1.zip"}
	assert.NoError(t, repo.AddChapters(ctx, g))

	g.Chapters[0] = "/moved/ch0.zip"
	assert.NoError(t, repo.ReplaceChapters(ctx, g, 0))

	path, err := repo.GetChapter(ctx, g.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, "/moved/ch0.zip", path)
	path, err = repo.GetChapter(ctx, g.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, "/p/ch1.zip", path)

	// Numbers missing from the chapter map are an error.
	err = repo.ReplaceChapters(ctx, g, 9)
	assert.ErrorIs(t, err, shared.ErrChapterNotFound)
}

func TestDeleteChapters(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	g := addChapterTestGallery(t, repo)

	assert.NoError(t, repo.UpsertChapters(ctx, g.ID, map[int]string{0: "/p/a", 1: "/p/b"}))

	assert.NoError(t, repo.DeleteChapter(ctx, g.ID, 0))
	count, err := repo.ChapterCount(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, repo.DeleteChapters(ctx, g.ID))
	count, err = repo.ChapterCount(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAddChaptersRequiresPersistedGallery(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	g := shared.NewGallery()
	g.Chapters = map[int]string{0: "/p/a"}
	err := repo.AddChapters(context.Background(), g)
	assert.ErrorIs(t, err, shared.ErrInvalidGallery)
}
