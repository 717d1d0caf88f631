// filepath: internal/repository/tag_repo_test.go
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"gallerybase/internal/dbqueue"
	"gallerybase/internal/shared"
)

func tableCount(t *testing.T, repo *Repository, table string) int64 {
	t.Helper()
	res, err := repo.Queue.Submit(context.Background(),
		dbqueue.Query("SELECT COUNT(*) AS n FROM "+table))
	if err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return rowInt64(res.Rows[0], "n")
}

func TestTagsAreSharedAcrossGalleries(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	g1 := testGallery("First", "X", "/library/first")
	g1.Tags = map[string][]string{"default": {"action"}}
	_, err := repo.AddGallery(ctx, g1)
	assert.NoError(t, err)

	g2 := testGallery("Second", "Y", "/library/second")
	g2.Tags = map[string][]string{"default": {"action"}}
	_, err = repo.AddGallery(ctx, g2)
	assert.NoError(t, err)

	// One tag row, one mapping row, one association row per gallery.
	assert.Equal(t, int64(1), tableCount(t, repo, "tags"))
	assert.Equal(t, int64(1), tableCount(t, repo, "namespaces"))
	assert.Equal(t, int64(1), tableCount(t, repo, "tags_mappings"))
	assert.Equal(t, int64(2), tableCount(t, repo, "series_tags_map"))
}

func TestTagNormalization(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	g := testGallery("Mixed Case", "X", "/library/mixed")
	g.Tags = map[string][]string{"Default": {" Action ", "action", "Drama"}}
	_, err := repo.AddGallery(ctx, g)
	assert.NoError(t, err)

	tags, err := repo.GetTags(ctx, g.ID)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"action", "drama"}, tags["default"])

	// Mixed-case and padded spellings collapse into one row, not several.
	assert.Equal(t, int64(2), tableCount(t, repo, "tags"))
	assert.Equal(t, int64(1), tableCount(t, repo, "namespaces"))
}

func TestExactTagMatching(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	g1 := testGallery("Cart", "X", "/library/cart")
	g1.Tags = map[string][]string{"default": {"cart"}}
	_, err := repo.AddGallery(ctx, g1)
	assert.NoError(t, err)

	// "art" is a substring of "cart" but must get its own row.
	g2 := testGallery("Art", "Y", "/library/art")
	g2.Tags = map[string][]string{"default": {"art"}}
	_, err = repo.AddGallery(ctx, g2)
	assert.NoError(t, err)

	assert.Equal(t, int64(2), tableCount(t, repo, "tags"))

	tags, err := repo.GetTags(ctx, g2.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"art"}, tags["default"])
}

func TestReplaceTagsKeepsSharedVocabulary(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	g1 := testGallery("Keeper", "X", "/library/keeper")
	g1.Tags = map[string][]string{"default": {"action"}}
	_, err := repo.AddGallery(ctx, g1)
	assert.NoError(t, err)

	g2 := testGallery("Changer", "Y", "/library/changer")
	g2.Tags = map[string][]string{"default": {"action"}}
	_, err = repo.AddGallery(ctx, g2)
	assert.NoError(t, err)

	err = repo.ReplaceTags(ctx, g2.ID, map[string][]string{"default": {"drama"}})
	assert.NoError(t, err)

	tags, err := repo.GetTags(ctx, g2.ID)
	assert.NoError(t, err)
	assert.Equal(t, map[string][]string{"default": {"drama"}}, tags)

	// The other gallery's associations are untouched and the shared
	// mapping row stays.
	tags, err = repo.GetTags(ctx, g1.ID)
	assert.NoError(t, err)
	assert.Equal(t, map[string][]string{"default": {"action"}}, tags)
	assert.Equal(t, int64(2), tableCount(t, repo, "tags_mappings"))
}

func TestEmptyNamespaceFallsBackToDefault(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	g := testGallery("NoNS", "X", "/library/nons")
	g.Tags = map[string][]string{"": {"loose"}}
	_, err := repo.AddGallery(ctx, g)
	assert.NoError(t, err)

	tags, err := repo.GetTags(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, map[string][]string{DefaultNamespace: {"loose"}}, tags)
}

func TestGetAllTagsAndNamespaces(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	g := testGallery("Vocab", "X", "/library/vocab")
	g.Tags = map[string][]string{
		"default": {"drama", "action"},
		"artist":  {"someone"},
	}
	_, err := repo.AddGallery(ctx, g)
	assert.NoError(t, err)

	tags, err := repo.GetAllTags(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"action", "drama", "someone"}, tags)

	namespaces, err := repo.GetAllNamespaces(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"artist", "default"}, namespaces)
}

func TestUnimplementedTagOperations(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	assert.ErrorIs(t, repo.DeleteTags(ctx, []int64{1}), shared.ErrNotImplemented)
	_, err := repo.GetGalleriesByTag(ctx, "action")
	assert.ErrorIs(t, err, shared.ErrNotImplemented)
	_, err = repo.GetGalleriesByNamespaceTags(ctx, map[string][]string{"default": {"action"}})
	assert.ErrorIs(t, err, shared.ErrNotImplemented)
}
