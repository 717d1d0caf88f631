// filepath: internal/repository/hash_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/oklog/ulid/v2"

	"gallerybase/internal/archive"
	"gallerybase/internal/dbqueue"
	"gallerybase/internal/imghash"
	"gallerybase/internal/shared"
)

// GetHashes returns all stored hash values for the gallery.
func (s *Repository) GetHashes(ctx context.Context, galleryID int64) ([]string, error) {
	query, args, err := s.Builder.Select("hash").
		From("hashes").
		Where(squirrel.Eq{"series_id": galleryID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to query hashes for gallery %d: %w", galleryID, err)
	}

	hashes := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		hashes = append(hashes, rowString(row, "hash"))
	}
	return hashes, nil
}

// GenerateHashes computes one content hash per page image of the
// gallery's reference chapter. Archive chapters are extracted into a
// uniquely named temp dir that is removed again afterwards. When the
// gallery has a persisted id the hashes are stored, linked to the gallery
// and (when resolvable) the chapter row. A chapter path that yields no
// readable images reports ErrUnreadableChapter; callers treat that as "no
// hashes available", not as a failed gallery operation.
func (s *Repository) GenerateHashes(ctx context.Context, g *shared.Gallery) ([]string, error) {
	if g == nil {
		return nil, shared.ErrInvalidGallery
	}
	chapPath, ok := g.ReferenceChapter()
	if !ok {
		return nil, fmt.Errorf("gallery has no chapters: %w", shared.ErrUnreadableChapter)
	}

	pages, cleanup, err := s.resolvePages(chapPath)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, err
	}

	hashes := make([]string, 0, len(pages))
	for _, page := range pages {
		f, err := os.Open(page)
		if err != nil {
			return nil, fmt.Errorf("failed to open page %s: %w", page, err)
		}
		h, err := s.Hasher.Hash(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to hash page %s: %w", page, err)
		}
		hashes = append(hashes, h)
	}

	if g.ID > 0 {
		var chapID any
		if id, err := s.GetChapterID(ctx, g.ID, 0); err == nil {
			chapID = id
		} else if !errors.Is(err, shared.ErrChapterNotFound) {
			return nil, err
		}

		stmts := make([]dbqueue.Statement, 0, len(hashes))
		for _, h := range hashes {
			stmts = append(stmts, dbqueue.Exec(
				"INSERT INTO hashes(hash, series_id, chapter_id) VALUES(?, ?, ?)",
				h, g.ID, chapID))
		}
		if _, err := s.Queue.Submit(ctx, stmts...); err != nil {
			return nil, fmt.Errorf("failed to store hashes for gallery %d: %w", g.ID, err)
		}
	}

	g.Hashes = hashes
	return hashes, nil
}

// RebuildHashes is idempotent: existing hashes are returned as-is and
// generation only runs when the gallery has none stored yet.
func (s *Repository) RebuildHashes(ctx context.Context, g *shared.Gallery) ([]string, error) {
	if g == nil {
		return nil, shared.ErrInvalidGallery
	}
	if g.ID > 0 {
		existing, err := s.GetHashes(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			g.Hashes = existing
			return existing, nil
		}
	}
	return s.GenerateHashes(ctx, g)
}

// DeleteHashes removes every hash linked to the gallery.
func (s *Repository) DeleteHashes(ctx context.Context, galleryID int64) error {
	if _, err := s.Queue.Submit(ctx,
		dbqueue.Exec("DELETE FROM hashes WHERE series_id=?", galleryID)); err != nil {
		return fmt.Errorf("failed to delete hashes for gallery %d: %w", galleryID, err)
	}
	return nil
}

// resolvePages turns a chapter path into the sorted list of its page
// image files, extracting archives into a temp dir first. The cleanup
// func (possibly nil) removes that temp dir.
func (s *Repository) resolvePages(chapPath string) (pages []string, cleanup func(), err error) {
	dir := chapPath
	if info, statErr := os.Stat(chapPath); statErr != nil || !info.IsDir() {
		if !archive.Supported(chapPath) {
			return nil, nil, fmt.Errorf("%w: %s", shared.ErrUnreadableChapter, chapPath)
		}
		r, openErr := archive.Open(chapPath)
		if openErr != nil {
			return nil, nil, fmt.Errorf("%w: %v", shared.ErrUnreadableChapter, openErr)
		}
		dir = filepath.Join(s.TempDir, ulid.Make().String())
		cleanup = func() { os.RemoveAll(dir) }
		extractErr := r.ExtractAll(dir)
		r.Close()
		if extractErr != nil {
			return nil, cleanup, fmt.Errorf("%w: %v", shared.ErrUnreadableChapter, extractErr)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, cleanup, fmt.Errorf("%w: %v", shared.ErrUnreadableChapter, err)
	}
	for _, e := range entries {
		if !e.IsDir() && imghash.IsImage(e.Name()) {
			pages = append(pages, filepath.Join(dir, e.Name()))
		}
	}
	if len(pages) == 0 {
		return nil, cleanup, fmt.Errorf("%w: %s", shared.ErrUnreadableChapter, chapPath)
	}
	sort.Strings(pages)
	return pages, cleanup, nil
}
