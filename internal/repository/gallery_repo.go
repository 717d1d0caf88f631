// filepath: internal/repository/gallery_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/patrickmn/go-cache"

	"gallerybase/internal/dbqueue"
	"gallerybase/internal/shared"
)

// galleryNamesCacheKey caches the sorted gallery basename list behind
// GalleryExists. Invalidated by every add/modify-path/delete.
const galleryNamesCacheKey = "gallery_names"

// AddGallery inserts a new gallery row from all gallery fields and returns
// the assigned id. It generates the reference thumbnail first (placeholder
// on failure, never aborting the insert), then populates the chapter and
// tag stores and runs an idempotent hash rebuild. A failed hash rebuild is
// "no hashes available", not an add failure.
func (s *Repository) AddGallery(ctx context.Context, g *shared.Gallery) (int64, error) {
	if g == nil {
		return 0, shared.ErrInvalidGallery
	}
	if g.ID != 0 {
		return 0, fmt.Errorf("gallery already has id %d", g.ID)
	}
	if g.DateAdded.IsZero() {
		g.DateAdded = time.Now()
	}
	if g.Status == "" {
		g.Status = shared.StatusUnknown
	}

	if ref, ok := g.ReferenceChapter(); ok {
		g.Profile = s.Thumbs.Generate(ref)
	} else {
		g.Profile = s.Thumbs.Generate("")
	}
	g.LastUpdate = time.Now()

	query, args, err := s.Builder.Insert("series").
		Columns("title", "artist", "profile", "series_path", "info", "type",
			"fav", "language", "status", "pub_date", "date_added", "last_read",
			"link", "last_update", "times_read", "db_v", "exed").
		Values(g.Title, g.Artist, []byte(g.Profile), []byte(g.Path), g.Info, g.Type,
			boolToInt(g.Fav), g.Language, string(g.Status), timeArg(g.PubDate),
			timeArg(g.DateAdded), timeArg(g.LastRead), []byte(g.Link),
			timeArg(g.LastUpdate), g.TimesRead, shared.CurrentDBVersion,
			boolToInt(g.Enriched)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build gallery insert: %w", err)
	}

	res, err := s.Queue.Submit(ctx, dbqueue.Exec(query, args...))
	if err != nil {
		return 0, fmt.Errorf("failed to insert gallery: %w", err)
	}
	g.ID = res.LastInsertID
	g.DBVersion = shared.CurrentDBVersion

	if len(g.Tags) > 0 {
		if err := s.AddTags(ctx, g); err != nil {
			return g.ID, fmt.Errorf("failed to add tags for gallery %d: %w", g.ID, err)
		}
	}
	if len(g.Chapters) > 0 {
		if err := s.AddChapters(ctx, g); err != nil {
			return g.ID, fmt.Errorf("failed to add chapters for gallery %d: %w", g.ID, err)
		}
	}

	if _, err := s.RebuildHashes(ctx, g); err != nil {
		if errors.Is(err, shared.ErrUnreadableChapter) {
			s.Logger.Debugf("No hashes for gallery %d: %v", g.ID, err)
		} else {
			s.Logger.Errorf("Hash generation for gallery %d failed: %v", g.ID, err)
		}
	}

	s.Cache.Delete(galleryNamesCacheKey)
	s.Logger.Infof("Added gallery %d (%s)", g.ID, g.Title)
	return g.ID, nil
}

// ModifyGallery updates only the fields present in upd; absent fields are
// left untouched, and a set pointer to a falsy value (false, 0, "") is a
// real update. Tag and chapter maps delegate to their stores.
func (s *Repository) ModifyGallery(ctx context.Context, id int64, upd shared.GalleryUpdate) error {
	if id <= 0 {
		return fmt.Errorf("invalid gallery id %d", id)
	}

	ub := s.Builder.Update("series")
	fields := 0
	set := func(column string, value any) {
		ub = ub.Set(column, value)
		fields++
	}

	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Artist != nil {
		set("artist", *upd.Artist)
	}
	if upd.Info != nil {
		set("info", *upd.Info)
	}
	if upd.Type != nil {
		set("type", *upd.Type)
	}
	if upd.Language != nil {
		set("language", *upd.Language)
	}
	if upd.Status != nil {
		set("status", string(*upd.Status))
	}
	if upd.Fav != nil {
		set("fav", boolToInt(*upd.Fav))
	}
	if upd.Link != nil {
		set("link", []byte(*upd.Link))
	}
	if upd.Path != nil {
		set("series_path", []byte(*upd.Path))
		s.Cache.Delete(galleryNamesCacheKey)
	}
	if upd.Profile != nil {
		set("profile", []byte(*upd.Profile))
	}
	if upd.PubDate != nil {
		set("pub_date", timeArg(*upd.PubDate))
	}
	if upd.LastRead != nil {
		set("last_read", timeArg(*upd.LastRead))
	}
	if upd.TimesRead != nil {
		set("times_read", *upd.TimesRead)
	}
	if upd.DBVersion != nil {
		set("db_v", *upd.DBVersion)
	}
	if upd.Enriched != nil {
		set("exed", boolToInt(*upd.Enriched))
	}

	if fields > 0 {
		ub = ub.Set("last_update", timeArg(time.Now()))
		query, args, err := ub.Where(squirrel.Eq{"series_id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build gallery update: %w", err)
		}
		if _, err := s.Queue.Submit(ctx, dbqueue.Exec(query, args...)); err != nil {
			return fmt.Errorf("failed to update gallery %d: %w", id, err)
		}
	}

	if upd.Tags != nil {
		if err := s.ReplaceTags(ctx, id, upd.Tags); err != nil {
			return err
		}
	}
	if upd.Chapters != nil {
		if err := s.UpsertChapters(ctx, id, upd.Chapters); err != nil {
			return err
		}
	}
	return nil
}

// SetGalleryFav flips the favorite flag of one gallery.
func (s *Repository) SetGalleryFav(ctx context.Context, id int64, fav bool) error {
	return s.ModifyGallery(ctx, id, shared.GalleryUpdate{Fav: &fav})
}

// GetGalleryByID returns the gallery with the given id, hydrated with its
// chapters, tags and hashes, or ErrGalleryNotFound.
func (s *Repository) GetGalleryByID(ctx context.Context, id int64) (*shared.Gallery, error) {
	galleries, err := s.galleriesWhere(ctx, squirrel.Eq{"series_id": id})
	if err != nil {
		return nil, err
	}
	if len(galleries) == 0 {
		return nil, shared.ErrGalleryNotFound
	}
	return &galleries[0], nil
}

// GetGalleryByTitle returns the first gallery with the given title, or
// ErrGalleryNotFound.
func (s *Repository) GetGalleryByTitle(ctx context.Context, title string) (*shared.Gallery, error) {
	galleries, err := s.galleriesWhere(ctx, squirrel.Eq{"title": title})
	if err != nil {
		return nil, err
	}
	if len(galleries) == 0 {
		return nil, shared.ErrGalleryNotFound
	}
	return &galleries[0], nil
}

// GetGalleryByPath returns the gallery rooted at the given filesystem
// path, or ErrGalleryNotFound.
func (s *Repository) GetGalleryByPath(ctx context.Context, path string) (*shared.Gallery, error) {
	galleries, err := s.galleriesWhere(ctx, squirrel.Eq{"series_path": []byte(path)})
	if err != nil {
		return nil, err
	}
	if len(galleries) == 0 {
		return nil, shared.ErrGalleryNotFound
	}
	return &galleries[0], nil
}

// GetGalleriesByArtist returns every gallery by the given artist.
func (s *Repository) GetGalleriesByArtist(ctx context.Context, artist string) ([]shared.Gallery, error) {
	return s.galleriesWhere(ctx, squirrel.Eq{"artist": artist})
}

// GetAllGalleries returns every gallery currently in the store.
func (s *Repository) GetAllGalleries(ctx context.Context) ([]shared.Gallery, error) {
	return s.galleriesWhere(ctx, nil)
}

// GetFavoriteGalleries returns every gallery with the favorite flag set.
func (s *Repository) GetFavoriteGalleries(ctx context.Context) ([]shared.Gallery, error) {
	return s.galleriesWhere(ctx, squirrel.Eq{"fav": 1})
}

// GalleryCount returns the number of galleries in the store.
func (s *Repository) GalleryCount(ctx context.Context) (int, error) {
	query, args, err := s.Builder.Select("COUNT(*) AS n").From("series").ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return 0, fmt.Errorf("failed to count galleries: %w", err)
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	return int(rowInt64(res.Rows[0], "n")), nil
}

func (s *Repository) galleriesWhere(ctx context.Context, pred any) ([]shared.Gallery, error) {
	sel := s.Builder.Select("*").From("series")
	if pred != nil {
		sel = sel.Where(pred)
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build gallery query: %w", err)
	}

	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to query galleries: %w", err)
	}

	galleries := make([]shared.Gallery, 0, len(res.Rows))
	for _, row := range res.Rows {
		g := galleryFromRow(row)
		if err := s.hydrate(ctx, g); err != nil {
			return nil, err
		}
		galleries = append(galleries, *g)
	}
	return galleries, nil
}

// hydrate joins in the gallery's owned child collections.
func (s *Repository) hydrate(ctx context.Context, g *shared.Gallery) error {
	chapters, err := s.GetChapters(ctx, g.ID)
	if err != nil {
		return err
	}
	g.Chapters = chapters

	tags, err := s.GetTags(ctx, g.ID)
	if err != nil {
		return err
	}
	g.Tags = tags

	hashes, err := s.GetHashes(ctx, g.ID)
	if err != nil {
		return err
	}
	g.Hashes = hashes
	return nil
}

// DeleteGalleries removes the given galleries. Invalid galleries are
// skipped entirely. With deleteFiles set, chapter paths and the gallery
// root are removed from disk first, logging and continuing past per-item
// failures; the DB rows go away regardless of file-deletion outcome. The
// generated thumbnail is removed unless it is the shared placeholder. All
// row deletions for one gallery form a single atomic batch.
func (s *Repository) DeleteGalleries(ctx context.Context, galleries []shared.Gallery, deleteFiles bool) error {
	for i := range galleries {
		g := &galleries[i]
		if !g.Valid() {
			s.Logger.Debugf("Invalid gallery %d not removable", g.ID)
			continue
		}

		if deleteFiles {
			for numb, path := range g.Chapters {
				if err := os.RemoveAll(path); err != nil {
					s.Logger.Errorf("Failed to delete chapter %d of gallery %d: %v", numb, g.ID, err)
					continue
				}
			}
			if err := os.RemoveAll(g.Path); err != nil {
				s.Logger.Errorf("Failed to delete gallery %d path %s: %v", g.ID, g.Path, err)
			}
		}

		if g.Profile != "" && !s.Thumbs.IsPlaceholder(g.Profile) {
			if err := os.Remove(g.Profile); err != nil && !os.IsNotExist(err) {
				s.Logger.Warnf("Failed to delete thumbnail of gallery %d: %v", g.ID, err)
			}
		}

		if _, err := s.Queue.Submit(ctx,
			dbqueue.Exec("DELETE FROM hashes WHERE series_id=?", g.ID),
			dbqueue.Exec("DELETE FROM series_tags_map WHERE series_id=?", g.ID),
			dbqueue.Exec("DELETE FROM chapters WHERE series_id=?", g.ID),
			dbqueue.Exec("DELETE FROM series WHERE series_id=?", g.ID),
		); err != nil {
			s.Logger.Errorf("Failed to delete gallery %d: %v", g.ID, err)
			continue
		}
		s.Logger.Infof("Successfully deleted gallery %d (%s)", g.ID, g.Title)
	}

	s.Cache.Delete(galleryNamesCacheKey)
	return nil
}

// RebuildGalleries re-applies each valid gallery's current fields back
// through ModifyGallery, normalizing stored data to the current schema
// version. The first error aborts the remaining work; galleries already
// rebuilt stay rebuilt.
func (s *Repository) RebuildGalleries(ctx context.Context) error {
	galleries, err := s.GetAllGalleries(ctx)
	if err != nil {
		return err
	}

	s.Logger.Info("Rebuilding galleries")
	version := shared.CurrentDBVersion
	for i := range galleries {
		g := &galleries[i]
		if !g.Valid() {
			continue
		}
		s.Logger.Infof("Rebuilding gallery %d", g.ID)
		upd := shared.GalleryUpdate{
			Title:     &g.Title,
			Artist:    &g.Artist,
			Info:      &g.Info,
			Type:      &g.Type,
			Language:  &g.Language,
			Status:    &g.Status,
			Fav:       &g.Fav,
			Link:      &g.Link,
			PubDate:   &g.PubDate,
			TimesRead: &g.TimesRead,
			DBVersion: &version,
			Enriched:  &g.Enriched,
			Tags:      g.Tags,
		}
		if err := s.ModifyGallery(ctx, g.ID, upd); err != nil {
			return fmt.Errorf("failed to rebuild gallery %d: %w", g.ID, err)
		}
	}
	s.Logger.Info("Finished rebuilding galleries")
	return nil
}

// GalleryExists checks candidate against the set of gallery path
// basenames via binary search. Pass names to search a custom list, which
// must be sorted ascending; with nil the store's own (cached) name list
// is used.
func (s *Repository) GalleryExists(ctx context.Context, candidate string, names []string) (bool, error) {
	if names == nil {
		var err error
		names, err = s.galleryNames(ctx)
		if err != nil {
			return false, err
		}
	}
	i := sort.SearchStrings(names, candidate)
	return i < len(names) && names[i] == candidate, nil
}

func (s *Repository) galleryNames(ctx context.Context) ([]string, error) {
	if cached, ok := s.Cache.Get(galleryNamesCacheKey); ok {
		return cached.([]string), nil
	}

	query, args, err := s.Builder.Select("series_path").From("series").ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery paths: %w", err)
	}

	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if p := rowString(row, "series_path"); p != "" {
			names = append(names, filepath.Base(p))
		}
	}
	sort.Strings(names)
	s.Cache.Set(galleryNamesCacheKey, names, cache.DefaultExpiration)
	return names, nil
}
