// filepath: internal/repository/chapter_repo.go
package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"

	"gallerybase/internal/dbqueue"
	"gallerybase/internal/shared"
)

// chapterUpsertSuffix makes re-adding a chapter number overwrite the
// stored path instead of duplicating the row, backed by the
// (series_id, chapter_number) unique key.
const chapterUpsertSuffix = "ON CONFLICT(series_id, chapter_number) DO UPDATE SET chapter_path=excluded.chapter_path"

// AddChapters inserts one row per chapter in the gallery's chapter map.
func (s *Repository) AddChapters(ctx context.Context, g *shared.Gallery) error {
	if g == nil || g.ID <= 0 {
		return shared.ErrInvalidGallery
	}
	return s.UpsertChapters(ctx, g.ID, g.Chapters)
}

// UpsertChapters updates the path of every (gallery, number) pair that
// already exists and inserts the rest, as one atomic batch.
func (s *Repository) UpsertChapters(ctx context.Context, galleryID int64, chapters map[int]string) error {
	if galleryID <= 0 {
		return fmt.Errorf("invalid gallery id %d", galleryID)
	}
	if len(chapters) == 0 {
		return nil
	}

	stmts := make([]dbqueue.Statement, 0, len(chapters))
	for _, numb := range sortedChapterNumbers(chapters) {
		query, args, err := s.Builder.Insert("chapters").
			Columns("series_id", "chapter_number", "chapter_path").
			Values(galleryID, numb, []byte(chapters[numb])).
			Suffix(chapterUpsertSuffix).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build chapter upsert: %w", err)
		}
		stmts = append(stmts, dbqueue.Exec(query, args...))
	}

	if _, err := s.Queue.Submit(ctx, stmts...); err != nil {
		return fmt.Errorf("failed to upsert chapters for gallery %d: %w", galleryID, err)
	}
	return nil
}

// ReplaceChapters overwrites the stored paths of the given chapter
// numbers from the gallery's chapter map. With no numbers specified every
// chapter in the map is written.
func (s *Repository) ReplaceChapters(ctx context.Context, g *shared.Gallery, numbers ...int) error {
	if g == nil || g.ID <= 0 {
		return shared.ErrInvalidGallery
	}
	if len(numbers) == 0 {
		numbers = sortedChapterNumbers(g.Chapters)
	}

	stmts := make([]dbqueue.Statement, 0, len(numbers))
	for _, numb := range numbers {
		path, ok := g.Chapters[numb]
		if !ok {
			return fmt.Errorf("gallery %d has no chapter %d: %w", g.ID, numb, shared.ErrChapterNotFound)
		}
		query, args, err := s.Builder.Update("chapters").
			Set("chapter_path", []byte(path)).
			Where(squirrel.Eq{"series_id": g.ID, "chapter_number": numb}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build chapter update: %w", err)
		}
		stmts = append(stmts, dbqueue.Exec(query, args...))
	}

	if _, err := s.Queue.Submit(ctx, stmts...); err != nil {
		return fmt.Errorf("failed to replace chapters for gallery %d: %w", g.ID, err)
	}
	return nil
}

// GetChapters returns the gallery's chapter map {number: path}.
func (s *Repository) GetChapters(ctx context.Context, galleryID int64) (map[int]string, error) {
	query, args, err := s.Builder.Select("chapter_number", "chapter_path").
		From("chapters").
		Where(squirrel.Eq{"series_id": galleryID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters for gallery %d: %w", galleryID, err)
	}

	chapters := make(map[int]string, len(res.Rows))
	for _, row := range res.Rows {
		chapters[int(rowInt64(row, "chapter_number"))] = rowString(row, "chapter_path")
	}
	return chapters, nil
}

// GetChapter returns the path stored for one chapter number, or
// ErrChapterNotFound.
func (s *Repository) GetChapter(ctx context.Context, galleryID int64, number int) (string, error) {
	query, args, err := s.Builder.Select("chapter_path").
		From("chapters").
		Where(squirrel.Eq{"series_id": galleryID, "chapter_number": number}).
		ToSql()
	if err != nil {
		return "", err
	}

	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return "", fmt.Errorf("failed to query chapter %d of gallery %d: %w", number, galleryID, err)
	}
	if len(res.Rows) == 0 {
		return "", shared.ErrChapterNotFound
	}
	return rowString(res.Rows[0], "chapter_path"), nil
}

// GetChapterID returns the row id of one chapter number, or
// ErrChapterNotFound.
func (s *Repository) GetChapterID(ctx context.Context, galleryID int64, number int) (int64, error) {
	query, args, err := s.Builder.Select("chapter_id").
		From("chapters").
		Where(squirrel.Eq{"series_id": galleryID, "chapter_number": number}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return 0, fmt.Errorf("failed to query chapter id: %w", err)
	}
	if len(res.Rows) == 0 {
		return 0, shared.ErrChapterNotFound
	}
	return rowInt64(res.Rows[0], "chapter_id"), nil
}

// ChapterCount returns the number of chapters stored for the gallery.
func (s *Repository) ChapterCount(ctx context.Context, galleryID int64) (int, error) {
	query, args, err := s.Builder.Select("COUNT(*) AS n").
		From("chapters").
		Where(squirrel.Eq{"series_id": galleryID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	return int(rowInt64(res.Rows[0], "n")), nil
}

// DeleteChapters removes every chapter of the gallery.
func (s *Repository) DeleteChapters(ctx context.Context, galleryID int64) error {
	if _, err := s.Queue.Submit(ctx,
		dbqueue.Exec("DELETE FROM chapters WHERE series_id=?", galleryID)); err != nil {
		return fmt.Errorf("failed to delete chapters for gallery %d: %w", galleryID, err)
	}
	return nil
}

// DeleteChapter removes one chapter number from the gallery.
func (s *Repository) DeleteChapter(ctx context.Context, galleryID int64, number int) error {
	if _, err := s.Queue.Submit(ctx,
		dbqueue.Exec("DELETE FROM chapters WHERE series_id=? AND chapter_number=?", galleryID, number)); err != nil {
		return fmt.Errorf("failed to delete chapter %d of gallery %d: %w", number, galleryID, err)
	}
	return nil
}

func sortedChapterNumbers(chapters map[int]string) []int {
	numbers := make([]int, 0, len(chapters))
	for numb := range chapters {
		numbers = append(numbers, numb)
	}
	sort.Ints(numbers)
	return numbers
}
