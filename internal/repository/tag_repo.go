// filepath: internal/repository/tag_repo.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"

	"gallerybase/internal/dbqueue"
	"gallerybase/internal/shared"
)

// DefaultNamespace groups tags supplied without a namespace.
const DefaultNamespace = "default"

// normalizeTag is the store-wide key form for namespaces and tags:
// trimmed, lower-cased. Existence checks are exact matches on this form
// (not substring matches), so "art" can never reuse an existing "cart"
// row and mixed-case duplicates collapse into one shared row.
func normalizeTag(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// AddTags writes the gallery's {namespace: [tags]} map: namespace, tag
// and (namespace, tag) mapping rows are created on first use and shared
// by every gallery using that exact pair; one new association row links
// the gallery to each mapping.
func (s *Repository) AddTags(ctx context.Context, g *shared.Gallery) error {
	if g == nil || g.ID <= 0 {
		return shared.ErrInvalidGallery
	}

	namespaces := make([]string, 0, len(g.Tags))
	for ns := range g.Tags {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	var mappingIDs []int64
	for _, rawNS := range namespaces {
		ns := normalizeTag(rawNS)
		if ns == "" {
			ns = DefaultNamespace
		}
		nsID, err := s.getOrCreateRow(ctx, "namespaces", "namespace", "namespace_id", ns)
		if err != nil {
			return err
		}

		for _, rawTag := range g.Tags[rawNS] {
			tag := normalizeTag(rawTag)
			if tag == "" {
				continue
			}
			tagID, err := s.getOrCreateRow(ctx, "tags", "tag", "tag_id", tag)
			if err != nil {
				return err
			}

			mappingID, err := s.getOrCreateMapping(ctx, nsID, tagID)
			if err != nil {
				return err
			}
			mappingIDs = append(mappingIDs, mappingID)
		}
	}

	if len(mappingIDs) == 0 {
		return nil
	}

	stmts := make([]dbqueue.Statement, 0, len(mappingIDs))
	for _, mappingID := range mappingIDs {
		query, args, err := s.Builder.Insert("series_tags_map").
			Columns("series_id", "tags_mappings_id").
			Values(g.ID, mappingID).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build association insert: %w", err)
		}
		stmts = append(stmts, dbqueue.Exec(query, args...))
	}
	if _, err := s.Queue.Submit(ctx, stmts...); err != nil {
		return fmt.Errorf("failed to map tags to gallery %d: %w", g.ID, err)
	}
	return nil
}

// ReplaceTags deletes the gallery's association rows and re-adds the
// given map. Mapping, tag and namespace rows stay in place even when this
// orphans them; they are shared across galleries and this core does not
// garbage-collect them.
func (s *Repository) ReplaceTags(ctx context.Context, galleryID int64, tags map[string][]string) error {
	if galleryID <= 0 {
		return fmt.Errorf("invalid gallery id %d", galleryID)
	}
	if _, err := s.Queue.Submit(ctx,
		dbqueue.Exec("DELETE FROM series_tags_map WHERE series_id=?", galleryID)); err != nil {
		return fmt.Errorf("failed to clear tag associations for gallery %d: %w", galleryID, err)
	}

	weak := &shared.Gallery{ID: galleryID, Tags: tags}
	return s.AddTags(ctx, weak)
}

// GetTags returns the gallery's tags grouped by namespace. A namespace
// key is present only when at least one tag resolves under it.
func (s *Repository) GetTags(ctx context.Context, galleryID int64) (map[string][]string, error) {
	query, args, err := s.Builder.
		Select("namespaces.namespace", "tags.tag").
		From("series_tags_map").
		Join("tags_mappings ON tags_mappings.tags_mappings_id = series_tags_map.tags_mappings_id").
		Join("namespaces ON namespaces.namespace_id = tags_mappings.namespace_id").
		Join("tags ON tags.tag_id = tags_mappings.tag_id").
		Where(squirrel.Eq{"series_tags_map.series_id": galleryID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to query tags for gallery %d: %w", galleryID, err)
	}

	tags := make(map[string][]string)
	for _, row := range res.Rows {
		ns := rowString(row, "namespace")
		tag := rowString(row, "tag")
		if ns == "" || tag == "" {
			continue
		}
		tags[ns] = append(tags[ns], tag)
	}
	return tags, nil
}

// GetAllTags returns every tag in the store.
func (s *Repository) GetAllTags(ctx context.Context) ([]string, error) {
	return s.stringColumn(ctx, "tags", "tag")
}

// GetAllNamespaces returns every namespace in the store.
func (s *Repository) GetAllNamespaces(ctx context.Context) ([]string, error) {
	return s.stringColumn(ctx, "namespaces", "namespace")
}

// DeleteTags removes the tag rows with the given ids together with every
// mapping and association row that references them. Intentionally not
// implemented in this scope.
func (s *Repository) DeleteTags(ctx context.Context, tagIDs []int64) error {
	return shared.ErrNotImplemented
}

// GetGalleriesByTag returns every gallery whose associations contain a
// mapping with exactly the given tag, in any namespace. Intentionally not
// implemented in this scope.
func (s *Repository) GetGalleriesByTag(ctx context.Context, tag string) ([]shared.Gallery, error) {
	return nil, shared.ErrNotImplemented
}

// GetGalleriesByNamespaceTags returns every gallery that carries all of
// the given {namespace: [tags]} pairs. Intentionally not implemented in
// this scope.
func (s *Repository) GetGalleriesByNamespaceTags(ctx context.Context, tags map[string][]string) ([]shared.Gallery, error) {
	return nil, shared.ErrNotImplemented
}

// getOrCreateRow returns the id of the row whose column equals value,
// inserting it first when missing. Lookups are exact matches on the
// normalized value.
func (s *Repository) getOrCreateRow(ctx context.Context, table, column, idColumn, value string) (int64, error) {
	query, args, err := s.Builder.Select(idColumn).
		From(table).
		Where(squirrel.Eq{column: value}).
		Limit(1).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return 0, fmt.Errorf("failed to look up %s %q: %w", column, value, err)
	}
	if len(res.Rows) > 0 {
		return rowInt64(res.Rows[0], idColumn), nil
	}

	query, args, err = s.Builder.Insert(table).Columns(column).Values(value).ToSql()
	if err != nil {
		return 0, err
	}
	ins, err := s.Queue.Submit(ctx, dbqueue.Exec(query, args...))
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s %q: %w", column, value, err)
	}
	return ins.LastInsertID, nil
}

// getOrCreateMapping returns the (namespace, tag) mapping row id,
// creating the row at most once so every gallery using that exact pair
// shares it.
func (s *Repository) getOrCreateMapping(ctx context.Context, namespaceID, tagID int64) (int64, error) {
	query, args, err := s.Builder.Select("tags_mappings_id").
		From("tags_mappings").
		Where(squirrel.Eq{"namespace_id": namespaceID, "tag_id": tagID}).
		Limit(1).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return 0, fmt.Errorf("failed to look up tag mapping: %w", err)
	}
	if len(res.Rows) > 0 {
		return rowInt64(res.Rows[0], "tags_mappings_id"), nil
	}

	query, args, err = s.Builder.Insert("tags_mappings").
		Columns("namespace_id", "tag_id").
		Values(namespaceID, tagID).
		ToSql()
	if err != nil {
		return 0, err
	}
	ins, err := s.Queue.Submit(ctx, dbqueue.Exec(query, args...))
	if err != nil {
		return 0, fmt.Errorf("failed to insert tag mapping: %w", err)
	}
	return ins.LastInsertID, nil
}

func (s *Repository) stringColumn(ctx context.Context, table, column string) ([]string, error) {
	query, args, err := s.Builder.Select(column).From(table).OrderBy(column).ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.Queue.Submit(ctx, dbqueue.Query(query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}

	values := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		values = append(values, rowString(row, column))
	}
	return values, nil
}
