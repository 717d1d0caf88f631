// filepath: internal/repository/utils.go
package repository

import (
	"time"

	"gallerybase/internal/dbqueue"
	"gallerybase/internal/shared"
)

// timeFormat is how timestamps are stored in the TEXT columns.
const timeFormat = time.RFC3339

// timeArg converts a time into its storage form; the zero time becomes
// NULL.
func timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeFormat)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Row accessors. Materialized rows hold int64 for INTEGER columns and
// string for TEXT/BLOB columns; anything absent or NULL maps to the zero
// value.

func rowString(row dbqueue.Row, col string) string {
	if v, ok := row[col].(string); ok {
		return v
	}
	return ""
}

func rowInt64(row dbqueue.Row, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func rowBool(row dbqueue.Row, col string) bool {
	return rowInt64(row, col) != 0
}

func rowTime(row dbqueue.Row, col string) time.Time {
	s := rowString(row, col)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// galleryFromRow maps a series row onto a Gallery. Chapters, tags and
// hashes are hydrated separately by the gallery store.
func galleryFromRow(row dbqueue.Row) *shared.Gallery {
	g := shared.NewGallery()
	g.ID = rowInt64(row, "series_id")
	g.Title = rowString(row, "title")
	g.Artist = rowString(row, "artist")
	g.Profile = rowString(row, "profile")
	g.Path = rowString(row, "series_path")
	g.Info = rowString(row, "info")
	g.Type = rowString(row, "type")
	g.Language = rowString(row, "language")
	g.Status = shared.ParseStatus(rowString(row, "status"))
	g.Fav = rowBool(row, "fav")
	g.Link = rowString(row, "link")
	g.PubDate = rowTime(row, "pub_date")
	g.DateAdded = rowTime(row, "date_added")
	g.LastRead = rowTime(row, "last_read")
	g.LastUpdate = rowTime(row, "last_update")
	g.TimesRead = int(rowInt64(row, "times_read"))
	g.DBVersion = int(rowInt64(row, "db_v"))
	g.Enriched = rowBool(row, "exed")
	return g
}
