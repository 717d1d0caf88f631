// Package repository implements the gallery, chapter, tag and hash stores
// over the single-writer work queue. The queue worker is the only thread
// touching the storage engine; the stores themselves do no locking.
package repository

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"gallerybase/internal/config"
	"gallerybase/internal/dbqueue"
	"gallerybase/internal/imghash"
	"gallerybase/internal/thumb"
)

// Repository bundles the work-queue handle with the collaborators the
// stores depend on. It is safe for use from many goroutines.
type Repository struct {
	Queue   *dbqueue.Queue
	Cache   *cache.Cache
	Builder squirrel.StatementBuilderType // SQL Query Builder
	Logger  *logrus.Logger

	Thumbs  *thumb.Generator
	Hasher  imghash.Hasher
	TempDir string // root for archive extraction dirs
}

// NewRepository opens the database behind a fresh work queue and wires up
// the default collaborators.
func NewRepository(cfg *config.Config, logger *logrus.Logger) (*Repository, error) {
	queue, err := dbqueue.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	return &Repository{
		Queue:   queue,
		Cache:   cache.New(5*time.Minute, 10*time.Minute),
		Builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		Logger:  logger,
		Thumbs: &thumb.Generator{
			Width:       cfg.Library.ThumbWidth,
			Height:      cfg.Library.ThumbHeight,
			CacheDir:    cfg.Library.ThumbnailDir,
			Placeholder: cfg.Library.NoImagePath,
			Timeout:     time.Duration(cfg.Library.ThumbTimeoutMS) * time.Millisecond,
			Logger:      logger,
		},
		Hasher:  imghash.SHA1{},
		TempDir: cfg.Library.TempDir,
	}, nil
}

// DB exposes the underlying handle for goose and tests only.
func (s *Repository) DB() *sql.DB {
	return s.Queue.DB()
}

// Close drains the work queue and closes the database.
func (s *Repository) Close() error {
	return s.Queue.Close()
}
