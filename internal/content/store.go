// Package content is the primary content store: published posts and their
// engagement counters, kept in SQLite through gorm.
package content

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"goflare.io/broker/internal/models"
)

var ErrMissingTitle = errors.New("post title is required")

type Store struct {
	db          *gorm.DB
	getDatabase func(ctx context.Context) (*gorm.DB, error)
	logger      *zap.Logger
}

// Open connects to the SQLite database at dsn.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=wal",
		"PRAGMA busy_timeout=30000",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return NewStore(db, log), nil
}

func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:          db,
		getDatabase: createGetDatabase(db),
		logger:      log,
	}
}

func createGetDatabase(db *gorm.DB) func(ctx context.Context) (*gorm.DB, error) {
	var (
		migrateOnce sync.Once
		migrateErr  error
	)

	return func(ctx context.Context) (*gorm.DB, error) {
		migrateOnce.Do(func() {
			if err := db.AutoMigrate(&Post{}); err != nil {
				migrateErr = errors.WithStack(err)
				return
			}
		})
		if migrateErr != nil {
			return nil, errors.WithStack(migrateErr)
		}

		return db.WithContext(ctx), nil
	}
}

// Published returns up to limit published posts, newest first.
func (s *Store) Published(ctx context.Context, limit int) ([]models.Item, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var posts []Post
	err = db.Where("status = ?", StatusPublished).
		Order("published_at desc").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}

	items := make([]models.Item, 0, len(posts))
	for i := range posts {
		items = append(items, posts[i].toItem())
	}
	return items, nil
}

// Item returns one published post.
func (s *Store) Item(ctx context.Context, id string) (models.Item, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return models.Item{}, errors.WithStack(err)
	}

	var post Post
	if err := db.First(&post, "id = ? and status = ?", id, StatusPublished).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Item{}, errors.WithStack(models.ErrNotFound)
		}
		return models.Item{}, errors.WithStack(err)
	}
	return post.toItem(), nil
}

// SavePost inserts or replaces a post, assigning an ID and slug when missing.
func (s *Store) SavePost(ctx context.Context, post *Post) error {
	if post.Title == "" {
		return errors.WithStack(ErrMissingTitle)
	}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title) + "-" + shortID(post.ID)
	}
	if post.Status == "" {
		post.Status = StatusDraft
	}
	if post.Status == StatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
	if post.PublishedAt != nil {
		// stored as text; one zone keeps ordering lexical
		utc := post.PublishedAt.UTC()
		post.PublishedAt = &utc
	}

	return s.withRetry(ctx, func(db *gorm.DB) error {
		return db.Save(post).Error
	}, sqlite3.BUSY, sqlite3.LOCKED)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RecordEngagement adds to a post's counters.
func (s *Store) RecordEngagement(ctx context.Context, id string, views, comments, shares int64) error {
	return s.withRetry(ctx, func(db *gorm.DB) error {
		res := db.Model(&Post{}).Where("id = ?", id).Updates(map[string]any{
			"views":    gorm.Expr("views + ?", views),
			"comments": gorm.Expr("comments + ?", comments),
			"shares":   gorm.Expr("shares + ?", shares),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(sqlDB.PingContext(ctx))
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(sqlDB.Close())
}

func (s *Store) withRetry(ctx context.Context, fn func(db *gorm.DB) error, codes ...sqlite3.ErrorCode) error {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	backoff := 50 * time.Millisecond
	maxRetries := 5
	retries := 0

	for {
		err := db.Transaction(fn)
		if err == nil {
			return nil
		}

		var sqliteErr *sqlite3.Error
		if retries >= maxRetries || !errors.As(err, &sqliteErr) || !slices.Contains(codes, sqliteErr.Code()) {
			return errors.WithStack(err)
		}

		s.logger.Debug("Transaction failed, will retry",
			zap.Int("retries", retries),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		retries++
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
