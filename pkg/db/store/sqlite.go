package store

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/poifilters/pkg/db/migrations"
	"github.com/mwantia/poifilters/pkg/db/models"
	"github.com/mwantia/poifilters/pkg/log"
	"github.com/mwantia/poifilters/pkg/poi"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements FilterStore using SQLite
type SQLiteStore struct {
	db       *gorm.DB
	path     string
	taxonomy poi.Taxonomy
	log      log.LoggerService
	ready    atomic.Bool
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration. Taxonomy and Logger can
// be injected by a fabric service container.
type SQLiteConfig struct {
	Path         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
	// Taxonomy resolves category names read back from the database. Optional.
	Taxonomy poi.Taxonomy     `fabric:"inject"`
	Logger   log.LoggerService `fabric:"logger:store"`
}

// NewSQLiteStore creates a new SQLite-backed filter store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: newGormLogger(cfg.Logger, cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	cfg.Logger.Debug("Opened sqlite database '%s' (query log %s)", cfg.Path, levelName(cfg.LogLevel))
	return &SQLiteStore{
		db:       db,
		path:     cfg.Path,
		taxonomy: cfg.Taxonomy,
		log:      cfg.Logger,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}

	s.ready.Store(true)
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.ready.Store(false)

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if !s.ready.Load() {
		return poi.ErrUnavailable
	}
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	if !s.ready.Load() {
		return poi.ErrUnavailable
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Version returns the schema version stamped by the last migration
func (s *SQLiteStore) Version(ctx context.Context) (int, error) {
	if !s.ready.Load() {
		return 0, poi.ErrUnavailable
	}
	return migrations.NewMigrator(s.db).Version(ctx)
}

// Filter operations

func (s *SQLiteStore) CreateFilter(ctx context.Context, filter *poi.Filter) error {
	if !s.ready.Load() {
		return poi.ErrUnavailable
	}
	if err := filter.CheckStorable(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Filter{}).Where("id = ?", filter.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("filter '%s': %w", filter.ID, poi.ErrExists)
		}

		row := models.Filter{
			Name:         filter.Name,
			ID:           filter.ID,
			FilterByName: filter.FilterByName,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		return insertCategories(tx, filter)
	})
}

func (s *SQLiteStore) EditFilter(ctx context.Context, filter *poi.Filter) error {
	if !s.ready.Load() {
		return poi.ErrUnavailable
	}
	if err := filter.CheckStorable(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("filter_id = ?", filter.ID).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		if err := insertCategories(tx, filter); err != nil {
			return err
		}

		result := tx.Model(&models.Filter{}).Where("id = ?", filter.ID).Updates(map[string]any{
			"name":         filter.Name,
			"filterbyname": filter.FilterByName,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Rolls back the category rows written above.
			return fmt.Errorf("filter '%s': %w", filter.ID, poi.ErrNotFound)
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteFilter(ctx context.Context, id string) error {
	if !s.ready.Load() {
		return poi.ErrUnavailable
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.Filter{})
		if result.Error != nil {
			return result.Error
		}
		if err := tx.Where("filter_id = ?", id).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("filter '%s': %w", id, poi.ErrNotFound)
		}
		return nil
	})
}

// LoadFilters reads every stored filter. Filters without any category row are skipped.
func (s *SQLiteStore) LoadFilters(ctx context.Context) ([]*poi.Filter, error) {
	if !s.ready.Load() {
		return nil, poi.ErrUnavailable
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	grouped := make(map[string]poi.AcceptedTypes)
	for _, c := range categories {
		types, ok := grouped[c.FilterID]
		if !ok {
			types = poi.AcceptedTypes{}
			grouped[c.FilterID] = types
		}

		key := s.categoryKey(c.Category)
		if c.Subcategory == nil {
			types[key] = nil
			continue
		}
		sub, exists := types[key]
		if exists && sub == nil {
			continue
		}
		if sub == nil {
			sub = poi.SubTypes{}
			types[key] = sub
		}
		sub[*c.Subcategory] = struct{}{}
	}

	var rows []models.Filter
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query filters: %w", err)
	}

	filters := make([]*poi.Filter, 0, len(rows))
	for _, row := range rows {
		types, ok := grouped[row.ID]
		if !ok {
			s.log.With("filter", row.ID).Warn("Skipping filter without categories")
			continue
		}
		filters = append(filters, &poi.Filter{
			ID:            row.ID,
			Name:          row.Name,
			AcceptedTypes: types,
			FilterByName:  row.FilterByName,
		})
	}

	return filters, nil
}

func (s *SQLiteStore) categoryKey(name string) string {
	key := strings.ToLower(name)
	if s.taxonomy == nil {
		return key
	}
	if c, ok := s.taxonomy.CategoryByName(key); ok {
		return c.Key
	}
	return key
}

// insertCategories writes one row per accepted subtype, or a single row with a
// null subcategory for a whole category. Category keys are stored lowercased.
func insertCategories(tx *gorm.DB, filter *poi.Filter) error {
	accepted := filter.AcceptedTypes.Normalize()

	var rows []models.Category
	for _, category := range accepted.Categories() {
		sub := accepted[category]
		if sub == nil {
			rows = append(rows, models.Category{FilterID: filter.ID, Category: category})
			continue
		}
		for _, key := range sub.Keys() {
			rows = append(rows, models.Category{FilterID: filter.ID, Category: category, Subcategory: &key})
		}
	}

	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert categories: %w", err)
	}
	return nil
}
