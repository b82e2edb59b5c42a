package migrations

import (
	"context"
	"fmt"

	"github.com/mwantia/poifilters/pkg/db/models"
	"gorm.io/gorm"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          func(*gorm.DB) error
	Down        func(*gorm.DB) error
}

// migrationHistory tracks applied migrations
type migrationHistory struct {
	ID          uint   `gorm:"primaryKey"`
	Version     int    `gorm:"uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	AppliedAt   int64  `gorm:"autoCreateTime"`
}

// Migrator handles database migrations
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: allMigrations(),
	}
}

// Migrate runs all pending migrations
func (m *Migrator) Migrate(ctx context.Context) error {
	// Ensure migration history table exists
	if err := m.db.WithContext(ctx).AutoMigrate(&migrationHistory{}); err != nil {
		return fmt.Errorf("failed to create migration history table: %w", err)
	}

	// Get applied migrations
	var applied []migrationHistory
	if err := m.db.WithContext(ctx).Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to query migration history: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for _, a := range applied {
		appliedVersions[a.Version] = true
	}

	// Run pending migrations
	for _, migration := range m.migrations {
		if appliedVersions[migration.Version] {
			continue
		}

		if err := m.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}
	}

	return m.stamp(ctx)
}

// Latest returns the version of the newest known migration
func (m *Migrator) Latest() int {
	latest := 0
	for _, migration := range m.migrations {
		if migration.Version > latest {
			latest = migration.Version
		}
	}
	return latest
}

// Version reads the schema version stamped into the database header
func (m *Migrator) Version(ctx context.Context) (int, error) {
	var version int
	if err := m.db.WithContext(ctx).Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (m *Migrator) stamp(ctx context.Context) error {
	var last migrationHistory
	err := m.db.WithContext(ctx).Order("version DESC").Limit(1).Find(&last).Error
	if err != nil {
		return fmt.Errorf("failed to query migration history: %w", err)
	}
	// PRAGMA does not accept bound parameters
	stmt := fmt.Sprintf("PRAGMA user_version = %d", last.Version)
	if err := m.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}
	return nil
}

// Rollback rolls back the last applied migration
func (m *Migrator) Rollback(ctx context.Context) error {
	// Get last applied migration
	var last migrationHistory
	if err := m.db.WithContext(ctx).Order("version DESC").First(&last).Error; err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	// Find migration
	var migration *Migration
	for _, m := range m.migrations {
		if m.Version == last.Version {
			migration = &m
			break
		}
	}

	if migration == nil {
		return fmt.Errorf("migration %d not found", last.Version)
	}

	// Run down migration
	if err := migration.Down(m.db.WithContext(ctx)); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	// Remove from history
	if err := m.db.WithContext(ctx).Delete(&last).Error; err != nil {
		return fmt.Errorf("failed to update migration history: %w", err)
	}

	return m.stamp(ctx)
}

// Status returns migration status
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	var applied []migrationHistory
	if err := m.db.WithContext(ctx).Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for _, a := range applied {
		appliedVersions[a.Version] = true
	}

	var statuses []MigrationStatus
	for _, migration := range m.migrations {
		statuses = append(statuses, MigrationStatus{
			Version:     migration.Version,
			Description: migration.Description,
			Applied:     appliedVersions[migration.Version],
		})
	}

	return statuses, nil
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version     int
	Description string
	Applied     bool
}

func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Run migration
		if err := migration.Up(tx); err != nil {
			return err
		}

		// Record in history
		history := migrationHistory{
			Version:     migration.Version,
			Description: migration.Description,
		}
		return tx.Create(&history).Error
	})
}

// legacyFilterIDs are the default filters older releases stored as user filters
var legacyFilterIDs = []string{
	"user_car_aid",
	"user_for_tourists",
	"user_food_shop",
	"user_fuel",
	"user_sightseeing",
	"user_emergency",
	"user_public_transport",
	"user_accomodation",
	"user_restaurants",
	"user_parking",
}

// allMigrations returns all migrations in order
func allMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create filter tables",
			Up: func(db *gorm.DB) error {
				for _, stmt := range []string{
					"CREATE TABLE IF NOT EXISTS poi_filters (name TEXT, id TEXT, filterbyname TEXT)",
					"CREATE TABLE IF NOT EXISTS categories (filter_id TEXT, category TEXT, subcategory TEXT)",
					"CREATE INDEX IF NOT EXISTS idx_categories_filter ON categories (filter_id)",
				} {
					if err := db.Exec(stmt).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&models.Category{}, &models.Filter{})
			},
		},
		{
			Version:     2,
			Description: "Purge legacy default filters",
			Up: func(db *gorm.DB) error {
				if err := db.Where("filter_id IN ?", legacyFilterIDs).Delete(&models.Category{}).Error; err != nil {
					return err
				}
				return db.Where("id IN ?", legacyFilterIDs).Delete(&models.Filter{}).Error
			},
			Down: func(db *gorm.DB) error {
				return nil
			},
		},
	}
}
