package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nestlock/nestlock/internal/core"
)

// SQLiteGrantStore persists grant records with GORM so they survive restarts.
type SQLiteGrantStore struct {
	db *gorm.DB
}

var _ core.GrantStore = (*SQLiteGrantStore)(nil)

// SQLiteOptions are the driver options for the sqlite store type.
type SQLiteOptions struct {
	// Path to the database file, e.g. "grants.db".
	Path string `mapstructure:"path"`
}

func NewSQLiteGrantStore(opts SQLiteOptions) (*SQLiteGrantStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("path is required for sqlite store")
	}

	db, err := gorm.Open(sqlite.Open(opts.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&core.GrantRecord{}); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteGrantStore{db: db}, nil
}

func (s *SQLiteGrantStore) Save(ctx context.Context, rec core.GrantRecord) error {
	// Save upserts on the primary key, matching the 1:1 transaction mapping.
	return s.db.WithContext(ctx).Save(&rec).Error
}

func (s *SQLiteGrantStore) Get(ctx context.Context, transactionID string) (*core.GrantRecord, error) {
	var rec core.GrantRecord
	result := s.db.WithContext(ctx).First(&rec, "transaction_id = ?", transactionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, core.ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &rec, nil
}

func (s *SQLiteGrantStore) SetRevoked(ctx context.Context, transactionID string, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&core.GrantRecord{}).
		Where("transaction_id = ?", transactionID).
		Update("revoked_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

func (s *SQLiteGrantStore) ListActive(ctx context.Context, now time.Time) ([]core.GrantRecord, error) {
	var records []core.GrantRecord
	result := s.db.WithContext(ctx).
		Where("revoked_at IS NULL AND end_date > ?", now).
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (s *SQLiteGrantStore) ListExpired(ctx context.Context, now time.Time) ([]core.GrantRecord, error) {
	var records []core.GrantRecord
	result := s.db.WithContext(ctx).
		Where("revoked_at IS NULL AND end_date <= ?", now).
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (s *SQLiteGrantStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("revoked_at <= ? OR (revoked_at IS NULL AND end_date <= ?)", cutoff, cutoff).
		Delete(&core.GrantRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *SQLiteGrantStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
