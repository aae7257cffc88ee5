package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the relational row backing DatabaseStore
type Entry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name used by GORM
func (Entry) TableName() string {
	return "cache_entries"
}

// DatabaseStore implements Store on the primary SQL database. It exists for
// deployments without a Redis-compatible server; counters are serialized
// through row-level locks, so it trades throughput for having no extra
// infrastructure.
type DatabaseStore struct {
	db    *gorm.DB
	clock func() time.Time
}

var _ Store = (*DatabaseStore)(nil)

// NewDatabaseStore creates a database-backed store, migrating its table
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, classifyDBErr(err)
	}

	return &DatabaseStore{db: db, clock: time.Now}, nil
}

// Get retrieves a value by key, respecting expiry
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classifyDBErr(err)
	}

	if !entry.ExpiresAt.IsZero() && s.clock().After(entry.ExpiresAt) {
		// Lazy cleanup; a failed delete still reads as a miss
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Set upserts the value for a key with expiry
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiry := time.Time{}
	if ttl > 0 {
		expiry = s.clock().Add(ttl)
	}

	entry := Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiry,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&entry).Error
	if err != nil {
		return classifyDBErr(err)
	}

	return nil
}

// Delete removes a key
func (s *DatabaseStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error
	if err != nil {
		return classifyDBErr(err)
	}

	return nil
}

// IncrBy increments the counter at key inside a row-locked transaction.
// The expiry is written only when the counter is created or revived after
// expiring; increments within a live window never move it.
func (s *DatabaseStore) IncrBy(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	now := s.clock()

	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry Entry
		// Acquire row-level lock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&entry, "key = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			count = amount
			entry = Entry{
				Key:   key,
				Value: []byte(strconv.FormatInt(count, 10)),
			}
			if ttl > 0 {
				entry.ExpiresAt = now.Add(ttl)
			}
			return tx.Create(&entry).Error
		}
		if err != nil {
			return err
		}

		if !entry.ExpiresAt.IsZero() && now.After(entry.ExpiresAt) {
			count = amount
			entry.ExpiresAt = time.Time{}
			if ttl > 0 {
				entry.ExpiresAt = now.Add(ttl)
			}
		} else {
			current, perr := strconv.ParseInt(string(entry.Value), 10, 64)
			if perr != nil {
				return wrapError(ErrProtocol, perr)
			}
			count = current + amount
		}
		entry.Value = []byte(strconv.FormatInt(count, 10))

		return tx.Save(&entry).Error
	})
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			return 0, err
		}
		return 0, classifyDBErr(err)
	}

	return count, nil
}

// Ping verifies the database is reachable
func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return classifyDBErr(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return classifyDBErr(err)
	}

	return nil
}

// Close closes the underlying database connection
func (s *DatabaseStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// classifyDBErr maps a database error into the package taxonomy
func classifyDBErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return wrapError(ErrOperationTimeout, err)
	}
	return wrapError(ErrConnectionUnavailable, err)
}
