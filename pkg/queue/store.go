// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

// ErrNotFound is returned when a queue entry vanished before it could be
// updated, typically because another process already handled it.
var ErrNotFound = errors.New("queued message not found")

// Store wraps the gorm handle of the queue database.
type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// Connect opens the PostgreSQL database at dsn and verifies it is reachable.
func Connect(ctx context.Context, dsn string, log *zap.SugaredLogger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("queue database dsn is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, log), nil
}

// New wraps an already opened gorm handle.
func New(db *gorm.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{db: db, log: log}
}

// Migrate creates or updates the queue tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Message{}, &QueuedMessage{}, &LogEntry{}); err != nil {
		return fmt.Errorf("migrate queue tables: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool. Closing explicitly keeps
// PostgreSQL from logging "unexpected EOF on client connection".
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) nonDeferred(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&QueuedMessage{}).Where("deferred IS NULL")
}

// CountNonDeferred counts entries that are ready for a send attempt.
func (s *Store) CountNonDeferred(ctx context.Context) (int64, error) {
	var n int64
	if err := s.nonDeferred(ctx).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count queued messages: %w", err)
	}
	return n, nil
}

// CountDeferred counts entries held back after a failed send.
func (s *Store) CountDeferred(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&QueuedMessage{}).Where("deferred IS NOT NULL").Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count deferred messages: %w", err)
	}
	return n, nil
}

// NonDeferredBlock returns up to limit ready entries with their messages,
// highest priority and oldest first.
func (s *Store) NonDeferredBlock(ctx context.Context, limit int) ([]QueuedMessage, error) {
	var block []QueuedMessage
	err := s.nonDeferred(ctx).
		Preload("Message").
		Order("priority ASC").
		Order("queued_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&block).
		Error
	if err != nil {
		return nil, fmt.Errorf("load queued block: %w", err)
	}
	return block, nil
}

// Enqueue stores msg and queues it with the given priority. It is the
// producer side of the queue, used by applications that hand mail to it;
// the send-mail command itself never enqueues.
func (s *Store) Enqueue(ctx context.Context, msg Message, priority int) (*QueuedMessage, error) {
	qm := QueuedMessage{Message: msg, Priority: priority}
	if err := s.db.WithContext(ctx).Create(&qm).Error; err != nil {
		return nil, fmt.Errorf("enqueue message to %s: %w", msg.ToAddress, err)
	}
	s.log.Debugw("Message queued", "id", qm.ID, "messageID", qm.MessageID, "priority", priority)
	return &qm, nil
}

// Remove deletes the queue entry after a successful send. The message row
// is kept for the log.
func (s *Store) Remove(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).Delete(&QueuedMessage{}, id)
	if result.Error != nil {
		return fmt.Errorf("remove queued message %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("remove queued message %d: %w", id, ErrNotFound)
	}
	return nil
}

// Defer marks the entry as deferred at the given time and counts the retry.
func (s *Store) Defer(ctx context.Context, id uint64, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&QueuedMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deferred": at,
			"retries":  gorm.Expr("retries + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("defer queued message %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("defer queued message %d: %w", id, ErrNotFound)
	}
	return nil
}

// RecordResult appends a log row for one send attempt.
func (s *Store) RecordResult(ctx context.Context, messageID uint64, result int, detail string) error {
	entry := LogEntry{MessageID: messageID, Result: result, Detail: detail}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record result for message %d: %w", messageID, err)
	}
	return nil
}
