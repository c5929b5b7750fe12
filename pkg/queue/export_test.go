package queue

import (
	"context"
)

// Truncate empties the queue tables.
func (s *Store) Truncate(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec(
		"TRUNCATE TABLE mailqueue_log, mailqueue_queuedmessage, mailqueue_message RESTART IDENTITY CASCADE",
	).Error
}

// DropTables removes the queue tables.
func (s *Store) DropTables(ctx context.Context) error {
	return s.db.WithContext(ctx).Migrator().DropTable(&LogEntry{}, &QueuedMessage{}, &Message{})
}
