// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package queue

import "time"

// Priorities; lower values are sent first.
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// Send results recorded in the log.
const (
	ResultSent   = 1
	ResultFailed = 3
)

// Message is an outbound email. It outlives its queue entry so that log
// rows keep a reference.
type Message struct {
	ID          uint64 `gorm:"primaryKey"`
	ToAddress   string `gorm:"size:254;not null"`
	FromAddress string `gorm:"size:254;not null;default:''"`
	Subject     string `gorm:"size:255;not null;default:''"`
	Body        string `gorm:"type:text;not null;default:''"`
	ContentType string `gorm:"size:64;not null;default:'text/plain'"`
	CreatedAt   time.Time
}

func (Message) TableName() string { return "mailqueue_message" }

// QueuedMessage is a Message waiting for a delivery attempt. A non-nil
// Deferred marks an entry that failed and is held back.
type QueuedMessage struct {
	ID        uint64     `gorm:"primaryKey"`
	MessageID uint64     `gorm:"not null;uniqueIndex"`
	Message   Message    `gorm:"constraint:OnDelete:CASCADE"`
	Priority  int        `gorm:"not null;default:2;index"`
	Deferred  *time.Time `gorm:"index"`
	Retries   int        `gorm:"not null;default:0"`
	QueuedAt  time.Time  `gorm:"not null;autoCreateTime"`
}

func (QueuedMessage) TableName() string { return "mailqueue_queuedmessage" }

// IsDeferred reports whether the entry is held back.
func (q QueuedMessage) IsDeferred() bool { return q.Deferred != nil }

// LogEntry records the outcome of one send attempt.
type LogEntry struct {
	ID        uint64    `gorm:"primaryKey"`
	MessageID uint64    `gorm:"not null;index"`
	Result    int       `gorm:"not null"`
	Detail    string    `gorm:"type:text;not null;default:''"`
	LoggedAt  time.Time `gorm:"not null;autoCreateTime"`
}

func (LogEntry) TableName() string { return "mailqueue_log" }
