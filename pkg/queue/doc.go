// Package queue persists outbound mail in PostgreSQL through gorm: the
// messages themselves, their queue entries (with the deferred marker) and
// a log of send results.
package queue
