// Package drain implements the send-mail run: report the queue depth, or
// attach a console handler, honour the pause switch, hand the queue to the
// send loop once, and release the database handle.
package drain
