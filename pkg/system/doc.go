// Package system holds the logging plumbing shared by the mailqueue
// commands: a registry of named zap loggers with attachable console
// handlers, and test helpers.
package system
