// Package cmd implements the cobra command tree of the mailqueue CLI:
// send-mail, which drains or counts the outbound queue, and version.
package cmd
