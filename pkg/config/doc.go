// Package config loads the mailqueue configuration: the pause switch and
// default block size of the send-mail command, the SMTP relay, and the
// database holding the queue. Values come from a YAML file and can be
// overridden through MAILQUEUE_* environment variables.
package config
