// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package drain

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap/zapcore"

	"github.com/telekom/mailqueue/pkg/config"
	"github.com/telekom/mailqueue/pkg/mail"
	"github.com/telekom/mailqueue/pkg/metrics"
	"github.com/telekom/mailqueue/pkg/system"
)

// DefaultBlockSize is the number of messages sent before the queue is
// checked again for newly arrived mail.
const DefaultBlockSize = 500

// PausedMessage is logged instead of sending when the pause switch is on.
const PausedMessage = "Sending is paused, exiting without sending queued mail."

// ErrInvalidBlockSize is returned for a block size below one, whether it
// came from the command line or from configuration.
var ErrInvalidBlockSize = config.ErrInvalidBlockSize

// Counter reports queue depth.
type Counter interface {
	CountNonDeferred(ctx context.Context) (int64, error)
	CountDeferred(ctx context.Context) (int64, error)
}

// SendLoop drains the queue in blocks of blockSize.
type SendLoop interface {
	SendAll(ctx context.Context, blockSize int) (mail.Result, error)
}

// Options are the per-invocation inputs of a run.
type Options struct {
	BlockSize int
	Count     bool
	Verbosity int
	// PauseSend comes from configuration and is passed in per run.
	PauseSend bool
}

// Command is one send-mail invocation wired to its collaborators.
type Command struct {
	Counter  Counter
	Loop     SendLoop
	Conn     io.Closer
	Registry *system.Registry
	// Out receives the count report.
	Out io.Writer
	// Console receives log lines while the handler is attached.
	Console zapcore.WriteSyncer
}

// Run executes one invocation. The database handle is closed exactly once
// before Run returns, whichever branch was taken; a close error is only
// reported when nothing else failed.
func (c *Command) Run(ctx context.Context, opts Options) (err error) {
	defer func() {
		if c.Conn == nil {
			return
		}
		if cerr := c.Conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close queue database: %w", cerr)
		}
	}()

	if opts.Count {
		return c.report(ctx)
	}

	if opts.BlockSize < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidBlockSize, opts.BlockSize)
	}

	remove := c.Registry.AddHandler(system.RootLoggerName, system.NewConsoleCore(opts.Verbosity, c.Console))
	defer remove()

	if opts.PauseSend {
		c.Registry.Logger("commands.send_mail").Warn(PausedMessage)
		metrics.SendPaused.Inc()
		return nil
	}

	res, err := c.Loop.SendAll(ctx, opts.BlockSize)
	if err != nil {
		return fmt.Errorf("send queued mail: %w", err)
	}
	c.Registry.Logger("commands.send_mail").Debugw("Send pass finished", "sent", res.Sent, "deferred", res.Deferred)
	return nil
}

func (c *Command) report(ctx context.Context) error {
	queued, err := c.Counter.CountNonDeferred(ctx)
	if err != nil {
		return err
	}
	deferred, err := c.Counter.CountDeferred(ctx)
	if err != nil {
		return err
	}
	metrics.QueueMessages.WithLabelValues("queued").Set(float64(queued))
	metrics.QueueMessages.WithLabelValues("deferred").Set(float64(deferred))

	_, err = fmt.Fprintln(c.Out, Summary(queued, deferred))
	return err
}

// Summary renders the count report line, e.g.
// "1 queued message (and 3 deferred messages).".
func Summary(queued, deferred int64) string {
	return fmt.Sprintf("%d queued message%s (and %d deferred message%s).",
		queued, plural(queued), deferred, plural(deferred))
}

func plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}
