package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/telekom/mailqueue/pkg/drain"
	"github.com/telekom/mailqueue/pkg/metrics"
)

func NewSendMailCommand() *cobra.Command {
	var opts drain.Options

	cmd := &cobra.Command{
		Use:   "send-mail",
		Short: "Iterate the mail queue, attempting to send all mail",
		Long: `Iterate the mail queue, attempting to send all mail.

Messages are loaded in blocks so that mail queued while the queue is being
cleared is picked up before the run ends. With --count only the number of
queued and deferred messages is printed. Setting mailer.pauseSend (or
MAILQUEUE_PAUSE_SEND=true) turns the run into a no-op that logs a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			cfg, err := rt.Config()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("block-size") {
				opts.BlockSize = cfg.Mailer.BlockSize
			}
			if !opts.Count && opts.BlockSize < 1 {
				return fmt.Errorf("%w, got %d", drain.ErrInvalidBlockSize, opts.BlockSize)
			}
			opts.PauseSend = cfg.Mailer.PauseSend

			backend, err := rt.backend(cmd.Context(), *cfg, rt.registry)
			if err != nil {
				return fmt.Errorf("open mail queue: %w", err)
			}

			run := &drain.Command{
				Counter:  backend.Counter,
				Loop:     backend.Loop,
				Conn:     backend.Conn,
				Registry: rt.registry,
				Out:      rt.Writer(),
				Console:  zapcore.AddSync(rt.ErrWriter()),
			}
			runErr := run.Run(cmd.Context(), opts)

			if err := metrics.WriteTextfile(rt.metricsTextfile); err != nil && runErr == nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().IntVarP(&opts.BlockSize, "block-size", "b", drain.DefaultBlockSize,
		"The number of messages to iterate before checking the queue again "+
			"(in case new messages have been added while the queue is being cleared)")
	cmd.Flags().BoolVarP(&opts.Count, "count", "c", false,
		"Return the number of messages in the queue (without actually sending any)")
	cmd.Flags().IntVarP(&opts.Verbosity, "verbosity", "v", 1,
		"Console log level: 0 errors, 1 warnings, 2 everything")

	return cmd
}
