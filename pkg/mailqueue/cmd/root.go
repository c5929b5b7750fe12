package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/telekom/mailqueue/pkg/config"
	"github.com/telekom/mailqueue/pkg/drain"
	"github.com/telekom/mailqueue/pkg/mail"
	"github.com/telekom/mailqueue/pkg/queue"
	"github.com/telekom/mailqueue/pkg/system"
)

// Backend bundles the collaborators a send-mail run works against.
type Backend struct {
	Counter drain.Counter
	Loop    drain.SendLoop
	Conn    io.Closer
}

// BackendFactory opens the queue described by cfg. Loggers for the
// collaborators come from reg so that the run's console handler sees them.
type BackendFactory func(ctx context.Context, cfg config.Config, reg *system.Registry) (*Backend, error)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	ErrWriter    io.Writer
	// BaseContext is the parent of every command context, typically one
	// canceled on SIGTERM.
	BaseContext context.Context
	Backend     BackendFactory
}

type runtimeState struct {
	configPath      string
	metricsTextfile string
	cfg             *config.Config
	writer          io.Writer
	errWriter       io.Writer
	backend         BackendFactory
	registry        *system.Registry
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   os.Getenv("MAILQUEUE_CONFIG"),
		OutputWriter: os.Stdout,
		ErrWriter:    os.Stderr,
		Backend:      OpenBackend,
	}
}

// OpenBackend connects to the PostgreSQL queue and wires the gomail sender
// and the send loop to it. The store doubles as the connection to close.
func OpenBackend(ctx context.Context, cfg config.Config, reg *system.Registry) (*Backend, error) {
	store, err := queue.Connect(ctx, cfg.Database.DSN, reg.Logger("queue"))
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	sender := mail.NewSender(cfg.Mail, reg.Logger("smtp"))
	return &Backend{
		Counter: store,
		Loop:    mail.NewEngine(store, sender, reg.Logger("engine")),
		Conn:    store,
	}, nil
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		writer:     cfg.OutputWriter,
		errWriter:  cfg.ErrWriter,
		backend:    cfg.Backend,
		registry:   system.NewRegistry(),
	}
	// Collaborators log while the backend is opened, before send-mail
	// attaches its console handler.
	rt.registry.SetFallback(system.NewConsoleCore(1, zapcore.AddSync(rt.ErrWriter())))

	root := &cobra.Command{
		Use:           "mailqueue",
		Short:         "Outbound mail queue tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.metricsTextfile == "" {
				rt.metricsTextfile = os.Getenv("MAILQUEUE_METRICS_TEXTFILE")
			}
			if rt.backend == nil {
				rt.backend = OpenBackend
			}
			// version works without any configuration
			if cmd.Name() == "version" {
				return nil
			}
			loaded, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			rt.cfg = &loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file (default "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&rt.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	parent := cfg.BaseContext
	if parent == nil {
		parent = context.Background()
	}
	root.SetContext(context.WithValue(parent, runtimeKey{}, rt))

	root.AddCommand(
		NewSendMailCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) ErrWriter() io.Writer {
	if rt.errWriter != nil {
		return rt.errWriter
	}
	return os.Stderr
}

func (rt *runtimeState) Config() (*config.Config, error) {
	if rt.cfg == nil {
		return nil, fmt.Errorf("config not loaded from %q", rt.configPath)
	}
	return rt.cfg, nil
}
