// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RootLoggerName is the name every mailqueue logger descends from.
const RootLoggerName = "mailqueue"

// Registry hands out named loggers and routes their entries to the handlers
// currently attached to a matching name prefix. Handlers can be added and
// removed while loggers are in use; a logger without any matching handler
// falls back to the last-resort core, which prints warnings and errors.
type Registry struct {
	mu       sync.RWMutex
	handlers map[uint64]handler
	nextID   uint64
	fallback zapcore.Core
}

type handler struct {
	prefix string
	core   zapcore.Core
}

// NewRegistry returns an empty registry whose last-resort core writes
// warnings and errors to stderr.
func NewRegistry() *Registry {
	return &Registry{
		handlers: map[uint64]handler{},
		fallback: NewConsoleCore(1, zapcore.Lock(os.Stderr)),
	}
}

// SetFallback replaces the last-resort core. It receives the entries of
// loggers that no attached handler covers. A nil core drops them.
func (r *Registry) SetFallback(core zapcore.Core) {
	r.mu.Lock()
	r.fallback = core
	r.mu.Unlock()
}

// Logger returns the sugared logger for name, which is relative to
// RootLoggerName ("" is the root itself, "engine" is "mailqueue.engine").
func (r *Registry) Logger(name string) *zap.SugaredLogger {
	l := zap.New(&registryCore{reg: r}).Named(RootLoggerName)
	if name != "" {
		l = l.Named(name)
	}
	return l.Sugar()
}

// AddHandler attaches core to every logger whose full name is prefix or
// lies below it. The returned function detaches it again; calling it more
// than once is harmless.
func (r *Registry) AddHandler(prefix string, core zapcore.Core) (remove func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.handlers[id] = handler{prefix: prefix, core: core}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.handlers, id)
			r.mu.Unlock()
		})
	}
}

// HandlerCount reports how many handlers are attached.
func (r *Registry) HandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func (r *Registry) snapshot() ([]handler, zapcore.Core) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	return out, r.fallback
}

func matchesPrefix(name, prefix string) bool {
	return prefix == "" || name == prefix || strings.HasPrefix(name, prefix+".")
}

// registryCore looks up the attached handlers on every write.
type registryCore struct {
	reg    *Registry
	fields []zapcore.Field
}

func (c *registryCore) Enabled(lvl zapcore.Level) bool {
	handlers, fallback := c.reg.snapshot()
	for _, h := range handlers {
		if h.core.Enabled(lvl) {
			return true
		}
	}
	return fallback != nil && fallback.Enabled(lvl)
}

func (c *registryCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &registryCore{reg: c.reg, fields: merged}
}

func (c *registryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write delivers ent to every matching handler. An entry no handler
// covers goes to the fallback core instead.
func (c *registryCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	handlers, fallback := c.reg.snapshot()

	var err error
	matched := false
	for _, h := range handlers {
		if !matchesPrefix(ent.LoggerName, h.prefix) {
			continue
		}
		matched = true
		if !h.core.Enabled(ent.Level) {
			continue
		}
		err = multierr.Append(err, c.write(h.core, ent, fields))
	}
	if !matched && fallback != nil && fallback.Enabled(ent.Level) {
		err = multierr.Append(err, c.write(fallback, ent, fields))
	}
	return err
}

func (c *registryCore) write(core zapcore.Core, ent zapcore.Entry, fields []zapcore.Field) error {
	if len(c.fields) > 0 {
		core = core.With(c.fields)
	}
	return core.Write(ent, fields)
}

func (c *registryCore) Sync() error {
	handlers, fallback := c.reg.snapshot()
	var err error
	for _, h := range handlers {
		err = multierr.Append(err, h.core.Sync())
	}
	if fallback != nil {
		err = multierr.Append(err, fallback.Sync())
	}
	return err
}

// LevelForVerbosity maps the --verbosity flag to the lowest level a console
// handler prints: 0 shows errors, 1 warnings, 2 and above everything.
func LevelForVerbosity(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.ErrorLevel
	case verbosity == 1:
		return zapcore.WarnLevel
	default:
		return zapcore.DebugLevel
	}
}

// NewConsoleCore builds the handler the send-mail command attaches for the
// duration of a run. Lines carry the message followed by any fields.
func NewConsoleCore(verbosity int, out zapcore.WriteSyncer) zapcore.Core {
	encCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, LevelForVerbosity(verbosity))
}
