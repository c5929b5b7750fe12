// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegistryUncoveredLoggerUsesFallback(t *testing.T) {
	reg := NewRegistry()
	fallback, recorded := observer.New(zap.WarnLevel)
	reg.SetFallback(fallback)

	log := reg.Logger("smtp")
	log.Debug("dropped below warn")
	log.Warnw("InsecureSkipVerify is enabled for mail TLS connection", "host", "relay")

	require.Equal(t, 0, reg.HandlerCount())
	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "mailqueue.smtp", entries[0].LoggerName)
	require.Equal(t, "relay", entries[0].ContextMap()["host"])
}

func TestRegistryFallbackSkippedWhenHandlerMatches(t *testing.T) {
	reg := NewRegistry()
	fallback, fallbackRecorded := observer.New(zap.DebugLevel)
	reg.SetFallback(fallback)
	errorsOnly, recorded := observer.New(zap.ErrorLevel)
	defer reg.AddHandler(RootLoggerName, errorsOnly)()

	reg.Logger("engine").Warn("filtered by the attached handler")

	require.Equal(t, 0, recorded.Len())
	require.Equal(t, 0, fallbackRecorded.Len())
}

func TestRegistryFallbackForUncoveredPrefixOnly(t *testing.T) {
	reg := NewRegistry()
	fallback, fallbackRecorded := observer.New(zap.WarnLevel)
	reg.SetFallback(fallback)
	core, recorded := observer.New(zap.DebugLevel)
	defer reg.AddHandler("mailqueue.engine", core)()

	reg.Logger("engine").Warn("handled")
	reg.Logger("queue").Warn("uncovered")

	require.Equal(t, 1, recorded.Len())
	require.Len(t, fallbackRecorded.All(), 1)
	require.Equal(t, "uncovered", fallbackRecorded.All()[0].Message)
}

func TestRegistryNilFallbackIsSilent(t *testing.T) {
	reg := NewRegistry()
	reg.SetFallback(nil)
	log := reg.Logger("engine")
	require.NotPanics(t, func() { log.Errorw("nobody listens", "id", 1) })
	require.NoError(t, log.Sync())
}

func TestRegistryRoutesByPrefix(t *testing.T) {
	reg := NewRegistry()
	core, recorded := observer.New(zap.DebugLevel)
	remove := reg.AddHandler(RootLoggerName, core)
	defer remove()

	reg.Logger("").Info("root")
	reg.Logger("engine").Info("child")
	reg.Logger("commands.send_mail").Warn("grandchild")

	entries := recorded.All()
	require.Len(t, entries, 3)
	require.Equal(t, "mailqueue", entries[0].LoggerName)
	require.Equal(t, "mailqueue.engine", entries[1].LoggerName)
	require.Equal(t, "mailqueue.commands.send_mail", entries[2].LoggerName)
}

func TestRegistryPrefixDoesNotMatchSiblings(t *testing.T) {
	reg := NewRegistry()
	core, recorded := observer.New(zap.DebugLevel)
	defer reg.AddHandler("mailqueue.engine", core)()

	reg.Logger("engineering").Info("sibling")
	reg.Logger("commands").Info("other")
	reg.Logger("engine.smtp").Info("nested")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "nested", entries[0].Message)
}

func TestRegistryRemoveHandlerStopsDelivery(t *testing.T) {
	reg := NewRegistry()
	core, recorded := observer.New(zap.DebugLevel)
	remove := reg.AddHandler(RootLoggerName, core)
	log := reg.Logger("engine")

	log.Info("before")
	remove()
	remove()
	log.Info("after")

	require.Equal(t, 0, reg.HandlerCount())
	require.Equal(t, 1, recorded.Len())
	require.Equal(t, "before", recorded.All()[0].Message)
}

func TestRegistryCarriesWithFields(t *testing.T) {
	reg := NewRegistry()
	core, recorded := observer.New(zap.DebugLevel)
	defer reg.AddHandler(RootLoggerName, core)()

	reg.Logger("engine").With("run", "r-1").Infow("sent", "id", 42)

	entries := recorded.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "r-1", ctx["run"])
	require.EqualValues(t, 42, ctx["id"])
}

func TestRegistryRespectsHandlerLevel(t *testing.T) {
	reg := NewRegistry()
	warnCore, warnRecorded := observer.New(zap.WarnLevel)
	debugCore, debugRecorded := observer.New(zap.DebugLevel)
	defer reg.AddHandler(RootLoggerName, warnCore)()
	defer reg.AddHandler(RootLoggerName, debugCore)()

	log := reg.Logger("engine")
	log.Debug("noise")
	log.Warn("signal")

	require.Equal(t, 1, warnRecorded.Len())
	require.Equal(t, 2, debugRecorded.Len())
}

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.ErrorLevel},
		{0, zapcore.ErrorLevel},
		{1, zapcore.WarnLevel},
		{2, zapcore.DebugLevel},
		{3, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, LevelForVerbosity(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestNewConsoleCorePrintsMessageOnly(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry()
	defer reg.AddHandler(RootLoggerName, NewConsoleCore(1, zapcore.AddSync(&buf)))()

	log := reg.Logger("commands.send_mail")
	log.Info("hidden at verbosity 1")
	log.Warn("Sending is paused, exiting without sending queued mail.")

	require.Equal(t, "Sending is paused, exiting without sending queued mail.\n", buf.String())
}

func TestNewConsoleCoreAppendsFields(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry()
	defer reg.AddHandler(RootLoggerName, NewConsoleCore(2, zapcore.AddSync(&buf)))()

	reg.Logger("engine").Debugw("loaded block", "size", 3)

	require.Equal(t, "loaded block {\"size\": 3}\n", buf.String())
}
