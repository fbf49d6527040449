// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package log implements the LibOS trusted log. The log is backed by zap and
// gated by a LevelFilter that the gateway resolves during init; on a
// production (non-debug) enclave the effective level is always Off so no
// trace output can leak to the host.
package log

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelFilter is the verbosity requested for the trusted log.
type LevelFilter int8

const (
	Off LevelFilter = iota
	Error
	Warn
	Info
	Debug
	Trace
)

func (l LevelFilter) String() string {
	switch l {
	case Off:
		return "off"
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case Trace:
		return "trace"
	}
	return "off"
}

// ParseLevel maps a host-supplied level string to a LevelFilter. The accepted
// names follow the OCI runtime log levels; anything unrecognized maps to Off
// rather than failing, so a bad level can never keep an enclave from booting.
func ParseLevel(s string) LevelFilter {
	switch strings.ToLower(s) {
	case "off":
		return Off
	case "panic", "fatal", "error":
		return Error
	case "warning", "warn":
		return Warn
	case "info":
		return Info
	case "debug":
		return Debug
	case "trace":
		return Trace
	}
	return Off
}

// zapLevel translates the filter to the closest zap level. Zap has no trace
// level; Trace shares DebugLevel and is distinguished by the filter value the
// caller keeps.
func zapLevel(l LevelFilter) zapcore.Level {
	switch l {
	case Error:
		return zapcore.ErrorLevel
	case Warn:
		return zapcore.WarnLevel
	case Info:
		return zapcore.InfoLevel
	case Debug, Trace:
		return zapcore.DebugLevel
	}
	return zapcore.FatalLevel
}

// New builds the trusted logger for the given filter. Off yields a no-op
// logger so call sites never need to nil-check.
func New(level LevelFilter) (*zap.Logger, error) {
	if level == Off {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	cfg.DisableStacktrace = level < Debug
	// The only writable stream an enclave has is the host's stderr.
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
