// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hlog is the verbosity-controlled, redaction-aware logging sink
// (§6 "Logger" collaborator). The teacher threads a plain *log.Logger
// explicitly through Suite/Scenario/pool (suite/throughput.go) and gates
// each call on a Verbosity level rather than reaching for a global logger;
// hlog keeps that explicit-threading, level-gated discipline but backs it
// with go.uber.org/zap's structured core instead of a bare *log.Logger, and
// adds a redacting zapcore.Core so secret literals never reach the sink.
package hlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vdobler/hurlgo/value"
)

// Level mirrors the teacher's integer Verbosity (suite/throughput.go:
// Verbosity >= 1, >= 2), re-expressed as named levels.
type Level int

const (
	LevelQuiet Level = iota
	LevelNormal
	LevelVerbose
	LevelDebug
)

// Logger wraps a *zap.Logger with an active Level and a value.Redactor
// applied to every message and field before it reaches the underlying core.
type Logger struct {
	level    Level
	base     *zap.Logger
	redactor *value.Redactor
}

// New builds a Logger at level writing through base, redacting any literal
// known to redactor. base may be zap.NewNop() in tests.
func New(level Level, base *zap.Logger, redactor *value.Redactor) *Logger {
	if redactor == nil {
		redactor = value.NewRedactor(nil)
	}
	wrapped := base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return redactingCore{Core: core, redactor: redactor}
	}))
	return &Logger{level: level, base: wrapped, redactor: redactor}
}

// Nop returns a Logger that discards everything, for tests and library
// callers that don't want hurlgo's own diagnostics.
func Nop() *Logger {
	return New(LevelQuiet, zap.NewNop(), value.NewRedactor(nil))
}

// AddSecret registers a literal that must be masked in every subsequent log
// line, mirroring the way captured `redact` variables are threaded into the
// Logger collaborator (§4.7).
func (l *Logger) AddSecret(literal string) {
	l.redactor.Add(literal)
}

func (l *Logger) enabled(min Level) bool { return l.level >= min }

// Entry logs a single HTTP entry's request line at LevelNormal, matching
// the shape of suite/throughput.go's "Scenario %d %q: ..." progress lines.
func (l *Logger) Entry(method, url string, fields ...zap.Field) {
	if !l.enabled(LevelNormal) {
		return
	}
	l.base.Info(method+" "+url, fields...)
}

// Verbose logs at LevelVerbose (the teacher's Verbosity >= 2 band).
func (l *Logger) Verbose(msg string, fields ...zap.Field) {
	if !l.enabled(LevelVerbose) {
		return
	}
	l.base.Info(msg, fields...)
}

// Debug logs at LevelDebug, below every other band.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if !l.enabled(LevelDebug) {
		return
	}
	l.base.Debug(msg, fields...)
}

// Error always logs, regardless of level, matching the teacher's pattern of
// unconditionally reporting entry failures.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.base.Error(msg, fields...)
}

// Sync flushes the underlying zap core.
func (l *Logger) Sync() error { return l.base.Sync() }

// redactingCore wraps a zapcore.Core, redacting the message and every
// string-typed field before delegating to Write.
type redactingCore struct {
	zapcore.Core
	redactor *value.Redactor
}

func (c redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return redactingCore{Core: c.Core.With(fields), redactor: c.redactor}
}

func (c redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Core.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = c.redactor.Redact(ent.Message)
	redacted := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if f.Type == zapcore.StringType {
			f.String = c.redactor.Redact(f.String)
		}
		redacted[i] = f
	}
	return c.Core.Write(ent, redacted)
}
