//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package log

import (
	"sync"
)

// Level is the log level.
type Level int

// Enums log level constants.
const (
	LevelNil Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

// String turns the Level into a lower case string.
func (l Level) String() string {
	return levelNames[l]
}

// Field is the user defined log field.
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the underlying logging interface.
type Logger interface {
	// Trace logs to TRACE log. Arguments are handled in the manner of fmt.Println.
	Trace(args ...interface{})
	// Tracef logs to TRACE log. Arguments are handled in the manner of fmt.Printf.
	Tracef(format string, args ...interface{})
	// Debug logs to DEBUG log. Arguments are handled in the manner of fmt.Println.
	Debug(args ...interface{})
	// Debugf logs to DEBUG log. Arguments are handled in the manner of fmt.Printf.
	Debugf(format string, args ...interface{})
	// Info logs to INFO log. Arguments are handled in the manner of fmt.Println.
	Info(args ...interface{})
	// Infof logs to INFO log. Arguments are handled in the manner of fmt.Printf.
	Infof(format string, args ...interface{})
	// Warn logs to WARNING log. Arguments are handled in the manner of fmt.Println.
	Warn(args ...interface{})
	// Warnf logs to WARNING log. Arguments are handled in the manner of fmt.Printf.
	Warnf(format string, args ...interface{})
	// Error logs to ERROR log. Arguments are handled in the manner of fmt.Println.
	Error(args ...interface{})
	// Errorf logs to ERROR log. Arguments are handled in the manner of fmt.Printf.
	Errorf(format string, args ...interface{})
	// Fatal logs to FATAL log and exits. Arguments are handled in the manner of fmt.Println.
	Fatal(args ...interface{})
	// Fatalf logs to FATAL log and exits. Arguments are handled in the manner of fmt.Printf.
	Fatalf(format string, args ...interface{})

	// Sync flushes any buffered log entries.
	Sync() error

	// SetLevel sets the level of the output with the given index, such as "0" or "1".
	SetLevel(output string, level Level)
	// GetLevel gets the level of the output with the given index.
	GetLevel(output string) Level

	// With adds user defined fields to Logger.
	With(fields ...Field) Logger
}

// OptionLogger defines logger with additional options.
type OptionLogger interface {
	WithOptions(opts ...Option) Logger
}

var (
	mu            sync.RWMutex
	defaultLogger = NewZapLog(defaultConfig)
)

// SetLogger sets the default Logger.
func SetLogger(logger Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

// GetDefaultLogger gets the default Logger.
func GetDefaultLogger() Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	return l
}

// Option modifies the options of an OptionLogger.
type Option func(*options)

type options struct {
	skip int
}

// WithAdditionalCallerSkip adds additional caller skip.
func WithAdditionalCallerSkip(skip int) Option {
	return func(o *options) {
		o.skip = skip
	}
}
