// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog provides context aware logging.
// It stores a logger with arbitrary key-value fields in each context.
// The main use case is to add trial context (file, include, trial number)
// to each log entry automatically.
package clog

import (
	"context"

	"github.com/charmbracelet/log"
)

type contextKeyType int

var contextKey contextKeyType

// NewContext sets the given logger to the context.
func NewContext(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// FromContext returns a logger in the context, or the default logger
// if it's not set.
func FromContext(ctx context.Context) *log.Logger {
	logger, ok := ctx.Value(contextKey).(*log.Logger)
	if !ok || logger == nil {
		return log.Default()
	}
	return logger
}

// NewSpan sets a sub logger with keyvals to the context.
func NewSpan(ctx context.Context, keyvals ...any) context.Context {
	return NewContext(ctx, FromContext(ctx).With(keyvals...))
}

// Debugf logs at debug log level in the manner of fmt.Printf.
func Debugf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.Helper()
	logger.Debugf(format, args...)
}

// Infof logs at info log level in the manner of fmt.Printf.
func Infof(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.Helper()
	logger.Infof(format, args...)
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func Warningf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.Helper()
	logger.Warnf(format, args...)
}

// Errorf logs at error log level in the manner of fmt.Printf.
func Errorf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.Helper()
	logger.Errorf(format, args...)
}
