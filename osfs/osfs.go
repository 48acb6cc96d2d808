// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package osfs provides OS filesystem access for files under trial.
package osfs

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/diffstorm/includesweeper/o11y/clog"
	"github.com/diffstorm/includesweeper/o11y/iometrics"
)

// slowOp is a threshold to log a slow filesystem operation.
const slowOp = 1 * time.Minute

// OSFS provides OS filesystem access.
// It counts operations in iometrics.
type OSFS struct {
	m *iometrics.IOMetrics
}

// New creates new OSFS.
func New() *OSFS {
	return &OSFS{m: iometrics.New("osfs")}
}

// IOMetrics returns the iometrics of the fs.
func (fs *OSFS) IOMetrics() *iometrics.IOMetrics {
	return fs.m
}

func logSlowOp(ctx context.Context, name string, started time.Time, err error) {
	if dur := time.Since(started); dur > slowOp {
		buf := make([]byte, 4*1024)
		n := runtime.Stack(buf, false)
		clog.Warningf(ctx, "slow op %s: %s %v\n%s", name, dur, err, buf[:n])
	}
}

// ReadFile reads the named file.
func (fs *OSFS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	started := time.Now()
	buf, err := os.ReadFile(name)
	fs.m.ReadDone(len(buf), err)
	logSlowOp(ctx, name, started, err)
	return buf, err
}

// WriteFile writes data to the named file.
func (fs *OSFS) WriteFile(ctx context.Context, name string, data []byte, perm os.FileMode) error {
	started := time.Now()
	err := os.WriteFile(name, data, perm)
	fs.m.WriteDone(len(data), err)
	logSlowOp(ctx, name, started, err)
	return err
}

// Remove removes the named file.
func (fs *OSFS) Remove(ctx context.Context, name string) error {
	started := time.Now()
	err := os.Remove(name)
	fs.m.OpsDone(err)
	logSlowOp(ctx, name, started, err)
	return err
}

// Stat returns a FileInfo of the named file.
func (fs *OSFS) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	started := time.Now()
	fi, err := os.Stat(name)
	fs.m.OpsDone(err)
	logSlowOp(ctx, name, started, err)
	return fi, err
}
