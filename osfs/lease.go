// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package osfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/diffstorm/includesweeper/o11y/clog"
)

// ErrReleased is returned when a released lease is written.
var ErrReleased = errors.New("lease already released")

// Lease is a handle on a file that may be modified until Release,
// which restores the content at Acquire.
//
// Callers must call Release on every path, typically with defer
// right after Acquire.
type Lease struct {
	fs      *OSFS
	path    string
	backup  string
	mode    os.FileMode
	content []byte

	released bool
}

// Acquire takes a snapshot of the file at path, keeps it in memory
// and in a backup file in backupDir, and returns a lease on the file.
func (fs *OSFS) Acquire(ctx context.Context, path, backupDir string) (*Lease, error) {
	fi, err := fs.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	content, err := fs.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	backup := filepath.Join(backupDir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), uuid.NewString()))
	err = fs.WriteFile(ctx, backup, content, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to back up %s: %w", path, err)
	}
	clog.Debugf(ctx, "acquire %s backup=%s size=%d", path, backup, len(content))
	return &Lease{
		fs:      fs,
		path:    path,
		backup:  backup,
		mode:    fi.Mode().Perm(),
		content: content,
	}, nil
}

// Path returns the path of the leased file.
func (l *Lease) Path() string { return l.path }

// Backup returns the path of the backup file.
func (l *Lease) Backup() string { return l.backup }

// Content returns the content at Acquire.
// The returned slice must not be modified.
func (l *Lease) Content() []byte { return l.content }

// Write replaces the content of the leased file with data.
func (l *Lease) Write(ctx context.Context, data []byte) error {
	if l.released {
		return fmt.Errorf("write %s: %w", l.path, ErrReleased)
	}
	return l.fs.WriteFile(ctx, l.path, data, l.mode)
}

// Release restores the leased file from the backup, if it was changed,
// and removes the backup. It verifies the restored content is byte-identical to
// the content at Acquire; on failure the backup is kept and its path
// is reported in the error.
// Release is no-op after the first successful call.
//
// The modification time is not restored, so incremental builds
// rebuild outputs that were built from the modified content.
func (l *Lease) Release(ctx context.Context) error {
	if l.released {
		return nil
	}
	if cur, err := l.fs.ReadFile(ctx, l.path); err != nil || !bytes.Equal(cur, l.content) {
		content, err := l.fs.ReadFile(ctx, l.backup)
		if err != nil || !bytes.Equal(content, l.content) {
			clog.Warningf(ctx, "backup %s unusable (%v); restore %s from memory", l.backup, err, l.path)
			content = l.content
		}
		err = l.fs.WriteFile(ctx, l.path, content, l.mode)
		if err != nil {
			return fmt.Errorf("failed to restore %s (backup in %s): %w", l.path, l.backup, err)
		}
	}
	got, err := l.fs.ReadFile(ctx, l.path)
	if err != nil {
		return fmt.Errorf("failed to verify %s (backup in %s): %w", l.path, l.backup, err)
	}
	if !bytes.Equal(got, l.content) {
		return fmt.Errorf("restored %s differs from snapshot (backup in %s)", l.path, l.backup)
	}
	l.released = true
	err = l.fs.Remove(ctx, l.backup)
	if err != nil {
		clog.Warningf(ctx, "failed to remove backup %s: %v", l.backup, err)
	}
	clog.Debugf(ctx, "release %s", l.path)
	return nil
}
