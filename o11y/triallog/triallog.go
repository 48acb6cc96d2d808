// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package triallog writes a record of each build of a sweep run
// as zstd-compressed JSON lines.
package triallog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Kinds of records.
const (
	KindBaseline = "baseline"
	KindTrial    = "trial"
	KindSkip     = "skip"
)

// Record is a record of a build, or of a skipped trial.
type Record struct {
	RunID string    `json:"run_id"`
	Kind  string    `json:"kind"`
	Time  time.Time `json:"time"`

	File    string `json:"file,omitempty"`
	Include string `json:"include,omitempty"`
	Line    int    `json:"line,omitempty"`

	ExitCode            int      `json:"exit_code"`
	Diagnostics         int      `json:"diagnostics"`
	BaselineDiagnostics int      `json:"baseline_diagnostics"`
	DiagnosticLines     []string `json:"diagnostic_lines,omitempty"`
	Verdict             string   `json:"verdict,omitempty"`
	Reason              string   `json:"reason,omitempty"`

	Duration time.Duration `json:"duration_ns"`
}

// Writer writes records. A nil *Writer discards records.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	zw  *zstd.Encoder
	enc *json.Encoder
}

// Create creates a writer to the file fname.
func Create(fname string) (*Writer, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, err
	}
	w, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

// New creates a writer to w.
func New(w io.Writer) (*Writer, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &Writer{
		zw:  zw,
		enc: json.NewEncoder(zw),
	}, nil
}

// Write writes a record.
func (w *Writer) Write(r Record) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(r)
}

// Close flushes records and closes the writer.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.zw.Close()
	if w.f != nil {
		err = errors.Join(err, w.f.Close())
	}
	return err
}

// Read reads all records from r.
func Read(r io.Reader) ([]Record, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var records []Record
	dec := json.NewDecoder(zr)
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}
