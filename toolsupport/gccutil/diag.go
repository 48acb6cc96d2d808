// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gccutil provides utilities of gcc.
package gccutil

import (
	"bytes"
	"strings"
)

// Severity is a severity of a diagnostic line.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}

// Diagnostic is a line of compiler output with a diagnostic marker.
type Diagnostic struct {
	Severity Severity
	// Line is the output line as is.
	Line string
}

// DiagnosticSet is a set of diagnostics found in compiler output.
// Two sets are compared by Count only.
type DiagnosticSet struct {
	Diagnostics []Diagnostic
}

// Count returns the number of diagnostic lines.
func (s DiagnosticSet) Count() int {
	return len(s.Diagnostics)
}

// Lines returns diagnostic lines.
func (s DiagnosticSet) Lines() []string {
	lines := make([]string, 0, len(s.Diagnostics))
	for _, d := range s.Diagnostics {
		lines = append(lines, d.Line)
	}
	return lines
}

// Errors returns the number of error lines.
func (s DiagnosticSet) Errors() int {
	n := 0
	for _, d := range s.Diagnostics {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

// Warnings returns the number of warning lines.
func (s DiagnosticSet) Warnings() int {
	return s.Count() - s.Errors()
}

var (
	errorMarker   = []byte("error:")
	warningMarker = []byte("warning:")
)

// ParseDiagnostics returns lines in output that contain "error:" or
// "warning:", the markers gcc and clang use for diagnostics.
//
// It is a text heuristic, not a diagnostics parser. It counts
// "fatal error:" and a "note:" line that quotes "error:" too, and misses
// formats without the markers (e.g. msvc's "error C2065").
// A line with both markers is an error.
func ParseDiagnostics(output []byte) DiagnosticSet {
	var set DiagnosticSet
	for len(output) > 0 {
		var line []byte
		i := bytes.IndexByte(output, '\n')
		if i < 0 {
			line, output = output, nil
		} else {
			line, output = output[:i], output[i+1:]
		}
		switch {
		case bytes.Contains(line, errorMarker):
			set.Diagnostics = append(set.Diagnostics, Diagnostic{Severity: Error, Line: strings.Clone(string(line))})
		case bytes.Contains(line, warningMarker):
			set.Diagnostics = append(set.Diagnostics, Diagnostic{Severity: Warning, Line: strings.Clone(string(line))})
		}
	}
	return set
}
