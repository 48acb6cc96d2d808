// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"fmt"
	"os"
	"strings"
)

// SourceFile is a snapshot of a source file.
type SourceFile struct {
	// Path is the absolute path of the file.
	Path string

	// Raw holds the lines of the file including line terminators.
	// Concatenating Raw gives the file content byte by byte.
	Raw []string

	// Lines holds the comment-stripped lines without line terminators.
	// len(Lines) == len(Raw).
	Lines []string
}

// ReadSource reads the file at path and returns its snapshot.
func ReadSource(path string) (*SourceFile, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSource(path, buf), nil
}

// NewSource returns a snapshot of buf as the content of path.
func NewSource(path string, buf []byte) *SourceFile {
	raw := SplitLines(buf)
	return &SourceFile{
		Path:  path,
		Raw:   raw,
		Lines: StripComments(trimTerminators(raw)),
	}
}

// SplitLines splits buf into lines, keeping "\n" at the end of each line.
// A final line without "\n" is kept as is; no empty line is added for
// a trailing "\n".
func SplitLines(buf []byte) []string {
	if len(buf) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(buf), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// RemoveLine returns a copy of buf without the line at index i
// (and its terminator).
func RemoveLine(buf []byte, i int) ([]byte, error) {
	lines := SplitLines(buf)
	if i < 0 || i >= len(lines) {
		return nil, fmt.Errorf("line index %d out of range [0, %d)", i, len(lines))
	}
	var sb strings.Builder
	sb.Grow(len(buf))
	for j, line := range lines {
		if j == i {
			continue
		}
		sb.WriteString(line)
	}
	return []byte(sb.String()), nil
}

func trimTerminators(raw []string) []string {
	lines := make([]string, len(raw))
	for i, line := range raw {
		line = strings.TrimSuffix(line, "\n")
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
