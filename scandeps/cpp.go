// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diffstorm/includesweeper/o11y/clog"
)

// Include is an #include directive found in a file.
type Include struct {
	// Path is the file that has the directive.
	Path string

	// Target is the included name without delimiters,
	// e.g. "base/logging.h" for `#include "base/logging.h"`.
	Target string

	// Angled is true for `#include <...>`.
	Angled bool

	// Line is the 0-based line index where the directive was found.
	Line int
}

// Spelling returns the target with its delimiters.
func (inc Include) Spelling() string {
	if inc.Angled {
		return "<" + inc.Target + ">"
	}
	return `"` + inc.Target + `"`
}

func (inc Include) String() string {
	return fmt.Sprintf("%s:%d: %s", inc.Path, inc.Line+1, inc.Spelling())
}

// CPPScan scans comment-stripped lines of fname for #include directives.
// Directives are returned in file order.
func CPPScan(ctx context.Context, fname string, lines []string) []Include {
	started := time.Now()
	var includes []Include
	for i, line := range lines {
		target, angled, ok := parseInclude(line)
		if !ok {
			continue
		}
		includes = append(includes, Include{
			Path:   fname,
			Target: target,
			Angled: angled,
			Line:   i,
		})
		clog.Debugf(ctx, "include %s:%d %q", fname, i+1, target)
	}
	if dur := time.Since(started); dur > time.Second {
		clog.Infof(ctx, "slow cppScan %s %s", fname, dur)
	}
	return includes
}

// FindInclude returns the index of the first line in lines that
// is an #include directive for target, or -1 if there is none.
// A file including target twice gets the first line for both.
func FindInclude(lines []string, target string) int {
	for i, line := range lines {
		t, _, ok := parseInclude(line)
		if ok && t == target {
			return i
		}
	}
	return -1
}

// parseInclude parses line as
//
//	[ws] # [ws] include [ws] "target" ...
//	[ws] # [ws] include [ws] <target> ...
//
// where ws is spaces or tabs.
func parseInclude(line string) (target string, angled, ok bool) {
	s := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(s, "#") {
		return "", false, false
	}
	s = strings.TrimLeft(s[1:], " \t")
	if !strings.HasPrefix(s, "include") {
		return "", false, false
	}
	s = strings.TrimLeft(strings.TrimPrefix(s, "include"), " \t")
	if s == "" {
		return "", false, false
	}
	var closer byte
	switch s[0] {
	case '"':
		closer = '"'
	case '<':
		closer = '>'
		angled = true
	default:
		// #include_next, #include MACRO etc.
		return "", false, false
	}
	i := strings.IndexByte(s[1:], closer)
	if i <= 0 {
		// unclosed path or empty path.
		return "", false, false
	}
	return s[1 : i+1], angled, true
}
