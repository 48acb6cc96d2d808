// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil provides utilities for shell command lines.
package shutil

import "strings"

// Join joins command line args to a single string that /bin/sh would
// split back to the same args.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// Quote quotes arg for /bin/sh if needed.
func Quote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsFunc(arg, needsQuote) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./=+,:@%", r)
}
