// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package execute

const (
	shellPath = "/bin/sh"
	shellFlag = "-c"
)

// ShellArgs returns args to run command by /bin/sh.
func ShellArgs(command string) []string {
	return []string{shellPath, shellFlag, command}
}
