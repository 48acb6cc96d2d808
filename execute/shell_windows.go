// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package execute

const (
	shellPath = "cmd.exe"
	shellFlag = "/C"
)

// ShellArgs returns args to run command by cmd.exe.
func ShellArgs(command string) []string {
	return []string{shellPath, shellFlag, command}
}
