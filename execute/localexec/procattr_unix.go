// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package localexec

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// setProcAttr runs the build in its own process group, and kills
// the whole group when the context is canceled, so compilers spawned
// by make etc. don't keep writing to the tree after cancellation.
func setProcAttr(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return unix.Kill(-c.Process.Pid, unix.SIGKILL)
	}
	c.WaitDelay = 5 * time.Second
}
