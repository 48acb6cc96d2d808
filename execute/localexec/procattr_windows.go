// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package localexec

import (
	"os/exec"
	"time"
)

func setProcAttr(c *exec.Cmd) {
	c.WaitDelay = 5 * time.Second
}
