// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/diffstorm/includesweeper/execute"
	"github.com/diffstorm/includesweeper/o11y/clog"
	"github.com/diffstorm/includesweeper/runtimex"
	"github.com/diffstorm/includesweeper/sync/semaphore"
)

// startFailureExitCode is used as the exit code when the process
// could not be started. It is what /bin/sh returns for a missing command.
const startFailureExitCode = 127

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// limits concurrent fork/exec.
var forkSema = semaphore.New("fork", runtimex.NumCPU())

// Run runs a cmd and waits for it.
// A non-zero exit status or a failure to start the process is reported
// in cmd.Result(), not as an error.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("no arguments in the command. ID: %s", cmd.ID)
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	c.Stdout = cmd.StdoutWriter()
	c.Stderr = cmd.StderrWriter()
	setProcAttr(c)

	s := time.Now()
	started := false
	err := forkSema.Do(ctx, func(ctx context.Context) error {
		err := c.Start()
		started = err == nil
		return err
	})
	if started {
		err = c.Wait()
	}
	dur := time.Since(s)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", cmd.ID, ctxErr)
	}

	res := execute.Result{
		ExitCode: exitCode(err),
		Duration: dur,
	}
	if !started {
		res.ExitCode = startFailureExitCode
		res.StartErr = err
		clog.Warningf(ctx, "%s failed to start %q in %s: %v", cmd.ID, cmd.Args, cmd.Dir, err)
	}
	cmd.SetResult(res)
	clog.Debugf(ctx, "%s exit=%d stdout=%d stderr=%d dur=%s", cmd.ID, res.ExitCode, len(cmd.Stdout()), len(cmd.Stderr()), dur)
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 1
	}
	if code := eerr.ExitCode(); code > 0 {
		return code
	}
	// killed by signal.
	return 1
}
