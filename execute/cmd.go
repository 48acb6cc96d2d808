// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package execute runs build commands.
package execute

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/diffstorm/includesweeper/toolsupport/shutil"
)

// Executor is an interface to run the cmd.
//
// Run returns nil when the command ran, whatever its exit status is.
// The exit status is available in cmd.Result().
// Run returns an error only when cmd is invalid or ctx is done.
type Executor interface {
	Run(ctx context.Context, cmd *Cmd) error
}

// Cmd includes all the information required to run a build command.
type Cmd struct {
	// ID is used as a unique identifier for this invocation in logs.
	ID string

	// Desc is a short, human-readable description shown in the UI or log.
	// Example: "baseline" or "trial 3/12 foo.h:4"
	Desc string

	// Args holds command line arguments.
	Args []string

	// Env specifies the environment of the process.
	// If nil, the process uses the current environment.
	Env []string

	// Dir specifies the working directory of the cmd.
	Dir string

	stdoutWriter, stderrWriter io.Writer
	stdoutBuffer, stderrBuffer bytes.Buffer

	result Result
}

// Result is a result of the cmd.
type Result struct {
	// ExitCode is the exit status of the process.
	ExitCode int

	// StartErr is set when the process could not be started,
	// e.g. the shell is missing. ExitCode is non-zero in that case.
	StartErr error

	// Duration is the wall time of the process.
	Duration time.Duration
}

// ShellCmd returns a cmd that runs command through the platform shell in dir.
func ShellCmd(id, desc, command, dir string) *Cmd {
	return &Cmd{
		ID:   id,
		Desc: desc,
		Args: ShellArgs(command),
		Dir:  dir,
	}
}

// String returns an ID of the cmd.
func (c *Cmd) String() string {
	return c.ID
}

// Command returns a command line string.
func (c *Cmd) Command() string {
	if len(c.Args) == 3 && c.Args[0] == shellPath && c.Args[1] == shellFlag {
		return c.Args[2]
	}
	return shutil.Join(c.Args)
}

// SetStdoutWriter sets w for stdout.
func (c *Cmd) SetStdoutWriter(w io.Writer) {
	c.stdoutWriter = w
}

// SetStderrWriter sets w for stderr.
func (c *Cmd) SetStderrWriter(w io.Writer) {
	c.stderrWriter = w
}

// StdoutWriter returns a writer set for stdout.
func (c *Cmd) StdoutWriter() io.Writer {
	c.stdoutBuffer.Reset()
	if c.stdoutWriter == nil {
		return &c.stdoutBuffer
	}
	return io.MultiWriter(c.stdoutWriter, &c.stdoutBuffer)
}

// StderrWriter returns a writer set for stderr.
func (c *Cmd) StderrWriter() io.Writer {
	c.stderrBuffer.Reset()
	if c.stderrWriter == nil {
		return &c.stderrBuffer
	}
	return io.MultiWriter(c.stderrWriter, &c.stderrBuffer)
}

// Stdout returns stdout output of the cmd.
func (c *Cmd) Stdout() []byte {
	return c.stdoutBuffer.Bytes()
}

// Stderr returns stderr output of the cmd.
func (c *Cmd) Stderr() []byte {
	return c.stderrBuffer.Bytes()
}

// Output returns stdout followed by stderr.
// A newline is inserted between them if stdout doesn't end with one,
// so the last stdout line and the first stderr line stay separate lines.
func (c *Cmd) Output() []byte {
	stdout, stderr := c.Stdout(), c.Stderr()
	out := make([]byte, 0, len(stdout)+len(stderr)+1)
	out = append(out, stdout...)
	if len(stdout) > 0 && len(stderr) > 0 && stdout[len(stdout)-1] != '\n' {
		out = append(out, '\n')
	}
	return append(out, stderr...)
}

// SetResult sets the result of the cmd.
func (c *Cmd) SetResult(r Result) {
	c.result = r
}

// Result returns the result of the cmd.
func (c *Cmd) Result() Result {
	return c.result
}
