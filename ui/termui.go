// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const spinnerFrames = `|/-\`

// termSpinner animates a frame after the message, e.g. the baseline
// build, until it finishes.
type termSpinner struct {
	w    io.Writer
	tick time.Duration

	mu      sync.Mutex
	msg     string
	started time.Time
	stop    chan struct{}
	stopped chan struct{}
}

// Start implements the ui.Spinner interface.
func (s *termSpinner) Start(format string, args ...any) {
	s.mu.Lock()
	s.msg = fmt.Sprintf(format, args...)
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	fmt.Fprintf(s.w, "%s... ", s.msg)
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.w, "\b%c", spinnerFrames[i%len(spinnerFrames)])
				s.mu.Unlock()
			}
		}
	}()
}

// finish stops animation and replaces the spinner line with
// "<duration> <msg> <status>", or clears it if status is empty.
func (s *termSpinner) finish(status string) {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.stopped
	s.stop = nil
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == "" {
		fmt.Fprint(s.w, "\r\033[K")
		return
	}
	fmt.Fprintf(s.w, "\r\033[K%6s %s %s\n", FormatDuration(time.Since(s.started)), s.msg, status)
}

// Stop implements the ui.Spinner interface.
// A successful step shorter than DurationThreshold leaves no line.
func (s *termSpinner) Stop(err error) {
	switch {
	case err != nil:
		s.finish(fmt.Sprintf("%s %v", SGR(Red, "failed"), err))
	case time.Since(s.started) < DurationThreshold:
		s.finish("")
	default:
		s.finish(SGR(Green, "ok"))
	}
}

// Done implements the ui.Spinner interface.
func (s *termSpinner) Done(format string, args ...any) {
	s.finish(SGR(Green, fmt.Sprintf(format, args...)))
}

// TermUI is a terminal-based UI.
// Progress goes to stdout, warnings and errors to stderr.
type TermUI struct {
	out, errOut io.Writer
	width       int
}

func (t *TermUI) init() {
	t.out = os.Stdout
	t.errOut = os.Stderr
	t.width, _, _ = term.GetSize(int(os.Stdout.Fd()))
}

// PrintLines implements the ui.UI interface.
// If msgs starts with \n, it will print from the current line.
// Otherwise, it will replace the last N lines, where N is len(msgs).
func (t *TermUI) PrintLines(msgs ...string) {
	var buf bytes.Buffer
	if len(msgs) > 0 && msgs[0] == "\n" {
		msgs = msgs[1:]
	} else {
		for range len(msgs) - 1 {
			buf.WriteString("\r\033[K\033[A")
		}
		buf.WriteString("\r\033[K")
	}
	writeLinesMaxWidth(&buf, msgs, t.width)
	t.out.Write(buf.Bytes())
}

// NewSpinner returns a terminal-based spinner.
func (t *TermUI) NewSpinner() Spinner {
	return &termSpinner{w: t.out, tick: time.Second}
}

// Infof prints a message on a new line, ending the current progress line.
func (t *TermUI) Infof(format string, args ...any) {
	fmt.Fprintf(t.out, "\r\033[K"+format+"\n", args...)
}

// Warningf prints a warning message to stderr.
func (t *TermUI) Warningf(format string, args ...any) {
	fmt.Fprintf(t.errOut, "\r\033[K%s %s\n", SGR(Yellow, "warning:"), fmt.Sprintf(format, args...))
}

// Errorf prints an error message to stderr.
func (t *TermUI) Errorf(format string, args ...any) {
	fmt.Fprintf(t.errOut, "\r\033[K%s %s\n", SGR(Red, "error:"), fmt.Sprintf(format, args...))
}
