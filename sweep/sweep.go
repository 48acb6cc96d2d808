// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package sweep finds redundant #include directives in C/C++ source
// trees by removing each directive in turn and comparing the build's
// diagnostics with the diagnostics of the unmodified tree.
//
// A run is a state machine
//
//	AwaitingBaseline -> TrialLoop -> Done
//	AwaitingBaseline -> Aborted
//
// The baseline build runs once before any file is modified; a failing
// baseline aborts the run. Trials run one at a time: modify one file,
// build, count diagnostics, restore the file.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diffstorm/includesweeper/execute"
	"github.com/diffstorm/includesweeper/execute/localexec"
	"github.com/diffstorm/includesweeper/o11y/clog"
	"github.com/diffstorm/includesweeper/o11y/triallog"
	"github.com/diffstorm/includesweeper/osfs"
	"github.com/diffstorm/includesweeper/scandeps"
	"github.com/diffstorm/includesweeper/sync/semaphore"
	"github.com/diffstorm/includesweeper/toolsupport/gccutil"
	"github.com/diffstorm/includesweeper/ui"
)

var (
	// ErrNoProject is returned when the project root doesn't exist.
	ErrNoProject = errors.New("project path does not exist")

	// ErrBaselineFailed is returned when the unmodified project
	// doesn't build.
	ErrBaselineFailed = errors.New("the project does not compile successfully without modifications")

	// ErrRestoreFailed is returned when a file under trial could not
	// be restored.
	ErrRestoreFailed = errors.New("failed to restore file")
)

// BaselineError is an error of the baseline build.
// It unwraps to ErrBaselineFailed.
type BaselineError struct {
	ExitCode int
	StartErr error
	Stdout   []byte
	Stderr   []byte
}

func (e *BaselineError) Error() string {
	if e.StartErr != nil {
		return fmt.Sprintf("%v: exit=%d: %v", ErrBaselineFailed, e.ExitCode, e.StartErr)
	}
	return fmt.Sprintf("%v: exit=%d", ErrBaselineFailed, e.ExitCode)
}

func (e *BaselineError) Unwrap() error {
	return ErrBaselineFailed
}

// State is a state of a Verifier.
type State int

const (
	AwaitingBaseline State = iota
	TrialLoop
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case AwaitingBaseline:
		return "AwaitingBaseline"
	case TrialLoop:
		return "TrialLoop"
	case Done:
		return "Done"
	case Aborted:
		return "Aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// only one file of the tree may be modified at any time.
var mutationSema = semaphore.New("mutation", 1)

// Options is options of a Verifier.
type Options struct {
	// Root is the project root directory.
	// The build command runs in this directory.
	Root string

	// Command is the build command, run by the platform shell.
	Command string

	// Extensions are file extensions to check.
	// Default is scandeps.DefaultExtensions.
	Extensions []string

	// Files are files to check, in order.
	// If nil, files under Root with Extensions are discovered.
	Files []string

	// Executor runs build commands. Default is localexec.LocalExec.
	Executor execute.Executor

	// UI reports progress. Default is ui.Default.
	UI ui.UI

	// TrialLog records every build, if set.
	TrialLog *triallog.Writer

	// StopOnError stops the run at the first trial that fails for
	// a reason other than a build result (e.g. the file is unreadable).
	// Such trials are skipped by default.
	StopOnError bool
}

// Result is a result of a run.
type Result struct {
	RunID    string
	Root     string
	Baseline Baseline

	// Verdicts holds the verdicts in file order, then in directive order.
	Verdicts []Verdict

	Files    int
	Includes int
	Trials   int
	Skipped  int
}

// Redundant returns the redundant verdicts.
func (r *Result) Redundant() []Verdict {
	var vs []Verdict
	for _, v := range r.Verdicts {
		if v.Classification == Redundant {
			vs = append(vs, v)
		}
	}
	return vs
}

// Verifier runs the baseline build and the trials.
type Verifier struct {
	opts  Options
	fs    *osfs.OSFS
	runID string
	state State

	baseline  Baseline
	backupDir string
	builds    int
}

// New creates a new Verifier.
func New(opts Options) (*Verifier, error) {
	if opts.Command == "" {
		return nil, errors.New("empty build command")
	}
	if opts.Root == "" {
		return nil, errors.New("empty project root")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = root
	if len(opts.Extensions) == 0 {
		opts.Extensions = scandeps.DefaultExtensions
	}
	if opts.Executor == nil {
		opts.Executor = localexec.LocalExec{}
	}
	if opts.UI == nil {
		opts.UI = ui.Default
	}
	return &Verifier{
		opts:  opts,
		fs:    osfs.New(),
		runID: uuid.NewString(),
		state: AwaitingBaseline,
	}, nil
}

// RunID returns the ID of the run.
func (v *Verifier) RunID() string { return v.runID }

// State returns the current state.
func (v *Verifier) State() State { return v.state }

// Builds returns the number of builds run so far.
func (v *Verifier) Builds() int { return v.builds }

// Run runs the baseline build, then a trial for every directive.
//
// It returns an error wrapping ErrNoProject or a *BaselineError
// without running any trial.
// When ctx is canceled or a file can't be restored, it returns the
// result so far with the error.
func (v *Verifier) Run(ctx context.Context) (*Result, error) {
	if v.state != AwaitingBaseline {
		return nil, fmt.Errorf("verifier in state %s; want %s", v.state, AwaitingBaseline)
	}
	ctx = clog.NewSpan(ctx, "run", v.runID)
	result := &Result{
		RunID: v.runID,
		Root:  v.opts.Root,
	}
	err := v.awaitBaseline(ctx)
	if err != nil {
		v.state = Aborted
		return nil, err
	}
	result.Baseline = v.baseline
	v.state = TrialLoop
	err = v.trialLoop(ctx, result)
	v.state = Done
	return result, err
}

func (v *Verifier) awaitBaseline(ctx context.Context) error {
	fi, err := os.Stat(v.opts.Root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNoProject, v.opts.Root, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNoProject, v.opts.Root)
	}

	spin := v.opts.UI.NewSpinner()
	spin.Start("Checking initial compilation")
	cmd, err := v.build(ctx, "baseline", "baseline")
	if err != nil {
		spin.Stop(err)
		return err
	}
	res := cmd.Result()
	if res.ExitCode != 0 {
		err := &BaselineError{
			ExitCode: res.ExitCode,
			StartErr: res.StartErr,
			Stdout:   cmd.Stdout(),
			Stderr:   cmd.Stderr(),
		}
		spin.Stop(err)
		v.logRecord(triallog.Record{
			Kind:     triallog.KindBaseline,
			ExitCode: res.ExitCode,
			Reason:   "baseline failed",
			Duration: res.Duration,
		})
		return err
	}
	v.baseline = Baseline{
		ExitCode:    res.ExitCode,
		Diagnostics: gccutil.ParseDiagnostics(cmd.Output()),
	}
	spin.Done("%d errors, %d warnings", v.baseline.Diagnostics.Errors(), v.baseline.Diagnostics.Warnings())
	clog.Infof(ctx, "baseline exit=%d diagnostics=%d in %s", res.ExitCode, v.baseline.Diagnostics.Count(), res.Duration)
	v.logRecord(triallog.Record{
		Kind:                triallog.KindBaseline,
		ExitCode:            res.ExitCode,
		Diagnostics:         v.baseline.Diagnostics.Count(),
		BaselineDiagnostics: v.baseline.Diagnostics.Count(),
		DiagnosticLines:     v.baseline.Diagnostics.Lines(),
		Duration:            res.Duration,
	})
	return nil
}

func (v *Verifier) trialLoop(ctx context.Context, result *Result) error {
	files := v.opts.Files
	if files == nil {
		var err error
		files, err = scandeps.Discover(ctx, v.opts.Root, v.opts.Extensions)
		if err != nil {
			return fmt.Errorf("failed to discover files in %s: %w", v.opts.Root, err)
		}
	}
	scans, err := scandeps.Scan(ctx, files)
	if err != nil {
		return err
	}
	result.Files = len(scans)
	for _, s := range scans {
		result.Includes += len(s.Includes)
	}

	backupDir, err := os.MkdirTemp("", "includesweeper-"+v.runID[:8]+"-")
	if err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}
	v.backupDir = backupDir
	clog.Debugf(ctx, "backup dir %s", backupDir)
	keepBackups := false
	defer func() {
		if keepBackups {
			clog.Warningf(ctx, "keep backup dir %s", backupDir)
			return
		}
		err := os.RemoveAll(backupDir)
		if err != nil {
			clog.Warningf(ctx, "failed to remove backup dir %s: %v", backupDir, err)
		}
	}()

	v.opts.UI.Infof("Processing files...")
	n := 0
	for _, s := range scans {
		if s.Err != nil {
			clog.Warningf(ctx, "skip %s: %v", s.Path, s.Err)
			if v.opts.StopOnError {
				return s.Err
			}
			continue
		}
		for _, inc := range s.Includes {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("interrupted after %d/%d trials: %w", n, result.Includes, err)
			}
			n++
			tctx := clog.NewSpan(ctx, "file", v.relPath(inc.Path), "include", inc.Spelling(), "trial", n)
			verdict, ok, err := v.trial(tctx, n, result.Includes, inc)
			switch {
			case errors.Is(err, ErrRestoreFailed):
				keepBackups = true
				return err
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return fmt.Errorf("interrupted at trial %d/%d: %w", n, result.Includes, err)
			case err != nil:
				clog.Warningf(tctx, "trial failed: %v", err)
				result.Skipped++
				v.logRecord(triallog.Record{
					Kind:    triallog.KindSkip,
					File:    v.relPath(inc.Path),
					Include: inc.Spelling(),
					Reason:  err.Error(),
				})
				if v.opts.StopOnError {
					return err
				}
				continue
			case !ok:
				result.Skipped++
				continue
			}
			result.Trials++
			result.Verdicts = append(result.Verdicts, verdict)
		}
	}
	clog.Infof(ctx, "files=%d includes=%d trials=%d skipped=%d redundant=%d builds=%d", result.Files, result.Includes, result.Trials, result.Skipped, len(result.Redundant()), v.builds)
	if st := v.fs.IOMetrics().Stats(); st.Errs() > 0 {
		clog.Warningf(ctx, "%s errors: %s", v.fs.IOMetrics().Name(), st)
	} else {
		clog.Debugf(ctx, "%s: %s", v.fs.IOMetrics().Name(), st)
	}
	for _, name := range []string{"mutation", "fork"} {
		clog.Debugf(ctx, "%s", semaStats(name))
	}
	return nil
}

// semaStats returns stats of the semaphore registered for name.
func semaStats(name string) string {
	s, err := semaphore.Lookup(name)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("semaphore %s: capacity=%d serving=%d waiting=%d served=%d", s.Name(), s.Capacity(), s.NumServs(), s.NumWaits(), s.NumRequests())
}

// build runs the build command in the project root.
func (v *Verifier) build(ctx context.Context, id, desc string) (*execute.Cmd, error) {
	cmd := execute.ShellCmd(fmt.Sprintf("%s-%s", v.runID[:8], id), desc, v.opts.Command, v.opts.Root)
	v.builds++
	clog.Debugf(ctx, "build %s: %s in %s", cmd.ID, cmd.Command(), cmd.Dir)
	err := v.opts.Executor.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (v *Verifier) relPath(path string) string {
	rel, err := filepath.Rel(v.opts.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func (v *Verifier) logRecord(r triallog.Record) {
	if v.opts.TrialLog == nil {
		return
	}
	r.RunID = v.runID
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	err := v.opts.TrialLog.Write(r)
	if err != nil {
		clog.Warningf(context.Background(), "failed to write trial log: %v", err)
	}
}
