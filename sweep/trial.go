// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/diffstorm/includesweeper/o11y/clog"
	"github.com/diffstorm/includesweeper/o11y/triallog"
	"github.com/diffstorm/includesweeper/scandeps"
	"github.com/diffstorm/includesweeper/toolsupport/gccutil"
)

// trial removes the directive inc from its file, builds, and restores
// the file.
// It returns false when the directive is no longer found in the file.
// The file is restored before trial returns, whatever the build result
// is; an error wrapping ErrRestoreFailed is returned if it can't be.
func (v *Verifier) trial(ctx context.Context, n, total int, inc scandeps.Include) (verdict Verdict, ok bool, err error) {
	rel := v.relPath(inc.Path)
	v.opts.UI.PrintLines(fmt.Sprintf("[%d/%d] %s %s", n, total, rel, inc.Spelling()))

	release, err := mutationSema.WaitAcquire(ctx)
	if err != nil {
		return Verdict{}, false, err
	}
	defer release()

	lease, err := v.fs.Acquire(ctx, inc.Path, v.backupDir)
	if err != nil {
		return Verdict{}, false, err
	}
	defer func() {
		rerr := lease.Release(context.WithoutCancel(ctx))
		if rerr != nil {
			clog.Errorf(ctx, "restore failed: %v", rerr)
			v.opts.UI.Errorf("failed to restore %s; backup is in %s", inc.Path, lease.Backup())
			err = errors.Join(err, fmt.Errorf("%w: %w", ErrRestoreFailed, rerr))
			ok = false
		}
	}()

	// locate against the current content, not the scanned one.
	src := scandeps.NewSource(inc.Path, lease.Content())
	idx := scandeps.FindInclude(src.Lines, inc.Target)
	if idx < 0 {
		clog.Warningf(ctx, "directive not found; skip")
		v.logRecord(triallog.Record{
			Kind:    triallog.KindSkip,
			File:    rel,
			Include: inc.Spelling(),
			Reason:  "directive not found",
		})
		return Verdict{}, false, nil
	}
	modified, err := scandeps.RemoveLine(lease.Content(), idx)
	if err != nil {
		return Verdict{}, false, err
	}
	err = lease.Write(ctx, modified)
	if err != nil {
		return Verdict{}, false, err
	}

	cmd, err := v.build(ctx, fmt.Sprintf("trial-%d", n), fmt.Sprintf("trial %d/%d %s:%d", n, total, rel, idx+1))
	if err != nil {
		return Verdict{}, false, err
	}
	res := cmd.Result()
	diags := gccutil.ParseDiagnostics(cmd.Output())
	verdict = Verdict{
		Path:           inc.Path,
		RelPath:        rel,
		Target:         inc.Target,
		Spelling:       inc.Spelling(),
		Line:           idx + 1,
		Classification: Classify(diags.Count(), v.baseline.Diagnostics.Count()),
		Diagnostics:    diags.Count(),
		ExitCode:       res.ExitCode,
	}
	clog.Debugf(ctx, "exit=%d diagnostics=%d baseline=%d: %s in %s", res.ExitCode, diags.Count(), v.baseline.Diagnostics.Count(), verdict.Classification, res.Duration)
	v.logRecord(triallog.Record{
		Kind:                triallog.KindTrial,
		File:                rel,
		Include:             inc.Spelling(),
		Line:                verdict.Line,
		ExitCode:            res.ExitCode,
		Diagnostics:         diags.Count(),
		BaselineDiagnostics: v.baseline.Diagnostics.Count(),
		DiagnosticLines:     newDiagnostics(diags, v.baseline.Diagnostics),
		Verdict:             verdict.Classification.String(),
		Duration:            res.Duration,
	})
	return verdict, true, nil
}

// newDiagnostics returns lines of trial that are not in baseline.
func newDiagnostics(trial, baseline gccutil.DiagnosticSet) []string {
	seen := make(map[string]int)
	for _, l := range baseline.Lines() {
		seen[l]++
	}
	var lines []string
	for _, l := range trial.Lines() {
		if seen[l] > 0 {
			seen[l]--
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
