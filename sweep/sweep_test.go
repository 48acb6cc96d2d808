// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/diffstorm/includesweeper/execute"
	"github.com/diffstorm/includesweeper/o11y/triallog"
	"github.com/diffstorm/includesweeper/ui"
)

type nopSpinner struct{}

func (nopSpinner) Start(string, ...any) {}
func (nopSpinner) Stop(error) {}
func (nopSpinner) Done(string, ...any) {}

type nopUI struct{}

func (nopUI) PrintLines(...string) {}
func (nopUI) NewSpinner() ui.Spinner { return nopSpinner{} }
func (nopUI) Infof(string, ...any) {}
func (nopUI) Warningf(string, ...any) {}
func (nopUI) Errorf(string, ...any) {}

// fakeExec runs build in place of the build command.
type fakeExec struct {
	calls int
	build func(ctx context.Context, n int, dir string) (stdout, stderr string, exitCode int, err error)
}

func (f *fakeExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	n := f.calls
	f.calls++
	stdout, stderr, exitCode, err := f.build(ctx, n, cmd.Dir)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.StdoutWriter(), stdout)
	fmt.Fprint(cmd.StderrWriter(), stderr)
	cmd.SetResult(execute.Result{ExitCode: exitCode})
	return nil
}

func setupTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		fname := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(fname, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readTree(t *testing.T, dir string, names []string) map[string]string {
	t.Helper()
	got := make(map[string]string)
	for _, name := range names {
		buf, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			t.Fatal(err)
		}
		got[name] = string(buf)
	}
	return got
}

func keys(m map[string]string) []string {
	var ks []string
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

func verdictTuples(vs []Verdict) []string {
	var ts []string
	for _, v := range vs {
		ts = append(ts, fmt.Sprintf("%s %s %d %s", v.Target, filepath.ToSlash(v.RelPath), v.Line, v.Classification))
	}
	return ts
}

var project = map[string]string{
	"a.h": `#ifndef A_H
#define A_H
#include "b.h"
#include "c.h"
int a = C_VALUE;
#endif
`,
	"b.h":    "/* nothing used */\n",
	"c.h":    "#define C_VALUE 1\n",
	"main.c": "#include \"a.h\"\nint main() { return a; }\n",
}

// projectBuild fails when a.h doesn't include c.h, or main.c doesn't
// include a.h.
func projectBuild(t *testing.T) func(context.Context, int, string) (string, string, int, error) {
	return func(ctx context.Context, n int, dir string) (string, string, int, error) {
		tree := readTree(t, dir, keys(project))
		var stderr strings.Builder
		if !strings.Contains(tree["a.h"], `#include "c.h"`) {
			stderr.WriteString("a.h:5:9: error: 'C_VALUE' undeclared here\n")
		}
		if !strings.Contains(tree["main.c"], `#include "a.h"`) {
			stderr.WriteString("main.c:2:21: error: 'a' undeclared\n")
		}
		if stderr.Len() > 0 {
			return "", stderr.String(), 1, nil
		}
		return "ok\n", "", 0, nil
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	dir := setupTree(t, project)
	fe := &fakeExec{build: projectBuild(t)}
	v, err := New(Options{
		Root:     dir,
		Command:  "make",
		Executor: fe,
		UI:       nopUI{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.State() != AwaitingBaseline {
		t.Errorf("State()=%s; want %s", v.State(), AwaitingBaseline)
	}
	result, err := v.Run(ctx)
	if err != nil {
		t.Fatalf("Run(ctx)=_, %v; want nil error", err)
	}
	if v.State() != Done {
		t.Errorf("State()=%s; want %s", v.State(), Done)
	}

	want := []string{
		"b.h a.h 3 redundant",
		"c.h a.h 4 required",
		"a.h main.c 1 required",
	}
	if diff := cmp.Diff(want, verdictTuples(result.Verdicts)); diff != "" {
		t.Errorf("verdicts diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b.h a.h 3 redundant"}, verdictTuples(result.Redundant())); diff != "" {
		t.Errorf("redundant diff -want +got:\n%s", diff)
	}
	if result.Files != 4 || result.Includes != 3 || result.Trials != 3 || result.Skipped != 0 {
		t.Errorf("files=%d includes=%d trials=%d skipped=%d; want 4 3 3 0", result.Files, result.Includes, result.Trials, result.Skipped)
	}
	if fe.calls != 4 || v.Builds() != 4 {
		t.Errorf("builds: calls=%d Builds()=%d; want 4", fe.calls, v.Builds())
	}
	if result.RunID != v.RunID() || result.RunID == "" {
		t.Errorf("RunID=%q; want %q", result.RunID, v.RunID())
	}

	if diff := cmp.Diff(project, readTree(t, dir, keys(project))); diff != "" {
		t.Errorf("tree not restored: diff -want +got:\n%s", diff)
	}
	if _, err := os.Stat(v.backupDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("backup dir %s: %v; want removed", v.backupDir, err)
	}

	if _, err := v.Run(ctx); err == nil {
		t.Errorf("second Run(ctx)=nil error; want error")
	}
}

func TestRunOneFileModifiedPerBuild(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{
		"x.h": "#include \"common.h\"\nint x;\n",
		"y.h": "#include \"common.h\"\nint y;\n",
	}
	dir := setupTree(t, files)
	fe := &fakeExec{}
	fe.build = func(ctx context.Context, n int, dir string) (string, string, int, error) {
		got := readTree(t, dir, keys(files))
		var changed []string
		for name, content := range files {
			if got[name] != content {
				changed = append(changed, name)
			}
		}
		if n == 0 && len(changed) != 0 {
			t.Errorf("baseline: changed=%q; want none", changed)
		}
		if n > 0 && len(changed) != 1 {
			t.Errorf("trial %d: changed=%q; want exactly one", n, changed)
		}
		return "", "", 0, nil
	}
	v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}})
	if err != nil {
		t.Fatal(err)
	}
	result, err := v.Run(ctx)
	if err != nil {
		t.Fatalf("Run(ctx)=_, %v; want nil error", err)
	}
	want := []string{
		"common.h x.h 1 redundant",
		"common.h y.h 1 redundant",
	}
	if diff := cmp.Diff(want, verdictTuples(result.Verdicts)); diff != "" {
		t.Errorf("verdicts diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff(files, readTree(t, dir, keys(files))); diff != "" {
		t.Errorf("tree not restored: diff -want +got:\n%s", diff)
	}
}

func TestRunDuplicateInclude(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{
		"d.h": "#include \"a.h\"\nint x;\n#include \"a.h\"\n",
	}
	dir := setupTree(t, files)
	fe := &fakeExec{
		build: func(ctx context.Context, n int, dir string) (string, string, int, error) {
			if n > 0 {
				got := readTree(t, dir, keys(files))["d.h"]
				if want := "int x;\n#include \"a.h\"\n"; got != want {
					t.Errorf("trial %d: d.h=%q; want %q", n, got, want)
				}
			}
			return "", "", 0, nil
		},
	}
	v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}})
	if err != nil {
		t.Fatal(err)
	}
	result, err := v.Run(ctx)
	if err != nil {
		t.Fatalf("Run(ctx)=_, %v; want nil error", err)
	}
	want := []string{
		"a.h d.h 1 redundant",
		"a.h d.h 1 redundant",
	}
	if diff := cmp.Diff(want, verdictTuples(result.Verdicts)); diff != "" {
		t.Errorf("verdicts diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff(files, readTree(t, dir, keys(files))); diff != "" {
		t.Errorf("tree not restored: diff -want +got:\n%s", diff)
	}
}

func TestRunMutationGate(t *testing.T) {
	ctx := context.Background()
	dir := setupTree(t, project)
	before := mutationSema.NumRequests()
	fe := &fakeExec{}
	fe.build = func(ctx context.Context, n int, dir string) (string, string, int, error) {
		if n > 0 && mutationSema.NumServs() != 1 {
			t.Errorf("trial %d: mutation slots held=%d; want 1", n, mutationSema.NumServs())
		}
		return projectBuild(t)(ctx, n, dir)
	}
	v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Run(ctx); err != nil {
		t.Fatalf("Run(ctx)=_, %v; want nil error", err)
	}
	if got := mutationSema.NumRequests() - before; got != 3 {
		t.Errorf("mutation requests=%d; want 3", got)
	}
	if mutationSema.NumServs() != 0 || mutationSema.NumWaits() != 0 {
		t.Errorf("mutation serving=%d waiting=%d; want 0 0", mutationSema.NumServs(), mutationSema.NumWaits())
	}
	if got, want := semaStats("mutation"), "semaphore mutation: capacity=1 serving=0 waiting=0 served="; !strings.HasPrefix(got, want) {
		t.Errorf("semaStats(mutation)=%q; want prefix %q", got, want)
	}
	if got := semaStats("no-such-gate"); !strings.Contains(got, "not found") {
		t.Errorf("semaStats(no-such-gate)=%q; want not found", got)
	}
}

func TestRunBaselineFailed(t *testing.T) {
	ctx := context.Background()
	dir := setupTree(t, project)
	fe := &fakeExec{
		build: func(ctx context.Context, n int, dir string) (string, string, int, error) {
			return "make: entering\n", "main.c:1: error: boom\n", 2, nil
		},
	}
	v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}})
	if err != nil {
		t.Fatal(err)
	}
	result, err := v.Run(ctx)
	if !errors.Is(err, ErrBaselineFailed) {
		t.Fatalf("Run(ctx)=_, %v; want %v", err, ErrBaselineFailed)
	}
	if result != nil {
		t.Errorf("Run(ctx)=%v; want nil result", result)
	}
	var berr *BaselineError
	if !errors.As(err, &berr) {
		t.Fatalf("Run(ctx)=%v; want *BaselineError", err)
	}
	if berr.ExitCode != 2 || string(berr.Stdout) != "make: entering\n" || string(berr.Stderr) != "main.c:1: error: boom\n" {
		t.Errorf("BaselineError=%#v", berr)
	}
	if fe.calls != 1 {
		t.Errorf("builds=%d; want 1", fe.calls)
	}
	if v.State() != Aborted {
		t.Errorf("State()=%s; want %s", v.State(), Aborted)
	}
}

func TestRunNoProject(t *testing.T) {
	ctx := context.Background()
	fe := &fakeExec{
		build: func(ctx context.Context, n int, dir string) (string, string, int, error) {
			return "", "", 0, nil
		},
	}
	v, err := New(Options{
		Root:     filepath.Join(t.TempDir(), "nonexistent"),
		Command:  "make",
		Executor: fe,
		UI:       nopUI{},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = v.Run(ctx)
	if !errors.Is(err, ErrNoProject) {
		t.Errorf("Run(ctx)=_, %v; want %v", err, ErrNoProject)
	}
	if fe.calls != 0 {
		t.Errorf("builds=%d; want 0", fe.calls)
	}
	if v.State() != Aborted {
		t.Errorf("State()=%s; want %s", v.State(), Aborted)
	}
}

func TestNewInvalid(t *testing.T) {
	for _, opts := range []Options{
		{Root: "."},
		{Command: "make"},
	} {
		_, err := New(opts)
		if err == nil {
			t.Errorf("New(%#v)=_, nil; want error", opts)
		}
	}
}

func TestRunWarningBaseline(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{
		"w.c": "#include \"same.h\"\n#include \"more.h\"\n#include \"less.h\"\n",
	}
	dir := setupTree(t, files)
	fe := &fakeExec{
		build: func(ctx context.Context, n int, dir string) (string, string, int, error) {
			tree := readTree(t, dir, keys(files))
			w := "w.c:9: warning: unused\nw.c:10: warning: unused\n"
			switch {
			case !strings.Contains(tree["w.c"], "more.h"):
				w += "w.c:11: warning: implicit declaration\n"
			case !strings.Contains(tree["w.c"], "less.h"):
				w = "w.c:9: warning: unused\n"
			}
			return "", w, 0, nil
		},
	}
	v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}})
	if err != nil {
		t.Fatal(err)
	}
	result, err := v.Run(ctx)
	if err != nil {
		t.Fatalf("Run(ctx)=_, %v; want nil error", err)
	}
	if got := result.Baseline.Diagnostics.Count(); got != 2 {
		t.Errorf("baseline diagnostics=%d; want 2", got)
	}
	want := []string{
		"same.h w.c 1 redundant",
		"more.h w.c 2 required",
		"less.h w.c 3 redundant",
	}
	if diff := cmp.Diff(want, verdictTuples(result.Verdicts)); diff != "" {
		t.Errorf("verdicts diff -want +got:\n%s", diff)
	}
}

func TestRunDirectiveNotFound(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{
		"x.h": "#include \"a.h\"\n",
		"y.h": "#include \"a.h\"\n",
	}
	dir := setupTree(t, files)
	fe := &fakeExec{
		build: func(ctx context.Context, n int, dir string) (string, string, int, error) {
			if n == 1 {
				// y.h is rewritten while x.h is under trial.
				err := os.WriteFile(filepath.Join(dir, "y.h"), []byte("int y;\n"), 0644)
				if err != nil {
					t.Error(err)
				}
			}
			return "", "", 0, nil
		},
	}
	var buf bytes.Buffer
	tl, err := triallog.New(&buf)
	if err != nil {
		t.Fatal(err)
	}
	v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}, TrialLog: tl})
	if err != nil {
		t.Fatal(err)
	}
	result, err := v.Run(ctx)
	if err != nil {
		t.Fatalf("Run(ctx)=_, %v; want nil error", err)
	}
	if result.Trials != 1 || result.Skipped != 1 || fe.calls != 2 {
		t.Errorf("trials=%d skipped=%d builds=%d; want 1 1 2", result.Trials, result.Skipped, fe.calls)
	}
	if diff := cmp.Diff([]string{"a.h x.h 1 redundant"}, verdictTuples(result.Verdicts)); diff != "" {
		t.Errorf("verdicts diff -want +got:\n%s", diff)
	}
	got := readTree(t, dir, keys(files))
	if got["x.h"] != files["x.h"] || got["y.h"] != "int y;\n" {
		t.Errorf("tree=%q", got)
	}

	if err := tl.Close(); err != nil {
		t.Fatal(err)
	}
	records, err := triallog.Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, r := range records {
		if r.RunID != result.RunID {
			t.Errorf("record RunID=%q; want %q", r.RunID, result.RunID)
		}
		kinds = append(kinds, r.Kind+" "+filepath.ToSlash(r.File))
	}
	wantKinds := []string{"baseline ", "trial x.h", "skip y.h"}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Errorf("trial log kinds diff -want +got:\n%s", diff)
	}
}

func TestRunExecutorError(t *testing.T) {
	ctx := context.Background()
	dir := setupTree(t, project)
	fe := &fakeExec{}
	fe.build = func(ctx context.Context, n int, dir string) (string, string, int, error) {
		if n == 1 {
			return "", "", 0, errors.New("executor broken")
		}
		return projectBuild(t)(ctx, n, dir)
	}

	t.Run("contained", func(t *testing.T) {
		fe.calls = 0
		v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}})
		if err != nil {
			t.Fatal(err)
		}
		result, err := v.Run(ctx)
		if err != nil {
			t.Fatalf("Run(ctx)=_, %v; want nil error", err)
		}
		if result.Trials != 2 || result.Skipped != 1 {
			t.Errorf("trials=%d skipped=%d; want 2 1", result.Trials, result.Skipped)
		}
		if diff := cmp.Diff(project, readTree(t, dir, keys(project))); diff != "" {
			t.Errorf("tree not restored: diff -want +got:\n%s", diff)
		}
	})

	t.Run("stop", func(t *testing.T) {
		fe.calls = 0
		v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}, StopOnError: true})
		if err != nil {
			t.Fatal(err)
		}
		result, err := v.Run(ctx)
		if err == nil {
			t.Fatalf("Run(ctx)=_, nil; want error")
		}
		if result == nil || result.Trials != 0 {
			t.Errorf("Run(ctx)=%v; want result with no trials", result)
		}
		if diff := cmp.Diff(project, readTree(t, dir, keys(project))); diff != "" {
			t.Errorf("tree not restored: diff -want +got:\n%s", diff)
		}
	})
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := setupTree(t, project)
	fe := &fakeExec{}
	fe.build = func(ctx context.Context, n int, dir string) (string, string, int, error) {
		if n == 2 {
			cancel()
			return "", "", 0, ctx.Err()
		}
		return projectBuild(t)(ctx, n, dir)
	}
	v, err := New(Options{Root: dir, Command: "make", Executor: fe, UI: nopUI{}})
	if err != nil {
		t.Fatal(err)
	}
	result, err := v.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run(ctx)=_, %v; want %v", err, context.Canceled)
	}
	if result == nil || result.Trials != 1 {
		t.Errorf("Run(ctx)=%v; want result with 1 trial", result)
	}
	if fe.calls != 3 {
		t.Errorf("builds=%d; want 3", fe.calls)
	}
	if diff := cmp.Diff(project, readTree(t, dir, keys(project))); diff != "" {
		t.Errorf("tree not restored: diff -want +got:\n%s", diff)
	}
}

func TestRunLocalExec(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	ctx := context.Background()
	dir := setupTree(t, project)
	v, err := New(Options{
		Root:    dir,
		Command: `grep -q 'include "c.h"' a.h || { echo "a.h:5:9: error: 'C_VALUE' undeclared" >&2; exit 1; }`,
		UI:      nopUI{},
	})
	if err != nil {
		t.Fatal(err)
	}
	result, err := v.Run(ctx)
	if err != nil {
		t.Fatalf("Run(ctx)=_, %v; want nil error", err)
	}
	want := []string{
		"b.h a.h 3 redundant",
		"a.h main.c 1 redundant",
	}
	if diff := cmp.Diff(want, verdictTuples(result.Redundant())); diff != "" {
		t.Errorf("redundant diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff(project, readTree(t, dir, keys(project))); diff != "" {
		t.Errorf("tree not restored: diff -want +got:\n%s", diff)
	}
}

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		trial, baseline int
		want            Classification
	}{
		{trial: 0, baseline: 0, want: Redundant},
		{trial: 1, baseline: 0, want: Required},
		{trial: 2, baseline: 2, want: Redundant},
		{trial: 1, baseline: 2, want: Redundant},
		{trial: 3, baseline: 2, want: Required},
	} {
		if got := Classify(tc.trial, tc.baseline); got != tc.want {
			t.Errorf("Classify(%d, %d)=%s; want=%s", tc.trial, tc.baseline, got, tc.want)
		}
	}
}
