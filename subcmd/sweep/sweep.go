// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package sweep is sweep subcommand to find redundant include directives.
package sweep

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"github.com/diffstorm/includesweeper/o11y/clog"
	"github.com/diffstorm/includesweeper/o11y/triallog"
	"github.com/diffstorm/includesweeper/report"
	"github.com/diffstorm/includesweeper/scandeps"
	"github.com/diffstorm/includesweeper/sweep"
	"github.com/diffstorm/includesweeper/ui"
)

// CmdEnvVar is the environment variable for the default build command.
const CmdEnvVar = "INCLUDESWEEPER_CMD"

const usage = `find redundant #include directives

 $ includesweeper sweep -C <project> -cmd '<build command>'

Runs the build command in <project> once unmodified, then once per
#include directive with the directive removed. A directive is redundant
when its removal doesn't increase the number of "error:" and "warning:"
lines in the build output.

Each file is restored right after its build. The build command must fail
for a broken tree; a make target that ignores errors hides them.
`

// Cmd returns the Command for the `sweep` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "sweep -C <project> -cmd <command>",
		ShortDesc: "find redundant include directives",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	dir       string
	command   string
	exts      string
	json      bool
	trialLog  string
	keepGoing bool
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "project root directory. the build command runs in this directory")
	c.Flags.StringVar(&c.dir, "path", ".", "alias of -C")
	c.Flags.StringVar(&c.command, "cmd", "", "build command, run by the shell. default is $"+CmdEnvVar)
	c.Flags.StringVar(&c.exts, "ext", strings.Join(scandeps.DefaultExtensions, ","), "comma separated file extensions to check")
	c.Flags.BoolVar(&c.json, "json", false, "print the report in json")
	c.Flags.StringVar(&c.trialLog, "trial_log", "", "write a zstd compressed json record of every build to this file")
	c.Flags.BoolVar(&c.keepGoing, "keep_going", true, "skip directives that fail for reasons other than the build, e.g. unreadable files")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	if c.command == "" {
		c.command = env[CmdEnvVar].Value
	}
	err := c.run(ctx, args)
	if err != nil {
		var berr *sweep.BaselineError
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
			return 2
		case errors.As(err, &berr):
			fmt.Fprintf(os.Stderr, "Error: %v\n", sweep.ErrBaselineFailed)
			printOutput(os.Stderr, berr)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("position arguments not expected: %q: %w", args, flag.ErrHelp)
	}
	if c.command == "" {
		return fmt.Errorf("no build command. set -cmd or $%s: %w", CmdEnvVar, flag.ErrHelp)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer signals.HandleInterrupt(cancel)()

	var tl *triallog.Writer
	if c.trialLog != "" {
		var err error
		tl, err = triallog.Create(c.trialLog)
		if err != nil {
			return err
		}
		defer func() {
			err := tl.Close()
			if err != nil {
				clog.Warningf(ctx, "failed to close trial log %s: %v", c.trialLog, err)
			}
		}()
	}

	v, err := sweep.New(sweep.Options{
		Root:        c.dir,
		Command:     c.command,
		Extensions:  splitExts(c.exts),
		TrialLog:    tl,
		StopOnError: !c.keepGoing,
	})
	if err != nil {
		return err
	}
	result, err := v.Run(ctx)
	if result == nil {
		return err
	}
	if err != nil {
		ui.Default.Warningf("incomplete run: %d of %d directives checked", result.Trials, result.Includes)
	}
	rerr := report.Render(os.Stdout, result.Root, result.Verdicts, report.Options{JSON: c.json})
	return errors.Join(err, rerr)
}

func splitExts(s string) []string {
	var exts []string
	for _, ext := range strings.Split(s, ",") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

func printOutput(w io.Writer, berr *sweep.BaselineError) {
	if berr.StartErr != nil {
		fmt.Fprintf(w, "failed to start the build command: %v\n", berr.StartErr)
	}
	fmt.Fprintf(w, "exit status: %d\n", berr.ExitCode)
	for _, out := range [][]byte{berr.Stdout, berr.Stderr} {
		if len(out) == 0 {
			continue
		}
		w.Write(out)
		if out[len(out)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
}
