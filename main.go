// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// includesweeper finds redundant #include directives in C/C++ projects.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"github.com/diffstorm/includesweeper/o11y/clog"
	"github.com/diffstorm/includesweeper/subcmd/help"
	"github.com/diffstorm/includesweeper/subcmd/scandeps"
	"github.com/diffstorm/includesweeper/subcmd/sweep"
	"github.com/diffstorm/includesweeper/subcmd/version"
	"github.com/diffstorm/includesweeper/ui"
)

const versionStr = "includesweeper v1.0.0"

var verbose bool

func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "includesweeper",
		Title: "find redundant #include directives in C/C++ projects",
		Context: func(ctx context.Context) context.Context {
			return clog.NewContext(ctx, log.Default())
		},
		EnvVars: map[string]subcommands.EnvVarDefinition{
			sweep.CmdEnvVar: {
				ShortDesc: "default build command of sweep",
			},
		},
		Commands: []*subcommands.Command{
			sweep.Cmd(),
			scandeps.Cmd(),

			help.Cmd(),
			version.Cmd(versionStr),
		},
	}
}

func main() {
	os.Exit(sweeperMain())
}

func sweeperMain() int {
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
	}
	log.SetDefault(logger)

	ui.Init()
	defer ui.Restore()

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	if buildinfo, ok := debug.ReadBuildInfo(); ok {
		log.Debugf("buildinfo: path=%q", buildinfo.Path)
		log.Debugf("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
	}
	return subcommands.Run(getApplication(), flag.Args())
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
