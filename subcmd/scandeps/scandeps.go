// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps is scandeps subcommand for debugging include scanning.
package scandeps

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"github.com/diffstorm/includesweeper/scandeps"
)

const usage = `list include directives

 $ includesweeper scandeps -C <project>

Prints the include directives that sweep would try, one per line
as <file>:<line>: <include>, without running any build.
Directives in comments are not listed.
`

// Cmd returns the Command for the `scandeps` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "scandeps <args>...",
		ShortDesc: "list include directives",
		LongDesc:  usage,
		Advanced:  true,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	dir  string
	exts string
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "project root directory")
	c.Flags.StringVar(&c.exts, "ext", strings.Join(scandeps.DefaultExtensions, ","), "comma separated file extensions to scan")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, os.Stdout, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("position arguments not expected: %q: %w", args, flag.ErrHelp)
	}
	root, err := filepath.Abs(c.dir)
	if err != nil {
		return err
	}
	var exts []string
	for _, ext := range strings.Split(c.exts, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	files, err := scandeps.Discover(ctx, root, exts)
	if err != nil {
		return err
	}
	results, err := scandeps.Scan(ctx, files)
	if err != nil {
		return err
	}
	n := 0
	for _, r := range results {
		if r.Err != nil {
			log.Warnf("scan %s: %v", r.Path, r.Err)
			continue
		}
		rel, err := filepath.Rel(root, r.Path)
		if err != nil {
			rel = r.Path
		}
		for _, inc := range r.Includes {
			fmt.Fprintf(w, "%s:%d: %s\n", filepath.ToSlash(rel), inc.Line+1, inc.Spelling())
			n++
		}
	}
	log.Infof("%d directives in %d files", n, len(results))
	return nil
}
