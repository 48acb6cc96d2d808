// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/diffstorm/includesweeper/o11y/clog"
	"github.com/diffstorm/includesweeper/runtimex"
)

// DefaultExtensions are file extensions of C/C++ sources and headers.
var DefaultExtensions = []string{".c", ".cpp", ".h", ".hpp"}

// Discover returns files under root whose name ends with one of exts,
// in lexical order.
// Version control directories (.git, .hg, .svn) are not visited.
func Discover(ctx context.Context, root string, exts []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".hg", ".svn":
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if hasExtension(d.Name(), exts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	clog.Debugf(ctx, "discovered %d files in %s", len(files), root)
	return files, nil
}

func hasExtension(name string, exts []string) bool {
	return slices.ContainsFunc(exts, func(ext string) bool {
		return strings.HasSuffix(name, ext)
	})
}

// ScanResult is a scan result of a file.
type ScanResult struct {
	Path     string
	Source   *SourceFile
	Includes []Include
	// Err is set when the file could not be read.
	Err error
}

// Scan reads and scans files concurrently.
// Results are in the same order as files. A file that can't be read
// has Err in its result; it doesn't stop scanning other files.
func Scan(ctx context.Context, files []string) ([]ScanResult, error) {
	results := make([]ScanResult, len(files))
	var g errgroup.Group
	g.SetLimit(runtimex.NumCPU())
	for i, fname := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := ReadSource(fname)
			if err != nil {
				results[i] = ScanResult{Path: fname, Err: err}
				return nil
			}
			results[i] = ScanResult{
				Path:     fname,
				Source:   src,
				Includes: CPPScan(ctx, fname, src.Lines),
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return results, nil
}
