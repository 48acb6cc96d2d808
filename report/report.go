// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package report renders redundant include directives.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/diffstorm/includesweeper/sweep"
)

// Options is options of Render.
type Options struct {
	// JSON renders JSON instead of a table.
	JSON bool
}

// Entry is an entry of the JSON report.
type Entry struct {
	Include string `json:"include"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

// JSONReport is the JSON report.
type JSONReport struct {
	Directory string  `json:"directory"`
	Redundant []Entry `json:"redundant"`
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render writes the redundant verdicts of verdicts to w.
// Required verdicts are not rendered.
func Render(w io.Writer, root string, verdicts []sweep.Verdict, opts Options) error {
	entries := []Entry{}
	for _, v := range verdicts {
		if v.Classification != sweep.Redundant {
			continue
		}
		entries = append(entries, Entry{
			Include: v.Target,
			File:    filepath.ToSlash(v.RelPath),
			Line:    v.Line,
		})
	}
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(JSONReport{
			Directory: root,
			Redundant: entries,
		})
	}

	_, err := fmt.Fprintf(w, "Directory: %s\n", root)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err = fmt.Fprintln(w, "\nNo redundant includes found.")
		return err
	}
	_, err = fmt.Fprintln(w, "\nRedundant Includes:")
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{strconv.Itoa(i), e.Include, e.File, strconv.Itoa(e.Line)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		Headers("", "Include", "File", "Line").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err = fmt.Fprintln(w, t.String())
	return err
}
