// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sweep

import (
	"fmt"

	"github.com/diffstorm/includesweeper/toolsupport/gccutil"
)

// Classification is a classification of an include directive.
type Classification int

const (
	// Required means removing the directive increased diagnostics.
	Required Classification = iota
	// Redundant means removing the directive didn't increase diagnostics.
	Redundant
)

func (c Classification) String() string {
	switch c {
	case Required:
		return "required"
	case Redundant:
		return "redundant"
	}
	return fmt.Sprintf("Classification(%d)", int(c))
}

// Classify classifies a directive by the diagnostic count of its trial
// build against the baseline count.
// Equal counts are redundant. Exit codes are not considered.
func Classify(trial, baseline int) Classification {
	if trial <= baseline {
		return Redundant
	}
	return Required
}

// Verdict is a verdict of a trial.
type Verdict struct {
	// Path is the absolute path of the file that has the directive.
	Path string
	// RelPath is Path relative to the project root.
	RelPath string
	// Target is the include target without delimiters.
	Target string
	// Spelling is the include target with delimiters.
	Spelling string
	// Line is the 1-based line number of the removed line.
	Line int

	Classification Classification

	// Diagnostics is the number of diagnostics of the trial build.
	Diagnostics int
	// ExitCode is the exit code of the trial build.
	ExitCode int
}

func (v Verdict) String() string {
	return fmt.Sprintf("%s:%d: %s %s", v.RelPath, v.Line, v.Spelling, v.Classification)
}

// Baseline is the result of the build of the unmodified project.
type Baseline struct {
	ExitCode    int
	Diagnostics gccutil.DiagnosticSet
}
