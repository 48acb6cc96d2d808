// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps finds C/C++ #include directives in source files.
//
// It works on a comment-free view of each file whose lines stay parallel
// to the raw lines, so a directive found at index i in the view is the
// physical line i of the file.  Comments are blanked, not deleted.
//
// It only checks the following forms of #include
//
//	#include "foo.h"
//	#include <foo.h>
//
// `#include_next`, `#import` and `#include FOO_H` are not reported.
//
// It is a line scanner, not a preprocessor.  `//` or `/*` inside
// a string or character literal is treated as a comment start, and
// `\` at the end of a `//` comment line does not continue the comment.
package scandeps
