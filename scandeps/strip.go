// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

// StripComments returns a copy of lines where C block comments and
// line comments are replaced by spaces.
//
// The result has the same number of lines as the input, and every line
// has the same length as its input line, so line and column positions
// found in the result are valid for the input.
// A block comment state continues across lines, and `//` inside a block
// comment doesn't start a line comment.
func StripComments(lines []string) []string {
	out := make([]string, len(lines))
	inBlock := false
	for i, line := range lines {
		if !inBlock && !hasCommentMarker(line) {
			out[i] = line
			continue
		}
		buf := []byte(line)
		for j := 0; j < len(buf); j++ {
			if inBlock {
				if buf[j] == '*' && j+1 < len(buf) && buf[j+1] == '/' {
					buf[j], buf[j+1] = ' ', ' '
					j++
					inBlock = false
					continue
				}
				buf[j] = ' '
				continue
			}
			if buf[j] != '/' || j+1 >= len(buf) {
				continue
			}
			switch buf[j+1] {
			case '*':
				buf[j], buf[j+1] = ' ', ' '
				j++
				inBlock = true
			case '/':
				blank(buf[j:])
				j = len(buf)
			}
		}
		out[i] = string(buf)
	}
	return out
}

func hasCommentMarker(line string) bool {
	for j := 0; j+1 < len(line); j++ {
		if line[j] == '/' && (line[j+1] == '*' || line[j+1] == '/') {
			return true
		}
	}
	return false
}

func blank(buf []byte) {
	for i := range buf {
		buf[i] = ' '
	}
}
