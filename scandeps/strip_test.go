// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStripComments(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no-comment",
			in:   []string{`#include "a.h"`, "int x;"},
			want: []string{`#include "a.h"`, "int x;"},
		},
		{
			name: "line-comment",
			in:   []string{`#include "a.h" // for A`, `// #include "b.h"`},
			want: []string{`#include "a.h"         `, `                 `},
		},
		{
			name: "block-comment-in-line",
			in:   []string{`/* x */ #include "a.h"`},
			want: []string{`        #include "a.h"`},
		},
		{
			name: "block-comment-multi-line",
			in: []string{
				`int a; /* start`,
				`#include "b.h"`,
				`end */ #include "c.h"`,
			},
			want: []string{
				`int a;         `,
				`              `,
				`       #include "c.h"`,
			},
		},
		{
			name: "line-comment-marker-in-block",
			in: []string{
				`/*`,
				`// still in block`,
				`#include "b.h"`,
				`*/`,
				`#include "c.h"`,
			},
			want: []string{
				`  `,
				`                 `,
				`              `,
				`  `,
				`#include "c.h"`,
			},
		},
		{
			name: "block-marker-in-line-comment",
			in: []string{
				`// /* not a block`,
				`#include "a.h"`,
			},
			want: []string{
				`                 `,
				`#include "a.h"`,
			},
		},
		{
			name: "slash-star-slash",
			in: []string{
				`/*/ #include "a.h"`,
				`*/`,
			},
			want: []string{
				`                  `,
				`  `,
			},
		},
		{
			name: "unterminated-block",
			in: []string{
				`#include "a.h"`,
				`/* never closed`,
				`#include "b.h"`,
			},
			want: []string{
				`#include "a.h"`,
				`               `,
				`              `,
			},
		},
		{
			// known limitation: no string literal awareness.
			name: "string-literal",
			in:   []string{`const char* s = "http://example.com";`},
			want: []string{`const char* s = "http:               `},
		},
		{
			name: "empty",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := StripComments(tc.in)
			if len(got) != len(tc.in) {
				t.Fatalf("StripComments(%q) returns %d lines; want %d", tc.in, len(got), len(tc.in))
			}
			for i := range got {
				if len(got[i]) != len(tc.in[i]) {
					t.Errorf("line %d: len=%d; want %d", i, len(got[i]), len(tc.in[i]))
				}
			}
			if tc.want == nil {
				tc.want = []string{}
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("StripComments(%q) diff -want +got:\n%s", tc.in, diff)
			}
		})
	}
}
