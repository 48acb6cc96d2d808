// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.h":      "#include \"b.h\"\n// #include \"c.h\"\n#include <stdio.h>\n",
		"b.h":      "",
		"src/x.cc": "#include \"a.h\"\n",
	} {
		fname := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(fname, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for _, tc := range []struct {
		exts string
		want string
	}{
		{
			exts: ".h",
			want: "a.h:1: \"b.h\"\na.h:3: <stdio.h>\n",
		},
		{
			exts: ".h,.cc",
			want: "a.h:1: \"b.h\"\na.h:3: <stdio.h>\nsrc/x.cc:1: \"a.h\"\n",
		},
	} {
		c := &run{dir: dir, exts: tc.exts}
		var buf bytes.Buffer
		err := c.run(ctx, &buf, nil)
		if err != nil {
			t.Fatalf("run(ctx, buf, nil)=%v; want nil", err)
		}
		if diff := cmp.Diff(tc.want, buf.String()); diff != "" {
			t.Errorf("exts=%q diff -want +got:\n%s", tc.exts, diff)
		}
	}
}
