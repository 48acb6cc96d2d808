// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package runtimex provides the number of CPUs usable for file scanning
// and process spawning.
package runtimex

import (
	"runtime"
	"sync"
)

var numCPU = sync.OnceValue(func() int {
	n := activeProcessorCount()
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return n
})

// NumCPU returns the number of logical CPUs usable by the current process.
// On Windows it counts CPUs of all processor groups, while
// runtime.NumCPU counts only the group of the process (up to 64).
func NumCPU() int {
	return numCPU()
}
