// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !windows

package runtimex

// runtime.NumCPU is used.
func activeProcessorCount() int { return 0 }
