// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package semaphore provides named counting semaphores.
package semaphore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	mu       sync.Mutex
	registry = map[string]*Semaphore{}
)

// Semaphore is a counting semaphore.
type Semaphore struct {
	name  string
	slots chan struct{}

	waits atomic.Int64
	reqs  atomic.Int64
}

// New creates a new semaphore with name and capacity n, and registers it.
// A semaphore registered with the same name is replaced.
func New(name string, n int) *Semaphore {
	if n <= 0 {
		n = 1
	}
	s := &Semaphore{
		name:  name,
		slots: make(chan struct{}, n),
	}
	mu.Lock()
	registry[name] = s
	mu.Unlock()
	return s
}

// Lookup returns the semaphore registered for name.
func Lookup(name string) (*Semaphore, error) {
	mu.Lock()
	defer mu.Unlock()
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("semaphore %q not found", name)
	}
	return s, nil
}

// WaitAcquire acquires a slot of the semaphore.
// It returns a func to release the slot.
func (s *Semaphore) WaitAcquire(ctx context.Context) (func(), error) {
	s.waits.Add(1)
	defer s.waits.Add(-1)
	select {
	case s.slots <- struct{}{}:
		s.reqs.Add(1)
		var once sync.Once
		return func() {
			once.Do(func() { <-s.slots })
		}, nil
	case <-ctx.Done():
		return func() {}, context.Cause(ctx)
	}
}

// Do runs f while holding a slot of the semaphore.
func (s *Semaphore) Do(ctx context.Context, f func(ctx context.Context) error) error {
	done, err := s.WaitAcquire(ctx)
	if err != nil {
		return err
	}
	defer done()
	return f(ctx)
}

// Name returns name of the semaphore.
func (s *Semaphore) Name() string {
	return s.name
}

// Capacity returns capacity of the semaphore.
func (s *Semaphore) Capacity() int {
	if s == nil {
		return 0
	}
	return cap(s.slots)
}

// NumServs returns number of slots currently held.
func (s *Semaphore) NumServs() int {
	return len(s.slots)
}

// NumWaits returns number of waiters.
func (s *Semaphore) NumWaits() int {
	return int(s.waits.Load())
}

// NumRequests returns total number of served requests.
func (s *Semaphore) NumRequests() int {
	return int(s.reqs.Load())
}
