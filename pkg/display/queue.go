// fw-lights
// Copyright (c) 2025 The fw-lights Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of fw-lights.
//
// fw-lights is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// fw-lights is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with fw-lights.  If not, see <http://www.gnu.org/licenses/>.

package display

import (
	"context"
	"errors"

	"github.com/GoldsteinE/fw-lights/pkg/helpers/syncutil"
)

// ErrClosed is returned when pushing to a queue whose runtime is gone or
// when popping from a closed and drained queue.
var ErrClosed = errors.New("display queue closed")

// Queue is an unbounded FIFO of commands with any number of producers and a
// single consumer.
type Queue struct {
	notify chan struct{}
	items  []Command
	mu     syncutil.Mutex
	closed bool
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends cmd. It never blocks.
func (q *Queue) Push(cmd Command) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, cmd)
	// sent under the lock so Close can't close notify in between
	select {
	case q.notify <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return nil
}

// Close stops accepting commands. Commands already queued can still be
// popped. Closing twice is a no-op.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.notify)
}

// Len is the number of commands waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// TryPop returns the oldest command without waiting.
func (q *Queue) TryPop() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Pop waits for a command. It returns ErrClosed once the queue is closed
// and empty, or the context error if ctx ends first.
func (q *Queue) Pop(ctx context.Context) (Command, error) {
	for {
		q.mu.Lock()
		cmd, ok := q.popLocked()
		closed := q.closed
		q.mu.Unlock()

		switch {
		case ok:
			return cmd, nil
		case closed:
			return nil, ErrClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

func (q *Queue) popLocked() (Command, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	cmd := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return cmd, true
}
