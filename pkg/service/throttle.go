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

package service

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Throttle lets one event through per cooldown period. It is lock free:
// the time of the last accepted event is swapped in atomically.
type Throttle struct {
	clock    clockwork.Clock
	last     atomic.Int64
	cooldown time.Duration
}

func NewThrottle(clock clockwork.Clock, cooldown time.Duration) *Throttle {
	return &Throttle{clock: clock, cooldown: cooldown}
}

// Allow reports whether an event happening now is accepted, and if so
// records it.
func (t *Throttle) Allow() bool {
	now := t.clock.Now().UnixNano()
	for {
		last := t.last.Load()
		if last != 0 && now-last < int64(t.cooldown) {
			return false
		}
		if t.last.CompareAndSwap(last, now) {
			return true
		}
	}
}
