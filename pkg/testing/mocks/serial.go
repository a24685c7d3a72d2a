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

package mocks

import (
	"errors"
	"time"

	"github.com/GoldsteinE/fw-lights/pkg/helpers/syncutil"
)

// MockSerialPort is an in-memory serial port. Every Write call is recorded
// as one entry; reads are served from Replies.
type MockSerialPort struct {
	WriteError  error
	DrainError  error
	CloseError  error
	TimeoutErr  error
	OnWrite     func(p []byte)
	writes      [][]byte
	Replies     []byte
	ReadTimeout time.Duration
	mu          syncutil.Mutex
	Closed      bool
}

func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	if m.Closed {
		m.mu.Unlock()
		return 0, errors.New("port closed")
	}
	if m.WriteError != nil {
		err := m.WriteError
		m.mu.Unlock()
		return 0, err
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	onWrite := m.OnWrite
	m.mu.Unlock()

	if onWrite != nil {
		onWrite(p)
	}
	return len(p), nil
}

// Read returns queued reply bytes, or nothing as a timed out read would.
func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, errors.New("port closed")
	}
	if len(m.Replies) == 0 {
		return 0, nil
	}
	n := copy(p, m.Replies)
	m.Replies = m.Replies[n:]
	return n, nil
}

func (m *MockSerialPort) Drain() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DrainError
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadTimeout = t
	return m.TimeoutErr
}

// SetWriteError makes subsequent writes fail (thread-safe).
func (m *MockSerialPort) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteError = err
}

// Writes returns a copy of everything written so far, one entry per call.
func (m *MockSerialPort) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// ResetWrites forgets recorded writes.
func (m *MockSerialPort) ResetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}

func (m *MockSerialPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}
