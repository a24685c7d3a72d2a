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
	"fmt"

	"github.com/GoldsteinE/fw-lights/pkg/animations"
	"github.com/GoldsteinE/fw-lights/pkg/frames"
	"github.com/stretchr/testify/mock"
)

// MockPowerPorts is a testify mock of power.Ports.
type MockPowerPorts struct {
	mock.Mock
}

func (m *MockPowerPorts) SinkPorts() ([]int, error) {
	args := m.Called()
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock operation failed: %w", err)
	}
	if sinks, ok := args.Get(0).([]int); ok {
		return sinks, nil
	}
	return nil, nil
}

// MockBuilder is a testify mock of animations.Builder.
type MockBuilder struct {
	mock.Mock
}

func (m *MockBuilder) Build() animations.Animation {
	args := m.Called()
	if a, ok := args.Get(0).(animations.Animation); ok {
		return a
	}
	return EmptyAnimation{}
}

func (m *MockBuilder) At(offset int8) animations.Animation {
	args := m.Called(offset)
	if a, ok := args.Get(0).(animations.Animation); ok {
		return a
	}
	return EmptyAnimation{}
}

// EmptyAnimation has no frames.
type EmptyAnimation struct{}

func (EmptyAnimation) Next() (frames.Frame, bool) {
	return frames.Frame{}, false
}
