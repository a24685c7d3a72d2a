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
	"fmt"

	"github.com/GoldsteinE/fw-lights/pkg/animations"
	"github.com/GoldsteinE/fw-lights/pkg/proto"
	"github.com/rs/zerolog/log"
)

// Command is something a display runtime can be asked to do.
type Command interface {
	apply(m *Matrix) error
}

// SetBrightness changes the device brightness. The value is also used to
// light up black and white pixels merged into grayscale frames.
type SetBrightness struct {
	Value uint8
}

func (c SetBrightness) apply(m *Matrix) error {
	return m.setBrightness(c.Value)
}

// AddAnimation starts playing an animation on top of everything already
// active.
type AddAnimation struct {
	Animation animations.Animation
}

func (c AddAnimation) apply(m *Matrix) error {
	if c.Animation == nil {
		return nil
	}
	m.animations = append(m.animations, c.Animation)
	log.Debug().
		Str("display", m.name).
		Int("active", m.Active()).
		Msg("animation added")
	return nil
}

func (m *Matrix) setBrightness(brightness uint8) error {
	m.brightness = brightness
	if _, err := m.port.Send(proto.SetBrightness(brightness)); err != nil {
		return fmt.Errorf("failed to set brightness: %w", err)
	}
	return nil
}
