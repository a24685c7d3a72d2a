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

package animations

import (
	"time"

	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/GoldsteinE/fw-lights/pkg/frames"
)

type cell struct {
	y, x uint8
}

// Costs is how much brightness is lost moving one step in each direction.
type Costs struct {
	Stay  uint8
	Horiz uint8
	Vert  uint8
	Diag  uint8
}

// step returns the cost of moving by (dy, dx). Spread never asks for (0, 0):
// only neighbours are lit each generation.
func (c Costs) step(dy, dx int) uint8 {
	switch {
	case dy == 0 && dx == 0:
		return c.Stay
	case dy == 0:
		return c.Horiz
	case dx == 0:
		return c.Vert
	default:
		return c.Diag
	}
}

// Spread lights its seeds and lets brightness flow outwards, losing the step
// cost with every move, until nothing is lit.
type Spread struct {
	current  map[cell]uint8
	buffer   map[cell]uint8
	duration time.Duration
	costs    Costs
}

// NewSpread seeds a spread animation. Seed rows are moved by offset and
// seeds that end up outside the grid are dropped.
//
//nolint:gocritic // config is captured by value
func NewSpread(cfg config.Spread, offset int8) *Spread {
	s := &Spread{
		current:  make(map[cell]uint8, frames.Width*frames.Height),
		buffer:   make(map[cell]uint8, frames.Width*frames.Height),
		duration: cfg.FrameDuration,
		costs: Costs{
			Stay:  cfg.StayCost,
			Horiz: cfg.HorizCost,
			Vert:  cfg.VertCost,
			Diag:  cfg.DiagCost,
		},
	}

	for _, seed := range cfg.Seeds {
		x, y, brightness := seed[0], int(seed[1])+int(offset), seed[2]
		if x >= frames.Width || y < 0 || y >= frames.Height {
			continue
		}
		s.current[cell{y: uint8(y), x: x}] = brightness
	}
	return s
}

func (s *Spread) Next() (frames.Frame, bool) {
	if len(s.current) == 0 {
		return frames.Frame{}, false
	}

	frame := frames.Frame{
		Data:        s.snapshot(),
		MinDuration: s.duration,
	}

	clear(s.buffer)
	for c, brightness := range s.current {
		for ny := int(c.y) - 1; ny <= int(c.y)+1; ny++ {
			for nx := int(c.x) - 1; nx <= int(c.x)+1; nx++ {
				if ny < 0 || ny >= frames.Height || nx < 0 || nx >= frames.Width {
					continue
				}
				dy, dx := ny-int(c.y), nx-int(c.x)
				if dy == 0 && dx == 0 {
					continue
				}
				cost := s.costs.step(dy, dx)
				if brightness <= cost {
					continue
				}
				n := cell{y: uint8(ny), x: uint8(nx)}
				s.buffer[n] = max(s.buffer[n], brightness-cost)
			}
		}
	}
	s.current, s.buffer = s.buffer, s.current

	return frame, true
}

func (s *Spread) snapshot() frames.GrayFrame {
	var out frames.GrayFrame
	for c, brightness := range s.current {
		out[c.x][c.y] = brightness
	}
	return out
}

// SpreadBuilder makes spread animations from a fixed config.
type SpreadBuilder struct {
	cfg config.Spread
}

//nolint:gocritic // config is captured by value
func NewSpreadBuilder(cfg config.Spread) *SpreadBuilder {
	seeds := make([][3]uint8, len(cfg.Seeds))
	copy(seeds, cfg.Seeds)
	cfg.Seeds = seeds
	return &SpreadBuilder{cfg: cfg}
}

func (b *SpreadBuilder) Build() Animation {
	return b.At(0)
}

func (b *SpreadBuilder) At(offset int8) Animation {
	return NewSpread(b.cfg, offset)
}
