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

// Package animations produces the frame sequences played on the matrices:
// keyframe files and the procedural spread animation.
package animations

import "github.com/GoldsteinE/fw-lights/pkg/frames"

// Animation is a single-pass sequence of frames. Once Next reports false the
// animation is exhausted and never yields again.
type Animation interface {
	Next() (frames.Frame, bool)
}

// Builder makes fresh, independent Animations. Builders are immutable and
// safe for concurrent use.
type Builder interface {
	// Build returns an animation at the builder's default offset.
	Build() Animation
	// At returns an animation with every row shifted by offset.
	At(offset int8) Animation
}
