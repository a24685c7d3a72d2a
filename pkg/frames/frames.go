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

// Package frames holds the pixel grids shown on an LED matrix module and the
// algebra used to composite them.
package frames

import "time"

const (
	// Width is the number of columns on a matrix module.
	Width = 9
	// Height is the number of rows on a matrix module.
	Height = 34
	// BwFrameSize is the packed size of a BwFrame in bytes.
	BwFrameSize = (Width*Height + 7) / 8
)

// grid is pixel access shared by both frame representations. Coordinates
// outside the grid read as the zero pixel and writes to them are dropped.
type grid[P any] interface {
	Get(x, y uint8) P
	Set(x, y uint8, pixel P)
}

// shiftRows copies src into dst moving every row down by shift. Rows that
// fall outside the grid are dropped, columns never move.
func shiftRows[P any](dst, src grid[P], shift int8) {
	for y := range Height {
		sy := y - int(shift)
		if sy < 0 || sy >= Height {
			continue
		}
		for x := range Width {
			dst.Set(uint8(x), uint8(y), src.Get(uint8(x), uint8(sy)))
		}
	}
}

func inBounds(x, y uint8) bool {
	return x < Width && y < Height
}

// Data is the pixel payload of a Frame: either a BwFrame or a GrayFrame.
type Data interface {
	isData()
}

// Frame is one renderable snapshot.
type Frame struct {
	Data Data
	// MinDuration is how long the frame stays on screen before the next
	// tick is drawn.
	MinDuration time.Duration
	// Fullscreen frames are never composited, they hide everything else.
	Fullscreen bool
}

// Merge composites upper on top of f. A fullscreen upper frame wins, then a
// fullscreen f; otherwise pixels are combined (OR for two BwFrames, max
// brightness otherwise, promoting BwFrames with bwBrightness) and the result
// is never fullscreen.
//
//nolint:gocritic // frames are small values
func (f Frame) Merge(upper Frame, bwBrightness uint8) Frame {
	if upper.Fullscreen {
		return upper
	}
	if f.Fullscreen {
		return f
	}

	return Frame{
		Data:        mergeData(f.Data, upper.Data, bwBrightness),
		MinDuration: max(f.MinDuration, upper.MinDuration),
		Fullscreen:  false,
	}
}

// Offset returns a copy of f with its rows shifted by shift.
//
//nolint:gocritic // frames are small values
func (f Frame) Offset(shift int8) Frame {
	switch data := f.Data.(type) {
	case BwFrame:
		f.Data = data.Offset(shift)
	case GrayFrame:
		f.Data = data.Offset(shift)
	}
	return f
}

func mergeData(lower, upper Data, bwBrightness uint8) Data {
	lowerBw, lowerIsBw := lower.(BwFrame)
	upperBw, upperIsBw := upper.(BwFrame)
	if lowerIsBw && upperIsBw {
		return lowerBw.Merge(upperBw)
	}
	return toGray(lower, bwBrightness).Merge(toGray(upper, bwBrightness))
}

func toGray(data Data, bwBrightness uint8) GrayFrame {
	switch d := data.(type) {
	case GrayFrame:
		return d
	case BwFrame:
		return GrayFromBw(d, bwBrightness)
	default:
		return GrayFrame{}
	}
}
