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

package frames

// GrayFrame holds one brightness byte per pixel, stored column by column.
type GrayFrame [Width][Height]uint8

func (GrayFrame) isData() {}

// GrayFromBw converts a monochrome frame, lighting "on" pixels at brightness.
func GrayFromBw(bw BwFrame, brightness uint8) GrayFrame {
	var out GrayFrame
	for x := range uint8(Width) {
		for y := range uint8(Height) {
			if bw.Get(x, y) {
				out[x][y] = brightness
			}
		}
	}
	return out
}

func (f *GrayFrame) Get(x, y uint8) uint8 {
	if !inBounds(x, y) {
		return 0
	}
	return f[x][y]
}

func (f *GrayFrame) Set(x, y, brightness uint8) {
	if !inBounds(x, y) {
		return
	}
	f[x][y] = brightness
}

// Merge keeps the brighter value of every pixel.
//
//nolint:gocritic // value semantics are the point here
func (f GrayFrame) Merge(other GrayFrame) GrayFrame {
	for x := range f {
		for y := range f[x] {
			f[x][y] = max(f[x][y], other[x][y])
		}
	}
	return f
}

//nolint:gocritic // value semantics are the point here
func (f GrayFrame) Offset(shift int8) GrayFrame {
	var out GrayFrame
	shiftRows[uint8](&out, &f, shift)
	return out
}

// BlankColumn reports whether every pixel of column x is off.
func (f *GrayFrame) BlankColumn(x int) bool {
	for _, b := range f[x] {
		if b != 0 {
			return false
		}
	}
	return true
}
