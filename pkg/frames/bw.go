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

// BwFrame is a monochrome frame packed row-major, least significant bit
// first: pixel (x, y) is bit (y*9+x)%8 of byte (y*9+x)/8.
type BwFrame [BwFrameSize]byte

func (BwFrame) isData() {}

func (f *BwFrame) Get(x, y uint8) bool {
	if !inBounds(x, y) {
		return false
	}
	idx := int(y)*Width + int(x)
	return (f[idx/8]>>(idx%8))&1 != 0
}

func (f *BwFrame) Set(x, y uint8, on bool) {
	if !inBounds(x, y) {
		return
	}
	idx := int(y)*Width + int(x)
	if on {
		f[idx/8] |= 1 << (idx % 8)
	} else {
		f[idx/8] &^= 1 << (idx % 8)
	}
}

// Merge returns the pixelwise OR of f and other.
func (f BwFrame) Merge(other BwFrame) BwFrame {
	for i := range f {
		f[i] |= other[i]
	}
	return f
}

func (f BwFrame) Offset(shift int8) BwFrame {
	var out BwFrame
	shiftRows[bool](&out, &f, shift)
	return out
}
