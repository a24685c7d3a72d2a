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

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func drawBwFrame(t *rapid.T, label string) BwFrame {
	raw := rapid.SliceOfN(rapid.Byte(), BwFrameSize, BwFrameSize).Draw(t, label)
	var f BwFrame
	copy(f[:], raw)
	return f
}

func drawGrayFrame(t *rapid.T, label string) GrayFrame {
	raw := rapid.SliceOfN(rapid.Uint8(), Width*Height, Width*Height).Draw(t, label)
	var f GrayFrame
	for x := range Width {
		copy(f[x][:], raw[x*Height:(x+1)*Height])
	}
	return f
}

func drawFrame(t *rapid.T, label string, fullscreen bool) Frame {
	var data Data
	if rapid.Bool().Draw(t, label+"_bw") {
		data = drawBwFrame(t, label+"_data")
	} else {
		data = drawGrayFrame(t, label+"_data")
	}
	return Frame{
		Data:        data,
		MinDuration: time.Duration(rapid.Int64Range(0, int64(time.Second)).Draw(t, label+"_duration")),
		Fullscreen:  fullscreen,
	}
}

// TestPropertyMergeDurationIsMax verifies merged frames keep the longer duration.
func TestPropertyMergeDurationIsMax(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := drawFrame(t, "a", false)
		b := drawFrame(t, "b", false)
		brightness := rapid.Uint8().Draw(t, "brightness")

		merged := a.Merge(b, brightness)
		if merged.MinDuration != max(a.MinDuration, b.MinDuration) {
			t.Fatalf("duration %v, want max of %v and %v", merged.MinDuration, a.MinDuration, b.MinDuration)
		}
		if merged.Fullscreen {
			t.Fatalf("merge of two regular frames is fullscreen")
		}
	})
}

// TestPropertyFullscreenWins verifies a fullscreen frame survives merging either way round.
func TestPropertyFullscreenWins(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := drawFrame(t, "a", false)
		f := drawFrame(t, "f", true)
		brightness := rapid.Uint8().Draw(t, "brightness")

		if a.Merge(f, brightness) != f {
			t.Fatalf("regular.Merge(fullscreen) did not return the fullscreen frame")
		}
		if f.Merge(a, brightness) != f {
			t.Fatalf("fullscreen.Merge(regular) did not return the fullscreen frame")
		}
	})
}

// TestPropertyBwMergeCommutativeIdempotent verifies OR semantics.
func TestPropertyBwMergeCommutativeIdempotent(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := drawBwFrame(t, "a")
		b := drawBwFrame(t, "b")

		if a.Merge(b) != b.Merge(a) {
			t.Fatalf("bw merge is not commutative")
		}
		if a.Merge(a) != a {
			t.Fatalf("bw merge is not idempotent")
		}
	})
}

// TestPropertyGrayMergeIsPixelMax verifies every merged pixel is the brighter input.
func TestPropertyGrayMergeIsPixelMax(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := drawGrayFrame(t, "a")
		b := drawGrayFrame(t, "b")

		merged := a.Merge(b)
		for x := range Width {
			for y := range Height {
				if merged[x][y] != max(a[x][y], b[x][y]) {
					t.Fatalf("pixel (%d, %d) = %d, want max(%d, %d)", x, y, merged[x][y], a[x][y], b[x][y])
				}
			}
		}
	})
}

// TestPropertyOffsetRoundTrip verifies shifting a lit pixel there and back restores it.
func TestPropertyOffsetRoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Uint8Range(0, Width-1).Draw(t, "x")
		y := rapid.Uint8Range(0, Height-1).Draw(t, "y")
		shift := rapid.Int8Range(int8(-int(y)), int8(Height-1-int(y))).Draw(t, "shift")

		var f BwFrame
		f.Set(x, y, true)

		if f.Offset(shift).Offset(-shift) != f {
			t.Fatalf("offset %d did not round trip pixel (%d, %d)", shift, x, y)
		}
	})
}

// TestPropertyOffsetOutOfRangeClears verifies shifts larger than the grid blank the frame.
func TestPropertyOffsetOutOfRangeClears(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		f := drawGrayFrame(t, "f")
		shift := rapid.Int8Range(Height, 127).Draw(t, "shift")
		if rapid.Bool().Draw(t, "negative") {
			shift = -shift
		}

		if f.Offset(shift) != (GrayFrame{}) {
			t.Fatalf("offset %d left pixels on", shift)
		}
	})
}
