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
	"errors"
	"testing"
	"time"

	"github.com/GoldsteinE/fw-lights/pkg/animations"
	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/GoldsteinE/fw-lights/pkg/display"
	"github.com/GoldsteinE/fw-lights/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	err  error
	cmds []display.Command
}

func (f *fakeDisplay) Send(cmd display.Command) error {
	if f.err != nil {
		return f.err
	}
	f.cmds = append(f.cmds, cmd)
	return nil
}

type controllerFixture struct {
	ctrl    *controller
	left    *fakeDisplay
	right   *fakeDisplay
	builder *mocks.MockBuilder
	power   *mocks.MockPowerPorts
	clock   *clockwork.FakeClock
}

func newControllerFixture() *controllerFixture {
	f := &controllerFixture{
		left:    &fakeDisplay{},
		right:   &fakeDisplay{},
		builder: &mocks.MockBuilder{},
		power:   &mocks.MockPowerPorts{},
		clock:   clockwork.NewFakeClock(),
	}
	f.ctrl = &controller{
		builders: map[string]animations.Builder{"glow": f.builder},
		displays: map[string]sender{"left": f.left, "right": f.right},
		power:    f.power,
	}
	return f
}

func (f *controllerFixture) withCharger(offset int8) {
	f.ctrl.charger = &config.Charger{
		AnimationLeft:  "glow",
		AnimationRight: "glow",
		LeftDisplay:    "left",
		RightDisplay:   "right",
		Offset:         offset,
	}
	f.ctrl.throttle = NewThrottle(f.clock, 2*time.Second)
}

func TestController_Play(t *testing.T) {
	t.Parallel()

	f := newControllerFixture()
	anim := mocks.EmptyAnimation{}
	f.builder.On("Build").Return(anim).Once()
	f.builder.On("At", int8(-3)).Return(anim).Once()

	assert.Equal(t, ReplyOK, f.ctrl.Handle("play glow at left"))
	assert.Equal(t, ReplyOK, f.ctrl.Handle("play glow at right offset -3\n"))

	assert.Equal(t, []display.Command{display.AddAnimation{Animation: anim}}, f.left.cmds)
	assert.Equal(t, []display.Command{display.AddAnimation{Animation: anim}}, f.right.cmds)
	f.builder.AssertExpectations(t)
}

func TestController_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
	}{
		{line: "", want: ReplyUnknownCommand},
		{line: "dance", want: ReplyUnknownCommand},
		{line: "play glow at middle", want: ReplyBadDisplay},
		{line: "play sparkle at left", want: ReplyBadAnimation},
		{line: "play glow at left offset 200", want: ReplyBadOffset},
		{line: "play glow at left offset x", want: ReplyBadOffset},
		{line: "play glow at left offset", want: ReplyBadArgs},
		{line: "play glow at left quickly now", want: ReplyBadArgs},
		{line: "play glow on left", want: ReplyBadArgs},
		{line: "play glow", want: ReplyBadArgs},
		{line: `play "glow at left`, want: ReplyBadArgs},
		{line: "brightness left", want: ReplyBadArgs},
		{line: "brightness middle 10", want: ReplyBadDisplay},
		{line: "brightness left 256", want: ReplyBadBrightness},
		{line: "brightness left -1", want: ReplyBadBrightness},
		{line: "charger", want: ReplyNoConfig},
		{line: "charger now", want: ReplyBadArgs},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			f := newControllerFixture()
			assert.Equal(t, tt.want, f.ctrl.Handle(tt.line))
			assert.Empty(t, f.left.cmds)
			f.builder.AssertNotCalled(t, "Build")
		})
	}
}

func TestController_DisplayUnavailable(t *testing.T) {
	t.Parallel()

	f := newControllerFixture()
	f.left.err = display.ErrClosed
	f.builder.On("Build").Return(mocks.EmptyAnimation{})

	assert.Equal(t, ReplyDisplayUnavailable, f.ctrl.Handle("play glow at left"))
	assert.Equal(t, ReplyDisplayUnavailable, f.ctrl.Handle("brightness left 4"))
}

func TestController_Brightness(t *testing.T) {
	t.Parallel()

	f := newControllerFixture()
	assert.Equal(t, ReplyOK, f.ctrl.Handle("brightness left 40"))
	assert.Equal(t, []display.Command{display.SetBrightness{Value: 40}}, f.left.cmds)
}

func TestController_Charger(t *testing.T) {
	t.Parallel()

	f := newControllerFixture()
	f.withCharger(1)
	f.power.On("SinkPorts").Return([]int{0, 2, 5}, nil)
	f.builder.On("At", int8(15)).Return(mocks.EmptyAnimation{}).Once()
	f.builder.On("At", int8(25)).Return(mocks.EmptyAnimation{}).Once()

	assert.Equal(t, ReplyOK, f.ctrl.Handle("charger"))
	assert.Len(t, f.right.cmds, 1)
	assert.Len(t, f.left.cmds, 1)
	f.builder.AssertExpectations(t)
}

func TestController_ChargerPortMapping(t *testing.T) {
	t.Parallel()

	want := []struct {
		display string
		offset  int8
	}{
		{display: "right", offset: 14},
		{display: "right", offset: 24},
		{display: "left", offset: 24},
		{display: "left", offset: 14},
	}

	for port, w := range want {
		f := newControllerFixture()
		f.withCharger(0)
		f.power.On("SinkPorts").Return([]int{port}, nil)
		f.builder.On("At", w.offset).Return(mocks.EmptyAnimation{}).Once()

		require.Equal(t, ReplyOK, f.ctrl.Handle("charger"), "port %d", port)
		target := f.right
		if w.display == "left" {
			target = f.left
		}
		assert.Len(t, target.cmds, 1, "port %d", port)
		f.builder.AssertExpectations(t)
	}
}

func TestController_ChargerThrottled(t *testing.T) {
	t.Parallel()

	f := newControllerFixture()
	f.withCharger(0)
	f.power.On("SinkPorts").Return([]int{}, nil)

	assert.Equal(t, ReplyOK, f.ctrl.Handle("charger"))
	assert.Equal(t, ReplyThrottled, f.ctrl.Handle("charger"))

	f.clock.Advance(time.Second)
	assert.Equal(t, ReplyThrottled, f.ctrl.Handle("charger"))

	f.clock.Advance(time.Second)
	assert.Equal(t, ReplyOK, f.ctrl.Handle("charger"))
	f.power.AssertNumberOfCalls(t, "SinkPorts", 2)
}

func TestController_ChargerPowerUnavailable(t *testing.T) {
	t.Parallel()

	f := newControllerFixture()
	f.withCharger(0)
	f.power.On("SinkPorts").Return(nil, errors.New("no sysfs"))

	assert.Equal(t, ReplyPowerUnavailable, f.ctrl.Handle("charger"))
}

func TestClampOffset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int8(127), clampOffset(24+127))
	assert.Equal(t, int8(-128), clampOffset(-300))
	assert.Equal(t, int8(10), clampOffset(10))
}
