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

// Package display runs one LED matrix: it composites every active animation
// into a frame per tick, writes it to the device and paces output by the
// frame's minimum duration.
package display

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoldsteinE/fw-lights/pkg/animations"
	"github.com/GoldsteinE/fw-lights/pkg/frames"
	"github.com/GoldsteinE/fw-lights/pkg/proto"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// MaxBrightness is the brightness a runtime starts with.
const MaxBrightness = 255

// FrameWriter is the device side of a display. *proto.Port implements it.
type FrameWriter interface {
	Send(cmd proto.Command) ([]byte, error)
	DrawFrame(frame frames.Frame) error
}

type Option func(*Matrix)

func WithClock(clock clockwork.Clock) Option {
	return func(m *Matrix) {
		m.clock = clock
	}
}

func WithName(name string) Option {
	return func(m *Matrix) {
		m.name = name
	}
}

// Matrix is the state of one display runtime. It is owned by the goroutine
// running it and must not be shared.
type Matrix struct {
	port       FrameWriter
	clock      clockwork.Clock
	name       string
	animations []animations.Animation
	frames     []frames.Frame
	brightness uint8
}

func New(port FrameWriter, opts ...Option) *Matrix {
	m := &Matrix{
		port:       port,
		clock:      clockwork.NewRealClock(),
		animations: make([]animations.Animation, 0, 16),
		frames:     make([]frames.Frame, 0, 16),
		brightness: MaxBrightness,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Active is the number of animations still playing.
func (m *Matrix) Active() int {
	return len(m.animations)
}

// Run drives the display until the queue is closed and every animation has
// finished (nil), ctx ends (ctx.Err()) or the device fails. The queue is
// closed when Run returns.
func (m *Matrix) Run(ctx context.Context, queue *Queue) error {
	defer queue.Close()

	if err := m.setBrightness(m.brightness); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // callers compare against context errors
		}

		if cmd, ok := queue.TryPop(); ok {
			if err := cmd.apply(m); err != nil {
				return err
			}
		}

		frame, ok := m.step()
		if !ok {
			if err := m.reset(); err != nil {
				return err
			}
			cmd, err := queue.Pop(ctx)
			if errors.Is(err, ErrClosed) {
				return nil
			} else if err != nil {
				return err
			}
			if err := cmd.apply(m); err != nil {
				return err
			}
			continue
		}

		start := m.clock.Now()
		if err := m.port.DrawFrame(frame); err != nil {
			return fmt.Errorf("failed to draw frame: %w", err)
		}
		if wait := frame.MinDuration - m.clock.Since(start); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err() //nolint:wrapcheck // see above
			case <-m.clock.After(wait):
			}
		}
	}
}

// step advances every animation once, drops the finished ones and merges
// the rest, oldest at the bottom.
func (m *Matrix) step() (frames.Frame, bool) {
	m.frames = m.frames[:0]
	kept := m.animations[:0]
	for _, a := range m.animations {
		frame, ok := a.Next()
		if !ok {
			continue
		}
		m.frames = append(m.frames, frame)
		kept = append(kept, a)
	}
	clear(m.animations[len(kept):])
	m.animations = kept

	if len(m.frames) == 0 {
		return frames.Frame{}, false
	}
	merged := m.frames[0]
	for _, upper := range m.frames[1:] {
		merged = merged.Merge(upper, m.brightness)
	}
	return merged, true
}

// reset blanks the display while it waits for work.
func (m *Matrix) reset() error {
	if _, err := m.port.Send(proto.DrawBw(&frames.BwFrame{})); err != nil {
		return fmt.Errorf("failed to clear display: %w", err)
	}
	return nil
}

// Handle is the sending side of a spawned runtime.
type Handle struct {
	err   error
	queue *Queue
	done  chan struct{}
	name  string
}

// Spawn starts a runtime for port in its own goroutine.
func Spawn(ctx context.Context, name string, port FrameWriter, opts ...Option) *Handle {
	m := New(port, append([]Option{WithName(name)}, opts...)...)
	h := &Handle{
		name:  name,
		queue: NewQueue(),
		done:  make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		log.Info().Str("display", name).Msg("display runtime started")
		h.err = m.Run(ctx, h.queue)
		switch {
		case h.err == nil:
			log.Info().Str("display", name).Msg("display runtime stopped")
		case errors.Is(h.err, context.Canceled):
			log.Debug().Str("display", name).Msg("display runtime cancelled")
		default:
			log.Error().Err(h.err).Str("display", name).Msg("display runtime failed")
		}
	}()

	return h
}

func (h *Handle) Name() string {
	return h.name
}

// Send queues cmd. It fails with ErrClosed once the runtime has exited.
func (h *Handle) Send(cmd Command) error {
	if err := h.queue.Push(cmd); err != nil {
		return fmt.Errorf("display %s: %w", h.name, err)
	}
	return nil
}

// Close tells the runtime no more commands are coming. It exits after the
// active animations finish.
func (h *Handle) Close() {
	h.queue.Close()
}

// Done is closed once the runtime has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the runtime exits and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}
