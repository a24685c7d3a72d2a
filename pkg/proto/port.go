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

package proto

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/GoldsteinE/fw-lights/pkg/frames"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	BaudRate = 115200
	// ReadTimeout bounds a single read call on the port.
	ReadTimeout = 10 * time.Millisecond
	// ReplyTimeout bounds the wait for a complete reply.
	ReplyTimeout = time.Second
)

var ErrReplyTimeout = errors.New("timed out waiting for reply")

// SerialPort defines the serial port operations used by Port (for mocking in tests).
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Drain() error
	Close() error
	SetReadTimeout(t time.Duration) error
}

// SerialPortFactory creates a serial port connection.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultSerialPortFactory opens real serial ports.
func DefaultSerialPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Port is a request/response channel to one matrix module. It is not safe
// for concurrent use; each module is owned by a single display runtime.
type Port struct {
	port             SerialPort
	factory          SerialPortFactory
	path             string
	replyTimeout     time.Duration
	skipBlankColumns bool
}

type PortOption func(*Port)

// WithSerialPortFactory replaces the function used to open the device.
func WithSerialPortFactory(factory SerialPortFactory) PortOption {
	return func(p *Port) {
		p.factory = factory
	}
}

// WithSkipBlankColumns controls whether all-zero columns of gray frames are
// left out when drawing. The module keeps the previously staged column in
// that case, so this is only correct for firmware that clears staged
// columns on flush.
func WithSkipBlankColumns(skip bool) PortOption {
	return func(p *Port) {
		p.skipBlankColumns = skip
	}
}

func WithReplyTimeout(timeout time.Duration) PortOption {
	return func(p *Port) {
		p.replyTimeout = timeout
	}
}

// Open opens the module at path at 115200 8N1.
func Open(path string, opts ...PortOption) (*Port, error) {
	p := &Port{
		factory:          DefaultSerialPortFactory,
		path:             path,
		replyTimeout:     ReplyTimeout,
		skipBlankColumns: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	port, err := p.factory(path, &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix %s: %w", path, err)
	}

	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	p.port = port
	log.Info().Str("device", path).Msg("matrix port opened")
	return p, nil
}

func (p *Port) Path() string {
	return p.path
}

func (p *Port) Close() error {
	if err := p.port.Close(); err != nil {
		return fmt.Errorf("failed to close matrix %s: %w", p.path, err)
	}
	log.Info().Str("device", p.path).Msg("matrix port closed")
	return nil
}

// Send writes cmd and waits for its reply, if it has one.
func (p *Port) Send(cmd Command) ([]byte, error) {
	if err := p.write(cmd.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write command %#02x: %w", byte(cmd.Opcode()), err)
	}
	if err := p.port.Drain(); err != nil {
		return nil, fmt.Errorf("failed to drain port: %w", err)
	}

	size := cmd.ResponseSize()
	if size == 0 {
		return nil, nil
	}

	reply := make([]byte, size)
	if err := p.readExact(reply); err != nil {
		return nil, fmt.Errorf("failed to read reply to %#02x: %w", byte(cmd.Opcode()), err)
	}
	return reply, nil
}

// DrawFrame shows frame: BwFrames with a single DrawBw, GrayFrames as one
// StageCol per column followed by FlushCols.
//
//nolint:gocritic // frames are small values
func (p *Port) DrawFrame(frame frames.Frame) error {
	switch data := frame.Data.(type) {
	case frames.BwFrame:
		_, err := p.Send(DrawBw(&data))
		return err
	case frames.GrayFrame:
		return p.drawGray(&data)
	default:
		return fmt.Errorf("unsupported frame data %T", frame.Data)
	}
}

func (p *Port) drawGray(frame *frames.GrayFrame) error {
	for x := range frames.Width {
		if p.skipBlankColumns && frame.BlankColumn(x) {
			continue
		}
		if _, err := p.Send(StageCol(uint8(x), &frame[x])); err != nil {
			return err
		}
	}
	_, err := p.Send(FlushCols())
	return err
}

func (p *Port) write(data []byte) error {
	for len(data) > 0 {
		n, err := p.port.Write(data)
		if err != nil {
			return err //nolint:wrapcheck // wrapped by caller
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}

// readExact fills buf. Reads that time out return no data, so it keeps
// reading until the reply deadline passes.
func (p *Port) readExact(buf []byte) error {
	deadline := time.Now().Add(p.replyTimeout)
	read := 0
	for read < len(buf) {
		n, err := p.port.Read(buf[read:])
		if err != nil {
			return err //nolint:wrapcheck // wrapped by caller
		}
		read += n
		if n == 0 && time.Now().After(deadline) {
			return fmt.Errorf("%w: got %d of %d bytes", ErrReplyTimeout, read, len(buf))
		}
	}
	return nil
}
