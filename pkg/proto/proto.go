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

// Package proto encodes commands for the LED matrix firmware and talks to
// the module over its serial port.
package proto

import (
	"encoding/binary"

	"github.com/GoldsteinE/fw-lights/pkg/frames"
)

// Magic prefixes every command sent to the module.
const Magic uint16 = 0x32AC

type Opcode byte

const (
	OpSetBrightness Opcode = 0x00
	OpPattern       Opcode = 0x01
	OpBootloader    Opcode = 0x02
	OpSleep         Opcode = 0x03
	OpAnimate       Opcode = 0x04
	OpPanic         Opcode = 0x05
	OpDrawBw        Opcode = 0x06
	OpStageCol      Opcode = 0x07
	OpFlushCols     Opcode = 0x08
	OpStartGame     Opcode = 0x10
	OpGameCtrl      Opcode = 0x11
	OpGameStatus    Opcode = 0x12
	OpVersion       Opcode = 0x20
)

// PatternKind selects one of the patterns built into the firmware.
type PatternKind byte

const (
	PatternPercentage      PatternKind = 0x00
	PatternGradient        PatternKind = 0x01
	PatternDoubleGradient  PatternKind = 0x02
	PatternLotusHorizontal PatternKind = 0x03
	PatternZigZag          PatternKind = 0x04
	PatternFullBrightness  PatternKind = 0x05
	PatternPanic           PatternKind = 0x06
	PatternLotusVertical   PatternKind = 0x07
)

// headerSize is the magic plus the opcode.
const headerSize = 3

// Command is a single request to the module. The zero value is not a valid
// command; use the constructors below.
type Command struct {
	payload      []byte
	responseSize int
	op           Opcode
}

func (c Command) Opcode() Opcode {
	return c.op
}

// ResponseSize is the number of bytes the module replies with.
func (c Command) ResponseSize() int {
	return c.responseSize
}

// Bytes returns the encoded command: big-endian magic, opcode, payload.
func (c Command) Bytes() []byte {
	buf := make([]byte, 0, headerSize+len(c.payload))
	buf = binary.BigEndian.AppendUint16(buf, Magic)
	buf = append(buf, byte(c.op))
	return append(buf, c.payload...)
}

func SetBrightness(brightness uint8) Command {
	return Command{op: OpSetBrightness, payload: []byte{brightness}}
}

// Pattern shows a builtin pattern. percentage is only sent for
// PatternPercentage.
func Pattern(kind PatternKind, percentage uint8) Command {
	payload := []byte{byte(kind)}
	if kind == PatternPercentage {
		payload = append(payload, percentage)
	}
	return Command{op: OpPattern, payload: payload}
}

func Bootloader() Command {
	return Command{op: OpBootloader}
}

func Sleep(sleep uint8) Command {
	return Command{op: OpSleep, payload: []byte{sleep}}
}

func GetSleep() Command {
	return Command{op: OpSleep, responseSize: 1}
}

func Animate(animate uint8) Command {
	return Command{op: OpAnimate, payload: []byte{animate}}
}

func GetAnimate() Command {
	return Command{op: OpAnimate, responseSize: 1}
}

func Panic() Command {
	return Command{op: OpPanic}
}

func DrawBw(frame *frames.BwFrame) Command {
	payload := make([]byte, frames.BwFrameSize)
	copy(payload, frame[:])
	return Command{op: OpDrawBw, payload: payload}
}

// StageCol uploads one column; it is shown after FlushCols.
func StageCol(x uint8, column *[frames.Height]uint8) Command {
	payload := make([]byte, 0, 1+frames.Height)
	payload = append(payload, x)
	return Command{op: OpStageCol, payload: append(payload, column[:]...)}
}

func FlushCols() Command {
	return Command{op: OpFlushCols}
}

func StartGame(game uint8) Command {
	return Command{op: OpStartGame, payload: []byte{game}}
}

func GameCtrl(ctrl uint8) Command {
	return Command{op: OpGameCtrl, payload: []byte{ctrl}}
}

func GameStatus() Command {
	return Command{op: OpGameStatus}
}

// Version asks for the firmware version: major, minor and a pre-release flag.
func Version() Command {
	return Command{op: OpVersion, responseSize: 3}
}
