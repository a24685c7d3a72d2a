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
	"testing"
	"time"

	"github.com/GoldsteinE/fw-lights/pkg/frames"
	"github.com/GoldsteinE/fw-lights/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func openMock(t *testing.T, mock *mocks.MockSerialPort, opts ...PortOption) *Port {
	t.Helper()

	factory := func(_ string, mode *serial.Mode) (SerialPort, error) {
		assert.Equal(t, BaudRate, mode.BaudRate)
		assert.Equal(t, 8, mode.DataBits)
		return mock, nil
	}
	port, err := Open("/dev/ttyACM0", append([]PortOption{WithSerialPortFactory(factory)}, opts...)...)
	require.NoError(t, err)
	return port
}

func TestOpen_FactoryError(t *testing.T) {
	t.Parallel()

	factory := func(string, *serial.Mode) (SerialPort, error) {
		return nil, errors.New("no such device")
	}

	_, err := Open("/dev/missing", WithSerialPortFactory(factory))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/missing")
}

func TestOpen_TimeoutErrorClosesPort(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	mock.TimeoutErr = errors.New("unsupported")
	factory := func(string, *serial.Mode) (SerialPort, error) {
		return mock, nil
	}

	_, err := Open("/dev/ttyACM0", WithSerialPortFactory(factory))
	require.Error(t, err)
	assert.True(t, mock.IsClosed())
}

func TestPort_SendWithoutReply(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	port := openMock(t, mock)

	reply, err := port.Send(SetBrightness(128))
	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.Equal(t, [][]byte{{0x32, 0xAC, 0x00, 0x80}}, mock.Writes())
	assert.Equal(t, ReadTimeout, mock.ReadTimeout)
}

func TestPort_SendReadsReply(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	mock.Replies = []byte{0, 4, 1, 0xEE}
	port := openMock(t, mock)

	reply, err := port.Send(Version())
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 4, 1}, reply)
	assert.Equal(t, []byte{0xEE}, mock.Replies, "only the reply size is consumed")
}

func TestPort_SendReplyTimeout(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	port := openMock(t, mock, WithReplyTimeout(20*time.Millisecond))

	_, err := port.Send(GetSleep())
	require.ErrorIs(t, err, ErrReplyTimeout)
}

func TestPort_SendWriteError(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	port := openMock(t, mock)
	mock.SetWriteError(errors.New("device unplugged"))

	_, err := port.Send(FlushCols())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestPort_DrawBwFrame(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	port := openMock(t, mock)

	var bw frames.BwFrame
	bw.Set(0, 0, true)
	require.NoError(t, port.DrawFrame(frames.Frame{Data: bw}))

	writes := mock.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, DrawBw(&bw).Bytes(), writes[0])
}

func TestPort_DrawGraySkipsBlankColumns(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	port := openMock(t, mock)

	var gray frames.GrayFrame
	gray[2][0] = 10
	gray[7][33] = 20
	require.NoError(t, port.DrawFrame(frames.Frame{Data: gray}))

	writes := mock.Writes()
	require.Len(t, writes, 3)
	assert.Equal(t, StageCol(2, &gray[2]).Bytes(), writes[0])
	assert.Equal(t, StageCol(7, &gray[7]).Bytes(), writes[1])
	assert.Equal(t, FlushCols().Bytes(), writes[2])
}

func TestPort_DrawGrayAllColumns(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	port := openMock(t, mock, WithSkipBlankColumns(false))

	require.NoError(t, port.DrawFrame(frames.Frame{Data: frames.GrayFrame{}}))

	writes := mock.Writes()
	require.Len(t, writes, frames.Width+1)
	for x := range frames.Width {
		assert.Equal(t, byte(OpStageCol), writes[x][2])
		assert.Equal(t, byte(x), writes[x][3])
	}
	assert.Equal(t, FlushCols().Bytes(), writes[frames.Width])
}

func TestPort_DrawFrameWithoutData(t *testing.T) {
	t.Parallel()

	port := openMock(t, mocks.NewMockSerialPort())
	require.Error(t, port.DrawFrame(frames.Frame{}))
}

func TestPort_Close(t *testing.T) {
	t.Parallel()

	mock := mocks.NewMockSerialPort()
	port := openMock(t, mock)

	require.NoError(t, port.Close())
	assert.True(t, mock.IsClosed())
	assert.Equal(t, "/dev/ttyACM0", port.Path())
}
