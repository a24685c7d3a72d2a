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
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/GoldsteinE/fw-lights/pkg/frames"
	"github.com/GoldsteinE/fw-lights/pkg/proto"
	"github.com/GoldsteinE/fw-lights/pkg/testing/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testDaemon struct {
	cfg     *config.Values
	fs      afero.Fs
	serials map[string]*mocks.MockSerialPort
	power   *mocks.MockPowerPorts
	opened  []string
}

func newTestDaemon(t *testing.T) *testDaemon {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/anims/dot.txt", []byte("---\n#........\n"), 0o644))

	return &testDaemon{
		fs: fs,
		cfg: &config.Values{
			Displays: map[string]string{
				"left":  "/dev/ttyACM0",
				"right": "/dev/ttyACM1",
			},
			Animations: map[string]config.Animation{
				"dot": {Kind: config.AnimationKindFile, Path: "/anims/dot.txt"},
			},
			// keep socket paths short, unix sockets are limited to ~100 bytes
			SocketPath:       filepath.Join(t.TempDir(), "fw.sock"),
			SkipBlankColumns: true,
		},
		serials: map[string]*mocks.MockSerialPort{
			"/dev/ttyACM0": mocks.NewMockSerialPort(),
			"/dev/ttyACM1": mocks.NewMockSerialPort(),
		},
		power: &mocks.MockPowerPorts{},
	}
}

func (d *testDaemon) openPort(path string, skip bool) (Port, error) {
	d.opened = append(d.opened, path)
	mock, ok := d.serials[path]
	if !ok {
		return nil, errors.New("no such device")
	}
	return proto.Open(path,
		proto.WithSkipBlankColumns(skip),
		proto.WithSerialPortFactory(func(string, *serial.Mode) (proto.SerialPort, error) {
			return mock, nil
		}),
	)
}

func (d *testDaemon) start(t *testing.T) *Service {
	t.Helper()
	svc, err := Start(context.Background(), d.cfg,
		WithFs(d.fs),
		WithPowerPorts(d.power),
		WithPortOpener(d.openPort),
	)
	require.NoError(t, err)
	return svc
}

func wrote(mock *mocks.MockSerialPort, want []byte) bool {
	for _, w := range mock.Writes() {
		if bytes.Equal(w, want) {
			return true
		}
	}
	return false
}

func TestService_PlayOverSocket(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	svc := d.start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := Send(ctx, d.cfg.SocketPath, "play dot at left")
	require.NoError(t, err)
	assert.Equal(t, ReplyOK, reply)

	var dot frames.BwFrame
	dot.Set(0, 0, true)
	left := d.serials["/dev/ttyACM0"]
	assert.Eventually(t, func() bool {
		return wrote(left, proto.DrawBw(&dot).Bytes())
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, wrote(left, proto.SetBrightness(255).Bytes()))
	assert.False(t, wrote(d.serials["/dev/ttyACM1"], proto.DrawBw(&dot).Bytes()))

	reply, err = Send(ctx, d.cfg.SocketPath, "play nope at left")
	require.ErrorIs(t, err, ErrCommandFailed)
	assert.Equal(t, ReplyBadAnimation, reply)

	reply, err = Send(ctx, d.cfg.SocketPath, "brightness right 12")
	require.NoError(t, err)
	assert.Equal(t, ReplyOK, reply)
	assert.Eventually(t, func() bool {
		return wrote(d.serials["/dev/ttyACM1"], proto.SetBrightness(12).Bytes())
	}, 2*time.Second, 5*time.Millisecond)

	h, ok := svc.handle("left")
	require.True(t, ok)
	assert.Equal(t, "left", h.Name())

	require.NoError(t, svc.Stop())
	require.NoError(t, svc.Stop())
	<-svc.Done()
	require.NoError(t, svc.Wait())

	assert.True(t, left.IsClosed())
	assert.True(t, d.serials["/dev/ttyACM1"].IsClosed())
	_, err = os.Stat(d.cfg.SocketPath)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Send(ctx, d.cfg.SocketPath, "play dot at left")
	require.Error(t, err)
}

func TestService_MultipleCommandsPerConnection(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	svc := d.start(t)
	defer func() {
		assert.NoError(t, svc.Stop())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, line := range []string{"play dot at left offset 3", "play dot at right"} {
		reply, err := Send(ctx, d.cfg.SocketPath, line)
		require.NoError(t, err)
		assert.Equal(t, ReplyOK, reply)
	}

	reply, err := Send(ctx, d.cfg.SocketPath, "charger")
	require.ErrorIs(t, err, ErrCommandFailed)
	assert.Equal(t, ReplyNoConfig, reply)
}

func TestService_DisplayFailure(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	svc := d.start(t)
	defer func() {
		assert.NoError(t, svc.Stop())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	left := d.serials["/dev/ttyACM0"]
	left.SetWriteError(errors.New("unplugged"))

	_, err := Send(ctx, d.cfg.SocketPath, "play dot at left")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		reply, _ := Send(ctx, d.cfg.SocketPath, "brightness left 10")
		return reply == ReplyDisplayUnavailable
	}, 2*time.Second, 5*time.Millisecond)

	reply, err := Send(ctx, d.cfg.SocketPath, "brightness right 10")
	require.NoError(t, err)
	assert.Equal(t, ReplyOK, reply)
}

func TestStart_AnimationError(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	d.cfg.Animations["broken"] = config.Animation{Kind: config.AnimationKindFile, Path: "/anims/missing.txt"}

	_, err := Start(context.Background(), d.cfg, WithFs(d.fs), WithPortOpener(d.openPort))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Empty(t, d.opened)
}

func TestStart_PortError(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	d.cfg.Displays["zz"] = "/dev/missing"

	_, err := Start(context.Background(), d.cfg, WithFs(d.fs), WithPortOpener(d.openPort))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/missing")
	assert.True(t, d.serials["/dev/ttyACM0"].IsClosed())
	assert.True(t, d.serials["/dev/ttyACM1"].IsClosed())
}

func TestStart_RemovesStaleSocket(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	require.NoError(t, os.WriteFile(d.cfg.SocketPath, nil, 0o600))

	svc := d.start(t)
	require.NoError(t, svc.Stop())
}

func TestService_RateLimitsConnection(t *testing.T) {
	t.Parallel()

	d := newTestDaemon(t)
	svc := d.start(t)
	defer func() {
		assert.NoError(t, svc.Stop())
	}()

	conn, err := net.Dial("unix", d.cfg.SocketPath)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	const n = 200
	_, err = conn.Write([]byte(strings.Repeat("dance\n", n)))
	require.NoError(t, err)

	limited := 0
	reader := bufio.NewReader(conn)
	for range n {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch strings.TrimSpace(line) {
		case ReplyRateLimited:
			limited++
		case ReplyUnknownCommand:
		default:
			t.Fatalf("unexpected reply %q", line)
		}
	}
	assert.Positive(t, limited)
	assert.Less(t, limited, n)
}
