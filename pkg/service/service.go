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

// Package service wires the daemon together: it loads every animation, opens
// every display, runs one display runtime per device and serves the control
// socket.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"maps"
	"net"
	"os"
	"slices"
	"sync"

	"github.com/GoldsteinE/fw-lights/pkg/animations"
	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/GoldsteinE/fw-lights/pkg/display"
	"github.com/GoldsteinE/fw-lights/pkg/helpers/syncutil"
	"github.com/GoldsteinE/fw-lights/pkg/power"
	"github.com/GoldsteinE/fw-lights/pkg/proto"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Port is an open display device.
type Port interface {
	display.FrameWriter
	io.Closer
}

// PortOpener opens the display device at path.
type PortOpener func(path string, skipBlankColumns bool) (Port, error)

func openSerialPort(path string, skipBlankColumns bool) (Port, error) {
	return proto.Open(path, proto.WithSkipBlankColumns(skipBlankColumns))
}

type options struct {
	fs       afero.Fs
	clock    clockwork.Clock
	power    power.Ports
	openPort PortOpener
}

type Option func(*options)

// WithFs sets the file system animation files are read from.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithPowerPorts(ports power.Ports) Option {
	return func(o *options) {
		o.power = ports
	}
}

func WithPortOpener(opener PortOpener) Option {
	return func(o *options) {
		o.openPort = opener
	}
}

// Service is a running daemon.
type Service struct {
	listener   net.Listener
	ctrl       *controller
	cancel     context.CancelFunc
	group      *errgroup.Group
	displays   map[string]*display.Handle
	conns      map[net.Conn]struct{}
	done       chan struct{}
	serving    chan struct{}
	socketPath string
	ports      []Port
	connsMu    syncutil.Mutex
	connsWg    sync.WaitGroup
	stopOnce   sync.Once
	stopErr    error
}

// Start brings the daemon up. Any failure before the socket is listening
// undoes what was already started.
//
//nolint:funlen // startup sequence
func Start(ctx context.Context, cfg *config.Values, opts ...Option) (*Service, error) {
	o := options{
		fs:       afero.NewOsFs(),
		clock:    clockwork.NewRealClock(),
		openPort: openSerialPort,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.power == nil {
		o.power = power.NewSysfs(afero.NewOsFs())
	}

	log.Info().Msgf("version: %s", config.AppVersion)

	log.Info().Msg("loading animations")
	builders, err := animations.LoadBuilders(o.fs, cfg.Animations)
	if err != nil {
		return nil, fmt.Errorf("failed to load animations: %w", err)
	}

	log.Info().Msg("opening displays")
	ports := make(map[string]Port, len(cfg.Displays))
	closePorts := func() {
		for name, p := range ports {
			if err := p.Close(); err != nil {
				log.Warn().Err(err).Str("display", name).Msg("error closing display")
			}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Displays)) {
		path := cfg.Displays[name]
		p, err := o.openPort(path, cfg.SkipBlankColumns)
		if err != nil {
			closePorts()
			return nil, fmt.Errorf("failed to open display %s at %s: %w", name, path, err)
		}
		log.Info().Str("display", name).Str("path", path).Msg("display opened")
		ports[name] = p
	}

	listener, err := listen(cfg.SocketPath)
	if err != nil {
		closePorts()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		listener:   listener,
		cancel:     cancel,
		group:      &errgroup.Group{},
		displays:   make(map[string]*display.Handle, len(ports)),
		conns:      make(map[net.Conn]struct{}),
		done:       make(chan struct{}),
		serving:    make(chan struct{}),
		socketPath: cfg.SocketPath,
	}

	senders := make(map[string]sender, len(ports))
	for name, p := range ports {
		s.ports = append(s.ports, p)
		h := display.Spawn(ctx, name, p, display.WithClock(o.clock))
		s.displays[name] = h
		senders[name] = h
		s.group.Go(func() error {
			err := h.Wait()
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("display %s: %w", name, err)
			}
			return nil
		})
	}

	s.ctrl = &controller{
		builders: builders,
		displays: senders,
		power:    o.power,
	}
	if cfg.Builtin.Charger != nil {
		s.ctrl.charger = cfg.Builtin.Charger
		s.ctrl.throttle = NewThrottle(o.clock, cfg.Builtin.Charger.CooldownPeriod())
	}

	go func() {
		_ = s.group.Wait()
		close(s.done)
	}()
	go s.serve(ctx)

	log.Info().Str("socket", cfg.SocketPath).Msg("service started")
	return s, nil
}

func listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale socket %s: %w", path, err)
	}
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	return listener, nil
}

// handle returns the handle of a running display.
func (s *Service) handle(name string) (*display.Handle, bool) {
	h, ok := s.displays[name]
	return h, ok
}

// Done is closed once every display runtime has exited.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until every display runtime has exited and returns the first
// device error.
func (s *Service) Wait() error {
	return s.group.Wait() //nolint:wrapcheck // already wrapped per display
}

// Stop shuts down the socket and every display, then closes the devices.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() {
		log.Info().Msg("stopping service")
		s.cancel()

		var errs []error
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to close socket: %w", err))
		}
		<-s.serving

		s.connsMu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.connsMu.Unlock()
		s.connsWg.Wait()

		for _, h := range s.displays {
			h.Close()
		}
		if err := s.group.Wait(); err != nil {
			log.Warn().Err(err).Msg("display runtime failed")
		}

		for _, p := range s.ports {
			if err := p.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close display: %w", err))
			}
		}
		if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove socket: %w", err))
		}
		s.stopErr = errors.Join(errs...)
	})
	return s.stopErr
}
