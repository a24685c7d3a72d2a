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

package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GoldsteinE/fw-lights/pkg/animations"
	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/GoldsteinE/fw-lights/pkg/helpers"
	"github.com/GoldsteinE/fw-lights/pkg/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// SendTimeout bounds a -send round trip.
const SendTimeout = 5 * time.Second

type Flags struct {
	Config  *string
	Socket  *string
	Send    *string
	Check   *bool
	List    *bool
	Debug   *bool
	Version *bool
}

// SetupFlags defines the command line flags.
func SetupFlags() *Flags {
	return &Flags{
		Config: flag.String(
			"config",
			"",
			"path to config file (default: search XDG config dirs, then /etc/fw-lights)",
		),
		Socket: flag.String(
			"socket",
			"",
			"control socket path, overrides the config",
		),
		Send: flag.String(
			"send",
			"",
			"send a command to the running daemon and print the reply",
		),
		Check: flag.Bool(
			"check",
			false,
			"validate config and animation files, then exit",
		),
		List: flag.Bool(
			"list",
			false,
			"list connected LED matrix serial ports and exit",
		),
		Debug: flag.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Version: flag.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

// Pre parses flags and actions the ones that need no config. Add any custom
// flags before running this.
func (f *Flags) Pre() {
	flag.Parse()

	if *f.Version {
		_, _ = fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		os.Exit(0)
	}

	if *f.List {
		exitWith(RunList(nil, os.Stdout))
	}

	if *f.Send != "" && *f.Socket != "" {
		exitWith(RunSend(context.Background(), *f.Socket, *f.Send, os.Stdout))
	}
}

// ConfigPath is the -config flag, the first positional argument, or the
// default search path.
func (f *Flags) ConfigPath() string {
	if *f.Config != "" {
		return *f.Config
	}
	if flag.NArg() > 0 {
		return flag.Arg(0)
	}
	return config.DefaultPath()
}

// Post actions the flags that need the config loaded.
func (f *Flags) Post(fs afero.Fs, cfg *config.Values) {
	switch {
	case *f.Send != "":
		exitWith(RunSend(context.Background(), cfg.SocketPath, *f.Send, os.Stdout))
	case *f.Check:
		exitWith(RunCheck(fs, cfg, os.Stdout))
	}
}

func exitWith(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// RunSend sends line to the daemon and prints its reply.
func RunSend(ctx context.Context, socketPath, line string, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	reply, err := service.Send(ctx, socketPath, line)
	if reply != "" {
		_, _ = fmt.Fprintln(out, reply)
	}
	if err != nil {
		return fmt.Errorf("error sending command: %w", err)
	}
	return nil
}

// RunList prints every detected LED matrix port.
func RunList(list helpers.PortLister, out io.Writer) error {
	ports, err := helpers.ListMatrixPorts(list)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	if len(ports) == 0 {
		return errors.New("no LED matrix found")
	}
	for _, p := range ports {
		_, _ = fmt.Fprintln(out, p)
	}
	return nil
}

// RunCheck loads every animation the config names.
func RunCheck(fs afero.Fs, cfg *config.Values, out io.Writer) error {
	builders, err := animations.LoadBuilders(fs, cfg.Animations)
	if err != nil {
		return fmt.Errorf("invalid animation: %w", err)
	}
	_, _ = fmt.Fprintf(out, "config ok: %d displays, %d animations\n", len(cfg.Displays), len(builders))
	return nil
}

// Setup loads the config and initializes logging.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	fs afero.Fs,
	f *Flags,
	defaultConfig config.Values,
	writers []io.Writer,
) (*config.Values, error) {
	path := f.ConfigPath()
	cfg, err := config.Load(fs, path, defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if *f.Socket != "" {
		cfg.SocketPath = *f.Socket
	}

	err = helpers.InitLogging(helpers.LogDir(), *f.Debug || cfg.DebugLogging, writers)
	if err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}
	log.Debug().Str("path", path).Msg("config loaded")

	return cfg, nil
}
