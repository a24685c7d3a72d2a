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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoldsteinE/fw-lights/pkg/cli"
	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/GoldsteinE/fw-lights/pkg/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()
	flags.Pre()

	fs := afero.NewOsFs()
	cfg, err := cli.Setup(fs, flags, config.BaseDefaults, []io.Writer{os.Stderr})
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	flags.Post(fs, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := service.Start(ctx, cfg, service.WithFs(fs))
	if err != nil {
		log.Error().Err(err).Msg("error starting service")
		return fmt.Errorf("error starting service: %w", err)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("received signal, shutting down")
	case <-svc.Done():
		log.Warn().Msg("all displays stopped")
	}

	waitErr := svc.Wait()
	if err := svc.Stop(); err != nil {
		log.Error().Err(err).Msg("error stopping service")
		return fmt.Errorf("error stopping service: %w", err)
	}
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	return nil
}
