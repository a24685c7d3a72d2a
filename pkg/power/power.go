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

// Package power reads the power role of the laptop's USB-C ports.
package power

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// TypecDir is where the kernel exposes USB Type-C ports.
	TypecDir = "/sys/class/typec"
	// MaxPorts is the number of expansion card slots.
	MaxPorts = 4
)

var ErrUnavailable = errors.New("usb-c port information unavailable")

type Role int

const (
	RoleUnknown Role = iota
	RoleSource
	RoleSink
)

func (r Role) String() string {
	switch r {
	case RoleSource:
		return "source"
	case RoleSink:
		return "sink"
	default:
		return "unknown"
	}
}

// ParseRole parses a power_role attribute. The kernel lists every role the
// port supports and brackets the active one, e.g. "source [sink]".
func ParseRole(raw string) (Role, error) {
	fields := strings.Fields(raw)
	active := ""
	for _, f := range fields {
		if strings.HasPrefix(f, "[") && strings.HasSuffix(f, "]") {
			active = strings.Trim(f, "[]")
			break
		}
	}
	if active == "" && len(fields) == 1 {
		active = fields[0]
	}

	switch active {
	case "source":
		return RoleSource, nil
	case "sink":
		return RoleSink, nil
	default:
		return RoleUnknown, fmt.Errorf("unrecognised power role %q", strings.TrimSpace(raw))
	}
}

// Ports reports which USB-C ports are currently being charged from.
type Ports interface {
	SinkPorts() ([]int, error)
}

// Sysfs reads port roles from the typec class in sysfs.
type Sysfs struct {
	fs   afero.Fs
	root string
}

func NewSysfs(fs afero.Fs) *Sysfs {
	return &Sysfs{fs: fs, root: TypecDir}
}

// Role returns the current power role of port n.
func (s *Sysfs) Role(n int) (Role, error) {
	path := filepath.Join(s.root, fmt.Sprintf("port%d", n), "power_role")
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return RoleUnknown, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseRole(string(raw))
}

// SinkPorts returns the indices of ports acting as a power sink. Ports that
// are missing or unreadable are skipped.
func (s *Sysfs) SinkPorts() ([]int, error) {
	if ok, err := afero.DirExists(s.fs, s.root); err != nil || !ok {
		return nil, ErrUnavailable
	}

	var sinks []int
	for n := range MaxPorts {
		role, err := s.Role(n)
		if err != nil {
			if !errors.Is(err, iofs.ErrNotExist) {
				log.Warn().Err(err).Int("port", n).Msg("error reading usb-c power role")
			}
			continue
		}
		log.Debug().Int("port", n).Stringer("role", role).Msg("usb-c power role")
		if role == RoleSink {
			sinks = append(sinks, n)
		}
	}
	return sinks, nil
}
