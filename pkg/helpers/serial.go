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

package helpers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial/enumerator"
)

// USB IDs of the LED matrix input module.
const (
	MatrixVID = "32ac"
	MatrixPID = "0020"
)

// PortLister enumerates serial ports with their USB details.
type PortLister func() ([]*enumerator.PortDetails, error)

// ListMatrixPorts returns the device paths of every connected LED matrix,
// sorted. A nil lister uses the system enumerator.
func ListMatrixPorts(list PortLister) ([]string, error) {
	if list == nil {
		list = enumerator.GetDetailedPortsList
	}

	ports, err := list()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var devices []string
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if !strings.EqualFold(p.VID, MatrixVID) || !strings.EqualFold(p.PID, MatrixPID) {
			log.Debug().Str("port", p.Name).Str("vid", p.VID).Str("pid", p.PID).Msg("skipping serial port")
			continue
		}
		devices = append(devices, p.Name)
	}
	slices.Sort(devices)
	return devices, nil
}
