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

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	AnimationKindBuiltin = "builtin"
	AnimationKindFile    = "file"
	BuiltinSpread        = "spread"

	DefaultLeftDisplay  = "left"
	DefaultRightDisplay = "right"
	DefaultCooldown     = 2 * time.Second
)

type Values struct {
	Displays         map[string]string    `toml:"displays" validate:"required,min=1,dive,required"`
	Animations       map[string]Animation `toml:"animations,omitempty" validate:"dive"`
	Builtin          Builtin              `toml:"builtin,omitempty"`
	SocketPath       string               `toml:"socket_path" validate:"required"`
	SkipBlankColumns bool                 `toml:"skip_blank_columns"`
	DebugLogging     bool                 `toml:"debug_logging"`
}

type Builtin struct {
	Charger *Charger `toml:"charger,omitempty"`
}

// Charger configures the "charger" control command, which plays an
// animation next to every USB-C port that is currently charging the laptop.
type Charger struct {
	AnimationLeft  string    `toml:"animation_left" validate:"required"`
	AnimationRight string    `toml:"animation_right" validate:"required"`
	LeftDisplay    string    `toml:"left_display"`
	RightDisplay   string    `toml:"right_display"`
	Cooldown       *Duration `toml:"cooldown"`
	Offset         int8      `toml:"offset"`
}

// CooldownPeriod is the minimum time between accepted charger commands. An
// explicit zero turns the throttle off.
func (c *Charger) CooldownPeriod() time.Duration {
	if c.Cooldown == nil {
		return DefaultCooldown
	}
	return c.Cooldown.Std()
}

// Animation is either a builtin procedural animation (Kind "builtin") or a
// keyframe file (Kind "file"). The spread fields only apply to the builtin
// "spread" animation.
type Animation struct {
	Kind          string     `toml:"kind" validate:"required,oneof=builtin file"`
	Name          string     `toml:"name,omitempty" validate:"required_if=Kind builtin,omitempty,oneof=spread"`
	Path          string     `toml:"path,omitempty" validate:"required_if=Kind file"`
	Seeds         [][3]uint8 `toml:"seeds,omitempty" validate:"required_if=Name spread"`
	FrameDuration Duration   `toml:"frame_duration,omitempty" validate:"required_if=Name spread"`
	StayCost      uint8      `toml:"stay_cost,omitempty"`
	HorizCost     uint8      `toml:"horiz_cost,omitempty"`
	VertCost      uint8      `toml:"vert_cost,omitempty"`
	DiagCost      uint8      `toml:"diag_cost,omitempty"`
}

// Spread is the configuration of the builtin diffusion animation.
type Spread struct {
	Seeds         [][3]uint8
	FrameDuration time.Duration
	StayCost      uint8
	HorizCost     uint8
	VertCost      uint8
	DiagCost      uint8
}

// Spread returns the spread settings, with seeds copied.
func (a *Animation) Spread() Spread {
	seeds := make([][3]uint8, len(a.Seeds))
	copy(seeds, a.Seeds)
	return Spread{
		Seeds:         seeds,
		FrameDuration: a.FrameDuration.Std(),
		StayCost:      a.StayCost,
		HorizCost:     a.HorizCost,
		VertCost:      a.VertCost,
		DiagCost:      a.DiagCost,
	}
}

var BaseDefaults = Values{
	SocketPath:       DefaultSocketPath,
	SkipBlankColumns: true,
}

// DefaultPath finds config.toml in the XDG config directories, falling back
// to the system wide location.
func DefaultPath() string {
	path, err := xdg.SearchConfigFile(filepath.Join(AppName, CfgFile))
	if err == nil {
		return path
	}
	log.Debug().Err(err).Msg("no user config file found")
	return filepath.Join(SystemConfigDir, CfgFile)
}

// Load reads and validates the config file at path. Values missing from the
// file keep their defaults.
//
//nolint:gocritic // config struct copied for immutability
func Load(fs afero.Fs, path string, defaults Values) (*Values, error) {
	if path == "" {
		return nil, errors.New("config path not set")
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	vals := defaults
	if err := toml.Unmarshal(data, &vals); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse config %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	vals.applyDefaults(filepath.Dir(path))

	if err := vals.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("displays", len(vals.Displays)).
		Int("animations", len(vals.Animations)).
		Msg("loaded config")

	return &vals, nil
}

func (v *Values) applyDefaults(baseDir string) {
	if c := v.Builtin.Charger; c != nil {
		if c.LeftDisplay == "" {
			c.LeftDisplay = DefaultLeftDisplay
		}
		if c.RightDisplay == "" {
			c.RightDisplay = DefaultRightDisplay
		}
		if c.Cooldown == nil {
			cooldown := Duration(DefaultCooldown)
			c.Cooldown = &cooldown
		}
	}

	for name, anim := range v.Animations {
		anim.Kind = strings.ToLower(anim.Kind)
		anim.Name = strings.ToLower(anim.Name)
		if anim.Kind == AnimationKindFile && anim.Path != "" && !filepath.IsAbs(anim.Path) {
			anim.Path = filepath.Join(baseDir, anim.Path)
		}
		v.Animations[name] = anim
	}
}
