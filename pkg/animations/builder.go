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

package animations

import (
	"fmt"
	"maps"
	"slices"

	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// NewBuilder does all fallible setup for one configured animation up front:
// keyframe files are read and parsed here, not on first use.
//
//nolint:gocritic // config struct copied for immutability
func NewBuilder(fs afero.Fs, cfg config.Animation) (Builder, error) {
	switch cfg.Kind {
	case config.AnimationKindBuiltin:
		if cfg.Name != config.BuiltinSpread {
			return nil, fmt.Errorf("unknown builtin animation %q", cfg.Name)
		}
		return NewSpreadBuilder(cfg.Spread()), nil
	case config.AnimationKindFile:
		raw, err := afero.ReadFile(fs, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read animation file `%s`: %w", cfg.Path, err)
		}
		keyframes, err := ParseKeyframes(string(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse animation file `%s`: %w", cfg.Path, err)
		}
		log.Debug().
			Str("path", cfg.Path).
			Int("frames", keyframes.Len()).
			Dur("duration", keyframes.Duration()).
			Int("default_offset", int(keyframes.DefaultOffset())).
			Msg("parsed animation file")
		return keyframes, nil
	default:
		return nil, fmt.Errorf("unknown animation kind %q", cfg.Kind)
	}
}

// LoadBuilders builds every configured animation and stops at the first
// failure.
func LoadBuilders(fs afero.Fs, anims map[string]config.Animation) (map[string]Builder, error) {
	builders := make(map[string]Builder, len(anims))
	for _, name := range slices.Sorted(maps.Keys(anims)) {
		builder, err := NewBuilder(fs, anims[name])
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", name, err)
		}
		builders[name] = builder
	}
	log.Info().Int("count", len(builders)).Msg("animations loaded")
	return builders, nil
}
