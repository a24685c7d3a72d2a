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
	"maps"
	"slices"
	"strings"

	"github.com/GoldsteinE/fw-lights/pkg/frames"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError wraps validation failures with readable messages.
type ValidationError struct {
	Fields []FieldError
}

// FieldError represents a single invalid config value.
type FieldError struct {
	Value   any
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, tag, msg string, value any) {
	e.Fields = append(e.Fields, FieldError{
		Field:   field,
		Tag:     tag,
		Value:   value,
		Message: msg,
	})
}

// Validate checks field constraints and that every name the config refers
// to exists.
func (v *Values) Validate() error {
	verr := &ValidationError{}

	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validation failed: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Namespace(), fe.Tag(), formatFieldError(fe), fe.Value())
		}
	}

	for _, name := range slices.Sorted(maps.Keys(v.Animations)) {
		anim := v.Animations[name]
		for i, seed := range anim.Seeds {
			// rows are checked after the play offset is applied
			if seed[0] >= frames.Width {
				verr.add(
					"animations."+name+".seeds", "grid",
					fmt.Sprintf("animation %q seed %d column %d is outside the %d-column grid",
						name, i, seed[0], frames.Width),
					seed,
				)
			}
		}
	}

	if c := v.Builtin.Charger; c != nil {
		for _, anim := range []string{c.AnimationLeft, c.AnimationRight} {
			if _, ok := v.Animations[anim]; anim != "" && !ok {
				verr.add("builtin.charger", "animation",
					fmt.Sprintf("animation %q specified for builtin.charger does not exist", anim), anim)
			}
		}
		for _, display := range []string{c.LeftDisplay, c.RightDisplay} {
			if _, ok := v.Displays[display]; !ok {
				verr.add("builtin.charger", "display",
					fmt.Sprintf("display %q specified for builtin.charger does not exist", display), display)
			}
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, strings.Replace(fe.Param(), " ", " is ", 1))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
