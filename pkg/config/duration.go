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
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Duration is a time.Duration read from a string such as "30ms", "1s 500ms"
// or "2min".
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var (
	errUnitNeeded   = errors.New("unit needed")
	errNumberNeeded = errors.New("number expected")
)

// goUnits maps unit names to the suffix time.ParseDuration understands.
var goUnits = map[string]string{
	"nanos": "ns", "nsec": "ns", "ns": "ns",
	"micros": "us", "usec": "us", "us": "us", "\u00b5s": "us", "\u03bcs": "us",
	"millis": "ms", "msec": "ms", "ms": "ms",
	"seconds": "s", "second": "s", "secs": "s", "sec": "s", "s": "s",
	"minutes": "m", "minute": "m", "mins": "m", "min": "m", "m": "m",
	"hours": "h", "hour": "h", "hrs": "h", "hr": "h", "h": "h",
}

// longUnits are whole-number only and expand to seconds. A month is 30.44
// days and a year 365.25 days.
var longUnits = map[string]uint64{
	"days": 86400, "day": 86400, "d": 86400,
	"weeks": 604800, "week": 604800, "w": 604800,
	"months": 2630016, "month": 2630016, "M": 2630016,
	"years": 31557600, "year": 31557600, "y": 31557600,
}

// ParseDuration reads a sequence of <number><unit> terms, optionally
// separated by whitespace, and sums them. Units are case sensitive ("m" is
// minutes, "M" is months). Go's own duration strings, fractions included,
// are accepted. Negative durations are rejected.
func ParseDuration(s string) (time.Duration, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "-") {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	compact, err := normalizeDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d, err := time.ParseDuration(compact)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}

// normalizeDuration rewrites s into time.ParseDuration syntax.
func normalizeDuration(s string) (string, error) {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) == 0 {
		return "", errNumberNeeded
	}

	var out strings.Builder
	for i := 0; i < len(runes); {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}

		start := i
		for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
			i++
		}
		number := string(runes[start:i])
		if number == "" {
			return "", fmt.Errorf("%w at %q", errNumberNeeded, string(runes[start:]))
		}

		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		start = i
		for i < len(runes) && unicode.IsLetter(runes[i]) {
			i++
		}
		unit := string(runes[start:i])

		switch {
		case unit == "":
			if number == "0" && out.Len() == 0 && i == len(runes) {
				return "0", nil
			}
			return "", fmt.Errorf("%w after %q", errUnitNeeded, number)
		case goUnits[unit] != "":
			out.WriteString(number)
			out.WriteString(goUnits[unit])
		case longUnits[unit] != 0:
			n, err := strconv.ParseUint(number, 10, 64)
			if err != nil {
				return "", fmt.Errorf("bad number %q for unit %q", number, unit)
			}
			if n > math.MaxInt64/longUnits[unit] {
				return "", fmt.Errorf("%s%s is out of range", number, unit)
			}
			out.WriteString(strconv.FormatUint(n*longUnits[unit], 10))
			out.WriteString("s")
		default:
			return "", fmt.Errorf("unknown unit %q", unit)
		}
	}
	return out.String(), nil
}
