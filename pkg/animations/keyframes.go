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
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/GoldsteinE/fw-lights/pkg/frames"
	toml "github.com/pelletier/go-toml/v2"
)

// Separator ends the header of a keyframe file.
const Separator = "---"

var ErrMissingSeparator = errors.New("animation file doesn't contain `---` line")

// ParseError reports a malformed keyframe file. Line is 1-based.
type ParseError struct {
	Err  error
	Msg  string
	Line int
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

type fileOptions struct {
	MinDuration   config.Duration `toml:"min_duration"`
	DefaultOffset int8            `toml:"default_offset"`
	Fullscreen    bool            `toml:"fullscreen"`
}

// frameOptions are the per-frame overrides; nil fields inherit.
type frameOptions struct {
	Repeat      *uint            `toml:"repeat"`
	Fullscreen  *bool            `toml:"fullscreen"`
	MinDuration *config.Duration `toml:"min_duration"`
}

func (o *frameOptions) mergeWith(other *frameOptions) {
	if other.Repeat != nil {
		o.Repeat = other.Repeat
	}
	if other.Fullscreen != nil {
		o.Fullscreen = other.Fullscreen
	}
	if other.MinDuration != nil {
		o.MinDuration = other.MinDuration
	}
}

func (o *frameOptions) frame(data frames.Data) frames.Frame {
	frame := frames.Frame{Data: data}
	if o.MinDuration != nil {
		frame.MinDuration = o.MinDuration.Std()
	}
	if o.Fullscreen != nil {
		frame.Fullscreen = *o.Fullscreen
	}
	return frame
}

func (o *frameOptions) repeat() uint {
	if o.Repeat == nil {
		return 1
	}
	return *o.Repeat
}

// Keyframes is a parsed keyframe file. Its frames are stored unshifted and
// never modified, so one Keyframes can serve any number of animations.
type Keyframes struct {
	frames        []frames.Frame
	defaultOffset int8
}

// Len returns the number of frames, counting repeats.
func (k *Keyframes) Len() int {
	return len(k.frames)
}

// Duration is the shortest time it takes to play every frame.
func (k *Keyframes) Duration() time.Duration {
	var total time.Duration
	for i := range k.frames {
		total += k.frames[i].MinDuration
	}
	return total
}

func (k *Keyframes) DefaultOffset() int8 {
	return k.defaultOffset
}

func (k *Keyframes) Build() Animation {
	return k.At(k.defaultOffset)
}

func (k *Keyframes) At(offset int8) Animation {
	return &keyframePlayer{frames: k.frames, offset: offset}
}

// keyframePlayer walks a shared frame slice, shifting each frame as it is
// played.
type keyframePlayer struct {
	frames []frames.Frame
	next   int
	offset int8
}

func (p *keyframePlayer) Next() (frames.Frame, bool) {
	if p.next >= len(p.frames) {
		return frames.Frame{}, false
	}
	frame := p.frames[p.next]
	p.next++
	if p.offset != 0 {
		frame = frame.Offset(p.offset)
	}
	return frame, true
}

type numberedLine struct {
	text string
	n    int
}

// lineReader hands out trimmed lines with their 1-based line number and
// allows pushing one line back.
type lineReader struct {
	lines  []numberedLine
	cursor int
}

func (r *lineReader) next() (numberedLine, bool) {
	if r.cursor >= len(r.lines) {
		return numberedLine{}, false
	}
	line := r.lines[r.cursor]
	r.cursor++
	return line, true
}

func (r *lineReader) unread() {
	r.cursor--
}

// ParseKeyframes parses a keyframe file: a TOML header, a line holding only
// "---", then frame blocks separated by blank lines. A block may start with
// inline option tables such as {repeat = 3, min_duration = "20ms"} and is
// followed by up to 34 rows, either 9 '.'/'#' pixels or 9 hex brightness
// values. An option line directly after a complete 34 row frame starts the
// next block.
func ParseKeyframes(src string) (*Keyframes, error) {
	var (
		header    []string
		body      []numberedLine
		separated bool
	)

	scanner := bufio.NewScanner(strings.NewReader(src))
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		switch {
		case separated:
			body = append(body, numberedLine{n: n, text: strings.TrimSpace(line)})
		case line == Separator:
			separated = true
		default:
			header = append(header, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read animation: %w", err)
	}
	if !separated {
		return nil, ErrMissingSeparator
	}

	var opts fileOptions
	if err := toml.Unmarshal([]byte(strings.Join(header, "\n")), &opts); err != nil {
		line := 1
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			line, _ = derr.Position()
		}
		return nil, &ParseError{Line: line, Msg: "invalid header", Err: err}
	}

	minDuration := opts.MinDuration
	fullscreen := opts.Fullscreen
	defaults := frameOptions{
		MinDuration: &minDuration,
		Fullscreen:  &fullscreen,
	}

	k := &Keyframes{defaultOffset: opts.DefaultOffset}
	lines := &lineReader{lines: body}
	for {
		more, err := parseFrame(lines, defaults, k)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return k, nil
}

// parseFrame parses one frame block into k. It returns false once the input
// is exhausted.
//
//nolint:gocritic // defaults are copied on purpose
func parseFrame(lines *lineReader, defaults frameOptions, k *Keyframes) (bool, error) {
	opts := defaults
	for {
		line, ok := lines.next()
		if !ok {
			return false, nil
		}
		if line.text == "" {
			continue
		}

		if line.text[0] == '{' {
			override, err := parseFrameOptions(line)
			if err != nil {
				return false, err
			}
			opts.mergeWith(override)
			continue
		}

		lines.unread()
		var (
			data frames.Data
			err  error
		)
		if line.text[0] == '.' || line.text[0] == '#' {
			data, err = parseBw(lines)
		} else {
			data, err = parseGray(lines)
		}
		if err != nil {
			return false, err
		}

		frame := opts.frame(data)
		for range opts.repeat() {
			k.frames = append(k.frames, frame)
		}
		return true, nil
	}
}

func parseFrameOptions(line numberedLine) (*frameOptions, error) {
	var wrapper struct {
		Options frameOptions `toml:"options"`
	}
	if err := toml.Unmarshal([]byte("options = "+line.text), &wrapper); err != nil {
		return nil, &ParseError{Line: line.n, Msg: "invalid frame options", Err: err}
	}
	return &wrapper.Options, nil
}

func parseBw(lines *lineReader) (frames.BwFrame, error) {
	var frame frames.BwFrame
	for y := 0; ; y++ {
		line, ok := lines.next()
		if !ok || line.text == "" {
			return frame, nil
		}
		if y >= frames.Height {
			if line.text[0] == '{' {
				lines.unread()
				return frame, nil
			}
			return frame, parseErrorf(line.n, "too many lines in frame")
		}

		pixels := strings.Join(strings.Fields(line.text), "")
		if len(pixels) != frames.Width {
			return frame, parseErrorf(line.n, "wrong frame line length")
		}
		for x := range frames.Width {
			switch pixels[x] {
			case '#':
				frame.Set(uint8(x), uint8(y), true)
			case '.':
			default:
				return frame, parseErrorf(line.n, "wrong pixel %q: should be '.' or '#'", pixels[x])
			}
		}
	}
}

func parseGray(lines *lineReader) (frames.GrayFrame, error) {
	var frame frames.GrayFrame
	for y := 0; ; y++ {
		line, ok := lines.next()
		if !ok || line.text == "" {
			return frame, nil
		}
		if y >= frames.Height {
			if line.text[0] == '{' {
				lines.unread()
				return frame, nil
			}
			return frame, parseErrorf(line.n, "too many lines in frame")
		}

		pixels := strings.Fields(line.text)
		if len(pixels) != frames.Width {
			return frame, parseErrorf(line.n, "wrong frame line length")
		}
		for x, pixel := range pixels {
			brightness, err := strconv.ParseUint(pixel, 16, 8)
			if err != nil {
				return frame, parseErrorf(line.n, "wrong pixel %q", pixel)
			}
			frame[x][y] = uint8(brightness)
		}
	}
}
