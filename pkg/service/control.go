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

package service

import (
	"bufio"
	"context"
	"errors"
	"math"
	"net"
	"strconv"

	"github.com/GoldsteinE/fw-lights/pkg/animations"
	"github.com/GoldsteinE/fw-lights/pkg/config"
	"github.com/GoldsteinE/fw-lights/pkg/display"
	"github.com/GoldsteinE/fw-lights/pkg/power"
	"github.com/google/shlex"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Commands accepted per second on one control connection.
const (
	CommandRate  rate.Limit = 100
	CommandBurst            = 50
)

// Control socket replies.
const (
	ReplyOK                 = "OK"
	ReplyBadDisplay         = "ERR bad display"
	ReplyBadAnimation       = "ERR bad animation"
	ReplyBadOffset          = "ERR bad offset"
	ReplyBadBrightness      = "ERR bad brightness"
	ReplyBadArgs            = "ERR bad args"
	ReplyNoConfig           = "ERR no config"
	ReplyThrottled          = "ERR throttled"
	ReplyDisplayUnavailable = "ERR display unavailable"
	ReplyPowerUnavailable   = "ERR power info unavailable"
	ReplyUnknownCommand     = "ERR unknown command"
	ReplyRateLimited        = "ERR rate limited"
)

type sender interface {
	Send(cmd display.Command) error
}

// chargerSlot says where the charging animation goes for one USB-C port.
type chargerSlot struct {
	left   bool
	offset int
}

// chargerSlots is indexed by USB-C port: the right side ports are 0 and 1,
// the left side 2 and 3, front to back.
var chargerSlots = [power.MaxPorts]chargerSlot{
	{left: false, offset: 14},
	{left: false, offset: 24},
	{left: true, offset: 24},
	{left: true, offset: 14},
}

type controller struct {
	builders map[string]animations.Builder
	displays map[string]sender
	charger  *config.Charger
	throttle *Throttle
	power    power.Ports
}

// Handle runs one control command and returns the reply line.
func (c *controller) Handle(line string) string {
	words, err := shlex.Split(line)
	if err != nil {
		return ReplyBadArgs
	}
	if len(words) == 0 {
		return ReplyUnknownCommand
	}

	switch words[0] {
	case "play":
		if len(words) < 4 || words[2] != "at" {
			return ReplyBadArgs
		}
		return c.play(words[1], words[3], words[4:])
	case "brightness":
		if len(words) != 3 {
			return ReplyBadArgs
		}
		return c.brightness(words[1], words[2])
	case "charger":
		if len(words) != 1 {
			return ReplyBadArgs
		}
		return c.runCharger()
	default:
		return ReplyUnknownCommand
	}
}

func (c *controller) play(animation, displayName string, args []string) string {
	d, ok := c.displays[displayName]
	if !ok {
		return ReplyBadDisplay
	}
	builder, ok := c.builders[animation]
	if !ok {
		return ReplyBadAnimation
	}

	var anim animations.Animation
	switch {
	case len(args) == 0:
		anim = builder.Build()
	case len(args) == 2 && args[0] == "offset":
		offset, err := strconv.ParseInt(args[1], 10, 8)
		if err != nil {
			return ReplyBadOffset
		}
		anim = builder.At(int8(offset))
	default:
		return ReplyBadArgs
	}

	if err := d.Send(display.AddAnimation{Animation: anim}); err != nil {
		log.Warn().Err(err).Str("display", displayName).Msg("error queueing animation")
		return ReplyDisplayUnavailable
	}
	log.Debug().Str("display", displayName).Str("animation", animation).Msg("animation queued")
	return ReplyOK
}

func (c *controller) brightness(displayName, raw string) string {
	d, ok := c.displays[displayName]
	if !ok {
		return ReplyBadDisplay
	}
	value, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return ReplyBadBrightness
	}
	if err := d.Send(display.SetBrightness{Value: uint8(value)}); err != nil {
		log.Warn().Err(err).Str("display", displayName).Msg("error queueing brightness")
		return ReplyDisplayUnavailable
	}
	return ReplyOK
}

func (c *controller) runCharger() string {
	if c.charger == nil {
		return ReplyNoConfig
	}
	if c.throttle != nil && !c.throttle.Allow() {
		log.Debug().Msg("charger animation throttled")
		return ReplyThrottled
	}

	sinks, err := c.power.SinkPorts()
	if err != nil {
		log.Warn().Err(err).Msg("error reading usb-c power roles")
		return ReplyPowerUnavailable
	}

	for _, port := range sinks {
		if port < 0 || port >= len(chargerSlots) {
			continue
		}
		slot := chargerSlots[port]
		displayName, animation := c.charger.RightDisplay, c.charger.AnimationRight
		if slot.left {
			displayName, animation = c.charger.LeftDisplay, c.charger.AnimationLeft
		}

		d, ok := c.displays[displayName]
		builder, found := c.builders[animation]
		if !ok || !found {
			// checked when the config was loaded
			log.Error().Str("display", displayName).Str("animation", animation).
				Msg("charger display or animation missing")
			return ReplyNoConfig
		}

		offset := clampOffset(slot.offset + int(c.charger.Offset))
		if err := d.Send(display.AddAnimation{Animation: builder.At(offset)}); err != nil {
			log.Warn().Err(err).Str("display", displayName).Msg("error queueing charger animation")
			return ReplyDisplayUnavailable
		}
		log.Debug().Int("port", port).Str("display", displayName).Msg("charger animation queued")
	}
	return ReplyOK
}

func clampOffset(offset int) int8 {
	return int8(max(math.MinInt8, min(math.MaxInt8, offset)))
}

func (s *Service) serve(ctx context.Context) {
	defer close(s.serving)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				log.Error().Err(err).Msg("control socket failed")
			}
			return
		}

		s.connsMu.Lock()
		s.conns[conn] = struct{}{}
		s.connsMu.Unlock()

		s.connsWg.Add(1)
		go func() {
			defer s.connsWg.Done()
			defer func() {
				s.connsMu.Lock()
				delete(s.conns, conn)
				s.connsMu.Unlock()
				_ = conn.Close()
			}()
			s.handleConn(conn)
		}()
	}
}

// handleConn answers one reply line per command line until the client hangs
// up.
func (s *Service) handleConn(conn net.Conn) {
	limiter := rate.NewLimiter(CommandRate, CommandBurst)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		reply := ReplyRateLimited
		if limiter.Allow() {
			reply = s.ctrl.Handle(scanner.Text())
		}
		if _, err := conn.Write([]byte(reply + "\n")); err != nil {
			log.Debug().Err(err).Msg("error writing control reply")
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Debug().Err(err).Msg("error reading control command")
	}
}
