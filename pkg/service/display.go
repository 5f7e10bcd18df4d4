// Energy Sign Core
// Copyright (c) 2026 The Energy Sign Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Energy Sign Core.
//
// Energy Sign Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Energy Sign Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Energy Sign Core.  If not, see <http://www.gnu.org/licenses/>.

package service

import (
	"context"

	"github.com/EnergySign/energysign-core/pkg/api/models"
	"github.com/EnergySign/energysign-core/pkg/api/notifications"
	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/display"
	"github.com/EnergySign/energysign-core/pkg/service/metrics"
	"github.com/EnergySign/energysign-core/pkg/service/queue"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// displayLoop shows a message immediately and then one per display
// interval. The interval is re-read after every tick so config reloads
// apply.
func displayLoop(
	ctx context.Context,
	cfg *config.Instance,
	engine *queue.Engine,
	renderer display.Renderer,
	ns chan<- models.Notification,
	clock clockwork.Clock,
	m *metrics.Metrics,
) {
	interval := cfg.DisplayInterval()
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	show := func() {
		msg := engine.Next()
		m.Displayed(string(msg.Kind))
		if err := renderer.Render(msg); err != nil {
			m.RenderError()
			log.Warn().Err(err).Str("kind", string(msg.Kind)).Msg("error rendering message")
		}
		notifications.DisplayMessage(ns, msg, engine.Snapshot().Displayed)
	}

	log.Info().Dur("interval", interval).Msg("display loop started")
	show()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			show()
			if next := cfg.DisplayInterval(); next != interval {
				log.Info().Dur("interval", next).Msg("display interval changed")
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}
