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

// Package notifications builds the events the service broadcasts to API
// clients and MQTT publishers.
package notifications

import (
	"encoding/json"

	"github.com/EnergySign/energysign-core/pkg/api/models"
	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
	"github.com/rs/zerolog/log"
)

// sendNotification never blocks: a full channel drops the notification so
// the display loop can't stall on a slow consumer.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	var params json.RawMessage
	if payload != nil {
		var err error
		params, err = json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Msgf("error marshalling notification params: %s", method)
			return
		}
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func DisplayMessage(ns chan<- models.Notification, msg messages.Message, displayed int) {
	sendNotification(ns, models.NotificationDisplayMessage, models.DisplayMessageParams{
		Message:   msg,
		Displayed: displayed,
	})
}

func RotationChanged(ns chan<- models.Notification, rotation []string) {
	if rotation == nil {
		rotation = []string{}
	}
	sendNotification(ns, models.NotificationRotationChanged, models.RotationChangedParams{
		Rotation: rotation,
	})
}

func NowPlaying(ns chan<- models.Notification, track tracks.Track, label string) {
	sendNotification(ns, models.NotificationNowPlaying, models.NowPlayingParams{
		Artist: track.Artist,
		Title:  track.Title,
		Label:  label,
	})
}

func ReadersAdded(ns chan<- models.Notification, params models.ReaderParams) {
	sendNotification(ns, models.NotificationReadersConnected, params)
}

func ReadersRemoved(ns chan<- models.Notification, params models.ReaderParams) {
	sendNotification(ns, models.NotificationReadersDisconnected, params)
}
