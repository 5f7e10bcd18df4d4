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

// Package service wires the sign together: storage, the message engine,
// readers, the display loop, notifications and the control API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/EnergySign/energysign-core/pkg/api"
	"github.com/EnergySign/energysign-core/pkg/api/notifications"
	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/display"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/readers/terminal"
	"github.com/EnergySign/energysign-core/pkg/service/broker"
	"github.com/EnergySign/energysign-core/pkg/service/commands"
	"github.com/EnergySign/energysign-core/pkg/service/discovery"
	"github.com/EnergySign/energysign-core/pkg/service/keyboard"
	"github.com/EnergySign/energysign-core/pkg/service/metrics"
	"github.com/EnergySign/energysign-core/pkg/service/publishers"
	"github.com/EnergySign/energysign-core/pkg/service/queue"
	"github.com/EnergySign/energysign-core/pkg/service/state"
	"github.com/EnergySign/energysign-core/pkg/service/store"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const subscriberBuffer = 100

type Options struct {
	// OnInterrupt is called when Ctrl-C is pressed on the terminal
	// keyboard, which holds the terminal in raw mode.
	OnInterrupt func()
	// Keyboard attaches the terminal keyboard reader.
	Keyboard bool
}

// deps are the collaborators tests replace.
type deps struct {
	fs       afero.Fs
	clock    clockwork.Clock
	renderer display.Renderer
	readers  ReaderFactory
	opts     Options
}

func engineOptions(cfg *config.Instance, st *state.State, clock clockwork.Clock) queue.Options {
	sched := cfg.Scheduler()

	timing := keyboard.DefaultTiming()
	if sched.KeyboardTimeoutMs > 0 {
		timing.Timeout = time.Duration(sched.KeyboardTimeoutMs) * time.Millisecond
	}
	if sched.KeyboardWarningMs > 0 {
		timing.Warning = time.Duration(sched.KeyboardWarningMs) * time.Millisecond
	}
	if sched.MinEntryMs > 0 {
		timing.MinEntry = time.Duration(sched.MinEntryMs) * time.Millisecond
	}

	return queue.Options{
		Clock:              clock,
		Keyboard:           timing,
		AdvertiseEvery:     sched.AdvertiseEvery,
		MaxRotation:        sched.MaxRotation,
		PlayedTracksMemory: sched.PlayedTracks,
		OnUnknownCommand: func(cmd commands.Command) {
			log.Info().Str("command", cmd.Raw).Msg("ignoring unknown command")
		},
		OnRotationChanged: func(texts []string) {
			notifications.RotationChanged(st.Notifications, texts)
		},
		OnTrackStarted: func(track tracks.Track, label string) {
			log.Info().Msgf("now playing: %s", label)
			notifications.NowPlaying(st.Notifications, track, label)
		},
	}
}

func startPublishers(cfg *config.Instance, b *broker.Broker) []*publishers.MQTTPublisher {
	var active []*publishers.MQTTPublisher
	for _, pc := range cfg.GetMQTTPublishers() {
		if pc.Enabled != nil && !*pc.Enabled {
			continue
		}

		p, err := publishers.NewMQTTPublisher(pc.Broker, pc.Topic, pc.Filter)
		if err != nil {
			log.Error().Err(err).Msg("skipping mqtt publisher")
			continue
		}

		ch, id := b.Subscribe(subscriberBuffer)
		if err := p.Start(ch); err != nil {
			log.Error().Err(err).Msgf("failed to start mqtt publisher: %s", pc.Broker)
			b.Unsubscribe(id)
			continue
		}
		active = append(active, p)
	}
	return active
}

// Start runs the sign service until the returned stop function is called.
func Start(cfg *config.Instance, opts Options) (stop func() error, err error) {
	renderer, err := display.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create display: %w", err)
	}

	stop, err = start(cfg, deps{
		fs:       afero.NewOsFs(),
		clock:    clockwork.NewRealClock(),
		renderer: renderer,
		readers:  supportedReaders(opts),
		opts:     opts,
	})
	if err != nil {
		if closeErr := renderer.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing display")
		}
		return nil, err
	}
	return stop, nil
}

//nolint:gocritic // deps copied once at startup
func start(cfg *config.Instance, d deps) (stop func() error, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)
	bootID := uuid.New().String()
	log.Info().Msgf("boot session: %s", bootID)

	dataDir := cfg.StorageDir(config.DataDir())
	log.Info().Msgf("opening store: %s", dataDir)
	signStore, err := store.New(d.fs, dataDir, cfg.Scheduler().MaxRotation)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var apiListener net.Listener
	if cfg.APIEnabled() {
		var lc net.ListenConfig
		apiListener, err = lc.Listen(context.Background(), "tcp", cfg.APIListen())
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.APIListen(), err)
		}
	}

	st, ns := state.NewState()
	notifBroker := broker.NewBroker(ns)

	engine := queue.NewEngine(signStore, engineOptions(cfg, st, d.clock))
	signMetrics := metrics.New(engine.Snapshot)

	g, ctx := errgroup.WithContext(st.GetContext())
	g.Go(func() error {
		return notifBroker.Run(ctx)
	})

	log.Info().Msg("starting publishers")
	activePublishers := startPublishers(cfg, notifBroker)

	iq := make(chan readers.Input, inputBuffer)
	readersDone := make(chan struct{})

	var extra []config.ReadersConnect
	if d.opts.Keyboard {
		extra = append(extra, config.ReadersConnect{Driver: terminal.DriverID})
	}
	manager := newReaderManager(cfg, st, iq, d.readers, extra)

	g.Go(func() error {
		defer close(readersDone)
		manager.run(ctx, d.clock)
		return nil
	})
	g.Go(func() error {
		processInputs(ctx, engine, iq, readersDone, signMetrics)
		return nil
	})
	g.Go(func() error {
		displayLoop(ctx, cfg, engine, d.renderer, st.Notifications, d.clock, signMetrics)
		return nil
	})

	if apiListener != nil {
		apiNotifications, _ := notifBroker.Subscribe(subscriberBuffer)
		apiDeps := api.Deps{
			Config:  cfg,
			State:   st,
			Engine:  engine,
			Inputs:  iq,
			Metrics: signMetrics.Handler(),
		}
		// the sign keeps running without its API
		g.Go(func() error {
			if err := api.Serve(ctx, apiListener, apiDeps, apiNotifications); err != nil {
				log.Error().Err(err).Msg("API stopped")
			}
			return nil
		})
	}

	disc := discovery.New(cfg, bootID)
	if apiListener != nil {
		disc.Start()
	}

	if err := cfg.Watch(ctx, nil); err != nil {
		log.Warn().Err(err).Msg("config hot reload disabled")
	}

	log.Info().Msg("service started")

	return func() error {
		log.Info().Msg("stopping service")
		disc.Stop()
		st.StopService()
		err := g.Wait()

		for _, p := range activePublishers {
			p.Stop()
		}
		if closeErr := d.renderer.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close display: %w", closeErr))
		}

		log.Info().Msg("service stopped")
		return err
	}, nil
}
