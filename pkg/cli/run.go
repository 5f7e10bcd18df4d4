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

package cli

import (
	"context"
	"fmt"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/service"
	"github.com/rs/zerolog/log"
)

// RunService runs the sign in the foreground until interrupted. With
// keyboard set the terminal doubles as a keyboard reader, and Ctrl-C is
// read from it instead of arriving as a signal.
func RunService(cfg *config.Instance, keyboard bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := helpers.NewService(cfg.StorageDir(config.DataDir()), func() (func() error, error) {
		return service.Start(cfg, service.Options{
			Keyboard:    keyboard,
			OnInterrupt: cancel,
		})
	})
	if err != nil {
		return fmt.Errorf("error creating service: %w", err)
	}

	if err := svc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("service exited with error")
		return fmt.Errorf("error running service: %w", err)
	}
	return nil
}

// StopService signals the service running from cfg's data directory to
// shut down.
func StopService(cfg *config.Instance) error {
	svc, err := helpers.NewService(cfg.StorageDir(config.DataDir()), nil)
	if err != nil {
		return fmt.Errorf("error creating service: %w", err)
	}
	if err := svc.Stop(); err != nil {
		return fmt.Errorf("error stopping service: %w", err)
	}
	return nil
}
