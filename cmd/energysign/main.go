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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/EnergySign/energysign-core/pkg/cli"
	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()

	daemonMode := flag.Bool(
		"daemon",
		false,
		"also log to stderr",
	)
	keyboard := flag.Bool(
		"keyboard",
		false,
		"type sign messages on this terminal",
	)
	doStop := flag.Bool(
		"stop",
		false,
		"stop the running service",
	)

	flags.Pre()

	// the keyboard reader owns the terminal
	var logWriters []io.Writer
	if *daemonMode && !*keyboard {
		logWriters = []io.Writer{helpers.ConsoleWriter()}
	}

	cfg := cli.Setup(config.BaseDefaults, logWriters)

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	flags.Post(cfg)

	if *doStop {
		return cli.StopService(cfg)
	}

	if os.Geteuid() == 0 {
		log.Warn().Msg("running as root")
	}

	return cli.RunService(cfg, *keyboard)
}
