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

// Package cli holds the command line flags shared by the energysign
// binaries: running the service and talking to a running one.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/EnergySign/energysign-core/pkg/api/client"
	"github.com/EnergySign/energysign-core/pkg/api/models"
	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/rs/zerolog/log"
)

// TrackSeparator splits "Artist - Title" in the -track flag.
const TrackSeparator = " - "

var ErrMissingValue = errors.New("flag requires a value")

type Flags struct {
	Config     *string
	Send       *string
	Track      *string
	API        *string
	State      *bool
	Watch      *bool
	Version    *bool
	ListSerial *bool
}

// SetupFlags defines all common CLI flags. Add any binary specific flags
// before calling Pre.
func SetupFlags() *Flags {
	return &Flags{
		Config: flag.String(
			"config",
			"",
			"path to config.toml",
		),
		Send: flag.String(
			"send",
			"",
			"send text or a command to the running sign",
		),
		Track: flag.String(
			"track",
			"",
			"set now playing as \"Artist - Title\", empty clears",
		),
		API: flag.String(
			"api",
			"",
			"send method:params to the API and print the response",
		),
		State: flag.Bool(
			"state",
			false,
			"print the running sign's state",
		),
		Watch: flag.Bool(
			"watch",
			false,
			"print notifications from the running sign until interrupted",
		),
		Version: flag.Bool(
			"version",
			false,
			"print version and exit",
		),
		ListSerial: flag.Bool(
			"list-serial",
			false,
			"list serial devices usable by the display and readers",
		),
	}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses flags and actions the ones that need no config or logging.
func (f *Flags) Pre() {
	flag.Parse()

	if *f.Version {
		_, _ = fmt.Printf("Energy Sign v%s\n", config.AppVersion)
		os.Exit(0)
	}

	if *f.ListSerial {
		if err := printSerialDevices(os.Stdout, helpers.GetSerialDeviceList); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *f.Config != "" {
		if err := os.Setenv(config.CfgEnv, *f.Config); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error setting config path: %v\n", err)
			os.Exit(1)
		}
	}
}

func printSerialDevices(w io.Writer, list func() ([]string, error)) error {
	devices, err := list()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		_, _ = fmt.Fprintln(w, "no serial devices found")
		return nil
	}
	for _, d := range devices {
		_, _ = fmt.Fprintln(w, d)
	}
	return nil
}

// ParseTrack turns "Artist - Title" into track params. Text without the
// separator is taken as the title, and blank text clears now playing.
func ParseTrack(value string) models.TrackParams {
	value = strings.TrimSpace(value)
	artist, title, found := strings.Cut(value, TrackSeparator)
	if !found {
		return models.TrackParams{Title: value}
	}
	return models.TrackParams{
		Artist: strings.TrimSpace(artist),
		Title:  strings.TrimSpace(title),
	}
}

// request returns the API call a client flag stands for. ok is false when
// no client flag was passed.
func (f *Flags) request(passed func(string) bool) (method, params string, ok bool, err error) {
	switch {
	case passed("send"):
		if strings.TrimSpace(*f.Send) == "" {
			return "", "", true, fmt.Errorf("send: %w", ErrMissingValue)
		}
		data, err := json.Marshal(models.PayloadParams{Text: *f.Send})
		if err != nil {
			return "", "", true, fmt.Errorf("failed to encode params: %w", err)
		}
		return models.MethodPayload, string(data), true, nil
	case passed("track"):
		data, err := json.Marshal(ParseTrack(*f.Track))
		if err != nil {
			return "", "", true, fmt.Errorf("failed to encode params: %w", err)
		}
		return models.MethodTrack, string(data), true, nil
	case passed("api"):
		if *f.API == "" {
			return "", "", true, fmt.Errorf("api: %w", ErrMissingValue)
		}
		method, params, _ = strings.Cut(*f.API, ":")
		return method, params, true, nil
	case *f.State:
		return models.MethodState, "", true, nil
	}
	return "", "", false, nil
}

func printNotification(w io.Writer, n models.Notification) {
	if len(n.Params) == 0 {
		_, _ = fmt.Fprintln(w, n.Method)
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", n.Method, n.Params)
}

// Post actions the client flags, which need config and logging set up.
// It exits when one was passed.
func (f *Flags) Post(cfg *config.Instance) {
	if *f.Watch {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		err := client.Watch(ctx, client.LocalURL(cfg.APIListen()), func(n models.Notification) {
			printNotification(os.Stdout, n)
		})
		stop()
		if err != nil {
			log.Error().Err(err).Msg("error watching notifications")
			_, _ = fmt.Fprintf(os.Stderr, "Error watching: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	method, params, ok, err := f.request(isFlagPassed)
	if !ok {
		return
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp, err := client.LocalClient(context.Background(), cfg, method, params)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("error calling API")
		_, _ = fmt.Fprintf(os.Stderr, "Error calling API: %v\n", err)
		os.Exit(1)
	}
	_, _ = fmt.Println(resp)
	os.Exit(0)
}

// Setup loads the user config and initializes logging.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaultConfig config.Values, writers []io.Writer) *config.Instance {
	cfg, err := config.NewConfig(config.ConfigDir(), defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logDir := cfg.StorageDir(config.DataDir())
	if err := helpers.InitLogging(logDir, cfg.DebugLogging(), writers...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	return cfg
}
