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

package helpers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/rs/zerolog/log"
)

type ServiceEntry func() (func() error, error)

// Service runs the sign service in the foreground and tracks it with a pid
// file so a second invocation can find and stop it.
type Service struct {
	start  ServiceEntry
	stop   func() error
	runDir string
}

func NewService(runDir string, entry ServiceEntry) (*Service, error) {
	err := os.MkdirAll(runDir, 0o750)
	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &Service{runDir: runDir, start: entry}, nil
}

func (s *Service) pidPath() string {
	return filepath.Join(s.runDir, config.PidFile)
}

func (s *Service) createPidFile() error {
	err := os.WriteFile(s.pidPath(), []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func (s *Service) removePidFile() error {
	err := os.Remove(s.pidPath())
	if err != nil {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Pid returns the pid recorded in the pid file, or 0 when there is none.
func (s *Service) Pid() (int, error) {
	data, err := os.ReadFile(s.pidPath())
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

// Running returns true if the service is running.
func (s *Service) Running() bool {
	pid, err := s.Pid()
	if err != nil || pid == 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}

// Run starts the service and blocks until ctx is cancelled or the process
// receives SIGINT or SIGTERM, then stops it.
func (s *Service) Run(ctx context.Context) error {
	if s.Running() {
		return errors.New("service already running")
	}

	log.Info().Msg("starting service")

	if err := s.createPidFile(); err != nil {
		return err
	}

	stop, err := s.start()
	if err != nil {
		if rmErr := s.removePidFile(); rmErr != nil {
			log.Error().Err(rmErr).Msg("error removing pid file")
		}
		return fmt.Errorf("error starting service: %w", err)
	}
	s.stop = stop

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	return s.stopService()
}

func (s *Service) stopService() error {
	log.Info().Msgf("stopping service")

	var errs []error
	if err := s.stop(); err != nil {
		log.Error().Err(err).Msg("error stopping service")
		errs = append(errs, err)
	}
	if err := s.removePidFile(); err != nil {
		log.Error().Err(err).Msgf("error removing pid file")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Stop signals a running service daemon to shut down.
func (s *Service) Stop() error {
	if !s.Running() {
		return errors.New("service not running")
	}

	pid, err := s.Pid()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	err = process.Signal(syscall.SIGTERM)
	if err != nil {
		return fmt.Errorf("failed to send SIGTERM to process: %w", err)
	}

	return nil
}
