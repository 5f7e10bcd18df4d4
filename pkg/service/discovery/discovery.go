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

// Package discovery advertises the sign's control API over mDNS so phones
// and DJ laptops on the same network can find it.
package discovery

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"time"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers/syncutil"
	"github.com/grandcat/zeroconf"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const ServiceType = "_energysign._tcp"

const (
	// retryInterval is how often registration is retried while the
	// network is not up yet.
	retryInterval    = 30 * time.Second
	maxRetryDuration = 5 * time.Minute
	fallbackName     = "energysign"
)

var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "lxd",
	"cni", "flannel", "cali", "tunl", "wg",
}

// filterInterfaces keeps interfaces that are up, multicast capable, not
// loopback and not virtual.
func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var preferred []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if isVirtualInterface(iface.Name) {
			continue
		}
		preferred = append(preferred, iface)
	}
	return preferred
}

func isVirtualInterface(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// registerFunc matches zeroconf.Register.
type registerFunc func(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (*zeroconf.Server, error)

type Service struct {
	cfg          *config.Instance
	clock        clockwork.Clock
	register     registerFunc
	interfaces   func() ([]net.Interface, error)
	hostname     func() (string, error)
	server       *zeroconf.Server
	cancel       context.CancelFunc
	done         chan struct{}
	instanceName string
	bootID       string
	stopped      bool
	mu           syncutil.Mutex
}

// New returns an idle discovery service. bootID is advertised so clients
// can tell a restarted sign from the one they last saw.
func New(cfg *config.Instance, bootID string) *Service {
	return &Service{
		cfg:        cfg,
		bootID:     bootID,
		clock:      clockwork.NewRealClock(),
		register:   zeroconf.Register,
		interfaces: net.Interfaces,
		hostname:   os.Hostname,
	}
}

// Start advertises the API. When the network isn't ready registration is
// retried in the background for a while.
func (s *Service) Start() {
	if s.cfg == nil || !s.cfg.DiscoveryEnabled() {
		log.Info().Msg("mDNS discovery disabled")
		return
	}

	s.instanceName = s.resolveInstanceName()
	if s.tryRegister() {
		return
	}

	log.Info().
		Dur("retryInterval", retryInterval).
		Msg("mDNS registration failed, retrying in background")

	ctx, cancel := context.WithTimeout(context.Background(), maxRetryDuration)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.retryLoop(ctx)
	}()
}

func (s *Service) txtRecords() []string {
	return []string{
		"version=" + config.AppVersion,
		"boot=" + s.bootID,
		"path=/api",
	}
}

func (s *Service) tryRegister() bool {
	ifaces, err := s.interfaces()
	if err != nil {
		log.Debug().Err(err).Msg("failed to list network interfaces")
		return false
	}
	ifaces = filterInterfaces(ifaces)
	if len(ifaces) == 0 {
		log.Debug().Msg("no network interfaces suitable for mDNS")
		return false
	}

	port := s.cfg.APIPort()
	server, err := s.register(s.instanceName, ServiceType, "local.", port, s.txtRecords(), ifaces)
	if err != nil {
		log.Debug().Err(err).Msg("mDNS registration attempt failed")
		return false
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		if server != nil {
			server.Shutdown()
		}
		return false
	}
	s.server = server
	s.mu.Unlock()

	log.Info().
		Str("instance", s.instanceName).
		Int("port", port).
		Msg("mDNS advertising started")
	return true
}

func (s *Service) retryLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if s.tryRegister() {
				return
			}
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				log.Warn().Msg("mDNS registration timed out, discovery unavailable")
			}
			return
		}
	}
}

// Stop withdraws the advertisement. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.cancel = nil
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if server != nil {
		log.Debug().Msg("stopping mDNS advertising")
		server.Shutdown()
	}
}

func (s *Service) InstanceName() string {
	return s.instanceName
}

func (s *Service) resolveInstanceName() string {
	if name := s.cfg.DiscoveryInstanceName(); name != "" {
		return name
	}
	hostname, err := s.hostname()
	if err != nil || hostname == "" {
		log.Warn().Err(err).Msg("failed to get hostname, using fallback")
		return fallbackName
	}
	return fallbackName + "-" + hostname
}
