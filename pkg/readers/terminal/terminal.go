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

// Package terminal turns the local terminal into a sign keyboard. Keys
// typed in the terminal go through the same keyboard buffer as a remote
// keyboard.
package terminal

import (
	"errors"
	"fmt"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/helpers/syncutil"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"
)

const (
	DriverID = "terminal"
	banner   = "energysign keyboard: type, Enter submits, Ctrl-C quits"
)

type ScreenFactory func() (tcell.Screen, error)

type Reader struct {
	screen        tcell.Screen
	screenFactory ScreenFactory
	onInterrupt   func()
	done          chan struct{}
	device        config.ReadersConnect
	mu            syncutil.RWMutex
}

// NewReader returns a terminal reader. onInterrupt runs when Ctrl-C is
// pressed, since the terminal is in raw mode and no SIGINT is raised.
func NewReader(onInterrupt func()) *Reader {
	return &Reader{
		screenFactory: tcell.NewScreen,
		onInterrupt:   onInterrupt,
	}
}

func (*Reader) Metadata() readers.DriverMetadata {
	return readers.DriverMetadata{
		ID:          DriverID,
		Description: "Local terminal keyboard",
	}
}

func (*Reader) IDs() []string {
	return []string{DriverID}
}

func (r *Reader) Open(device config.ReadersConnect, inputCh chan<- readers.Input) error {
	if !helpers.Contains(r.IDs(), device.Driver) {
		return errors.New("invalid reader id: " + device.Driver)
	}

	screen, err := r.screenFactory()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}

	r.mu.Lock()
	r.screen = screen
	r.device = device
	r.done = make(chan struct{})
	r.mu.Unlock()

	draw(screen)
	go r.poll(screen, inputCh, r.done)

	return nil
}

func draw(screen tcell.Screen) {
	screen.Clear()
	x := 0
	for _, ch := range banner {
		screen.SetContent(x, 0, ch, nil, tcell.StyleDefault.Bold(true))
		x++
	}
	screen.Show()
}

func (r *Reader) poll(screen tcell.Screen, inputCh chan<- readers.Input, done chan<- struct{}) {
	defer close(done)
	source := r.Device()

	for {
		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			// screen finalized
			return
		case *tcell.EventResize:
			screen.Sync()
			draw(screen)
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyRune:
				inputCh <- readers.KeyInput(source, ev.Rune())
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				inputCh <- readers.BackspaceInput(source)
			case tcell.KeyEnter:
				inputCh <- readers.SubmitInput(source)
			case tcell.KeyCtrlC:
				log.Info().Msg("terminal: interrupt")
				if r.onInterrupt != nil {
					r.onInterrupt()
				}
			default:
			}
		}
	}
}

func (r *Reader) Close() error {
	r.mu.Lock()
	screen, done := r.screen, r.done
	r.screen = nil
	r.mu.Unlock()

	if screen == nil {
		return nil
	}
	screen.Fini()
	<-done
	return nil
}

func (r *Reader) Device() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.device.ConnectionString()
}

func (r *Reader) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.screen != nil
}

func (*Reader) Info() string {
	return "Terminal keyboard"
}
