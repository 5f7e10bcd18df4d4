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

// Package queue decides what the sign shows next. It merges the persistent
// rotation of operator messages with the interstitial queue, the keyboard
// echo and the advertisement cadence.
package queue

import (
	"slices"
	"strings"

	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/helpers/syncutil"
	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/EnergySign/energysign-core/pkg/service/commands"
	"github.com/EnergySign/energysign-core/pkg/service/keyboard"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultAdvertiseEvery is how many rotation messages are shown between
	// advertisement batches.
	DefaultAdvertiseEvery = 8
	// DefaultMaxRotation caps the rotation; the oldest entries are dropped.
	DefaultMaxRotation = 1000
)

// Store persists the rotation (newest first) and the advertisement
// templates.
type Store interface {
	LoadRotation() ([]string, error)
	SaveRotation(texts []string) error
	LoadAds() ([]messages.Message, error)
	SaveAds(ads []messages.Message) error
}

type Options struct {
	Clock clockwork.Clock
	// OnUnknownCommand is called for commands that match nothing. They are
	// otherwise dropped without feedback to the sender.
	OnUnknownCommand func(commands.Command)
	// OnRotationChanged receives the rotation texts, newest first, after
	// every change to the rotation.
	OnRotationChanged func(texts []string)
	// OnTrackStarted is called when a track is announced.
	OnTrackStarted     func(track tracks.Track, label string)
	Keyboard           keyboard.Timing
	AdvertiseEvery     int
	MaxRotation        int
	PlayedTracksMemory int
}

func (o *Options) setDefaults() {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Keyboard == (keyboard.Timing{}) {
		o.Keyboard = keyboard.DefaultTiming()
	}
	if o.AdvertiseEvery <= 0 {
		o.AdvertiseEvery = DefaultAdvertiseEvery
	}
	if o.MaxRotation <= 0 {
		o.MaxRotation = DefaultMaxRotation
	}
	if o.PlayedTracksMemory <= 0 {
		o.PlayedTracksMemory = tracks.DefaultMemory
	}
}

// Engine owns all scheduling state.
//
// LOCKING RULES: mu guards every field below it and each exported method is
// a single critical section. Persistence and hooks run after mu is
// released. saveMu serializes writes; rotSaved and adsSaved hold the newest
// generation attempted, so an older snapshot never lands on disk after a
// newer one, even when the newer write failed.
type Engine struct {
	store  Store
	keys   *keyboard.Buffer
	tracks *tracks.Tracker
	opts   Options

	queue     interstitials
	rotation  []string
	ads       []messages.Message
	cursor    int
	displayed int
	rotGen    uint64
	adsGen    uint64
	mu        syncutil.Mutex
	chooser   bool
	paused    bool

	rotSaved uint64
	adsSaved uint64
	saveMu   syncutil.Mutex
}

// NewEngine loads the rotation and advertisements from store. Load errors
// are logged and leave the corresponding list empty.
func NewEngine(store Store, opts Options) *Engine {
	opts.setDefaults()

	e := &Engine{
		store:  store,
		opts:   opts,
		keys:   keyboard.NewBuffer(opts.Clock, opts.Keyboard),
		tracks: tracks.NewTracker(opts.PlayedTracksMemory),
		ads:    []messages.Message{},
	}

	rotation, err := store.LoadRotation()
	if err != nil {
		log.Warn().Err(err).Msg("error loading rotation, starting empty")
	}
	if len(rotation) > opts.MaxRotation {
		rotation = rotation[:opts.MaxRotation]
	}
	e.rotation = rotation

	ads, err := store.LoadAds()
	if err != nil {
		log.Warn().Err(err).Msg("error loading advertisements, starting empty")
	} else if ads != nil {
		e.ads = ads
	}

	log.Info().
		Int("rotation", len(e.rotation)).
		Int("ads", len(e.ads)).
		Msg("message engine ready")
	return e
}

// effects collects the work a transaction leaves for after the unlock.
type effects struct {
	unknown  *commands.Command
	started  *tracks.Track
	label    string
	rotation []string
	ads      []messages.Message
	rotGen   uint64
	adsGen   uint64
}

func (e *Engine) rotationChangedLocked(fx *effects) {
	e.rotGen++
	fx.rotGen = e.rotGen
	fx.rotation = slices.Clone(e.rotation)
}

func (e *Engine) adsChangedLocked(fx *effects) {
	e.adsGen++
	fx.adsGen = e.adsGen
	fx.ads = slices.Clone(e.ads)
}

func (e *Engine) apply(fx *effects) {
	if fx.rotGen != 0 {
		e.persistRotation(fx.rotGen, fx.rotation)
		if e.opts.OnRotationChanged != nil {
			e.opts.OnRotationChanged(fx.rotation)
		}
	}
	if fx.adsGen != 0 {
		e.persistAds(fx.adsGen, fx.ads)
	}
	if fx.started != nil && e.opts.OnTrackStarted != nil {
		e.opts.OnTrackStarted(*fx.started, fx.label)
	}
	if fx.unknown != nil && e.opts.OnUnknownCommand != nil {
		e.opts.OnUnknownCommand(*fx.unknown)
	}
}

func (e *Engine) persistRotation(gen uint64, texts []string) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if gen <= e.rotSaved {
		return
	}
	e.rotSaved = gen
	if err := e.store.SaveRotation(texts); err != nil {
		log.Error().Err(err).Msg("error saving rotation")
	}
}

func (e *Engine) persistAds(gen uint64, ads []messages.Message) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if gen <= e.adsSaved {
		return
	}
	e.adsSaved = gen
	if err := e.store.SaveAds(ads); err != nil {
		log.Error().Err(err).Msg("error saving advertisements")
	}
}

// HandlePayload routes an inbound payload: commands are applied, anything
// else becomes rotation content.
func (e *Engine) HandlePayload(payload []byte) {
	if cmd, ok := commands.Classify(payload); ok {
		e.ApplyCommand(cmd)
		return
	}
	e.SubmitContent(string(payload))
}

// SubmitContent normalizes text and adds it to the top of the rotation,
// announcing it first. Text that normalizes to nothing is ignored.
func (e *Engine) SubmitContent(text string) bool {
	var fx effects
	e.mu.Lock()
	ok := e.submitLocked(text, &fx)
	e.mu.Unlock()
	e.apply(&fx)
	return ok
}

func (e *Engine) submitLocked(text string, fx *effects) bool {
	text = helpers.NormalizeText(text)
	if blank(text) {
		log.Debug().Msg("ignoring blank submission")
		return false
	}

	e.queue.Enqueue(messages.NewMessageAnnouncement())
	e.rotation = slices.Insert(e.rotation, 0, text)
	if len(e.rotation) > e.opts.MaxRotation {
		e.rotation = e.rotation[:e.opts.MaxRotation]
	}
	e.cursor = 0
	e.rotationChangedLocked(fx)

	log.Info().Str("text", text).Int("rotation", len(e.rotation)).Msg("new message")
	return true
}

// blank reports whether s has nothing the sign can draw.
func blank(s string) bool {
	return strings.TrimSpace(helpers.NormalizeText(s)) == ""
}

func (e *Engine) lastIndexLocked() int {
	return max(0, len(e.rotation)-1)
}

// ApplyCommand executes a decoded command.
func (e *Engine) ApplyCommand(cmd commands.Command) {
	var fx effects
	e.mu.Lock()
	e.applyLocked(cmd, &fx)
	e.mu.Unlock()
	e.apply(&fx)
}

func (e *Engine) applyLocked(cmd commands.Command, fx *effects) {
	switch cmd.Op {
	case commands.OpChoose:
		e.chooser = true
	case commands.OpEndChoose:
		e.chooser = false
	case commands.OpNext:
		e.cursor = min(e.cursor+1, e.lastIndexLocked())
	case commands.OpPrev:
		e.cursor = max(e.cursor-1, 0)
	case commands.OpFirst:
		e.cursor = 0
	case commands.OpLast:
		e.cursor = e.lastIndexLocked()
	case commands.OpDelete:
		if len(e.rotation) == 0 {
			return
		}
		log.Info().Str("text", e.rotation[e.cursor]).Msg("deleting message")
		e.rotation = slices.Delete(e.rotation, e.cursor, e.cursor+1)
		e.cursor = min(e.cursor, e.lastIndexLocked())
		e.rotationChangedLocked(fx)
	case commands.OpPause:
		e.paused = true
	case commands.OpUnpause:
		e.paused = false
	case commands.OpMicOn:
		e.queue.PushFront(messages.EnableMic())
	case commands.OpMicOff:
		e.queue.PushFront(messages.DisableMic())
	case commands.OpReplaceAds:
		e.ads = slices.Clone(cmd.Ads)
		if e.ads == nil {
			e.ads = []messages.Message{}
		}
		e.adsChangedLocked(fx)
		log.Info().Int("ads", len(e.ads)).Msg("advertisements replaced")
		e.injectAdsLocked()
	default:
		log.Debug().Str("command", cmd.Raw).Msg("ignoring unknown command")
		fx.unknown = &cmd
	}
}

// SetNowPlaying reports the track currently playing. An empty track means
// nothing is playing.
func (e *Engine) SetNowPlaying(track tracks.Track) {
	var fx effects
	e.mu.Lock()
	switch e.tracks.Observe(track) {
	case tracks.ResultCleared:
		e.injectAdsLocked()
	case tracks.ResultDuplicate:
		log.Debug().Str("artist", track.Artist).Str("title", track.Title).Msg("track already announced")
	case tracks.ResultStarted:
		msg, _ := e.tracks.NowPlaying()
		e.queue.RemoveIf(func(m messages.Message) bool {
			return m.Kind == messages.KindNowPlayingAnnouncement ||
				m.Kind == messages.KindNowPlayingTrack
		})
		e.queue.Enqueue(messages.NowPlayingAnnouncement())
		e.queue.Enqueue(msg)
		fx.started = &track
		fx.label = msg.Text
	}
	e.mu.Unlock()
	e.apply(&fx)
}

// PushKey appends a key to the keyboard buffer.
func (e *Engine) PushKey(key rune) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keys.Push(key)
}

func (e *Engine) PopKey() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys.Pop()
}

// SubmitKeyboard commits the typed text to the rotation if it passes the
// minimum entry period.
func (e *Engine) SubmitKeyboard() bool {
	var fx effects
	e.mu.Lock()
	ok := false
	if blank(e.keys.String()) {
		log.Debug().Msg("keeping keyboard text with nothing to show")
	} else {
		var text string
		if text, ok = e.keys.TrySubmit(); ok {
			ok = e.submitLocked(text, &fx)
		}
	}
	e.mu.Unlock()
	e.apply(&fx)
	return ok
}

// Next returns the message to display now. It never fails; with nothing to
// show it returns the Idle message.
func (e *Engine) Next() messages.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	if echo, ok := e.keys.Echo(); ok {
		return echo
	}

	if e.queue.Len() == 0 && len(e.rotation) == 0 {
		log.Debug().Msg("nothing to display, injecting advertisements")
		e.injectAdsLocked()
	}

	if msg, ok := e.queue.Pop(); ok {
		return msg
	}

	if len(e.rotation) == 0 {
		return messages.Idle()
	}

	if e.chooser {
		return messages.Chooser(e.cursor+1, len(e.rotation), e.rotation[e.cursor])
	}

	idx := e.cursor
	if !e.paused {
		if e.cursor >= len(e.rotation)-1 {
			e.cursor = 0
		} else {
			e.cursor++
		}
	}
	e.displayed++
	if e.displayed%e.opts.AdvertiseEvery == 0 {
		log.Debug().Int("displayed", e.displayed).Msg("advertise period reached")
		e.injectAdsLocked()
	}
	return messages.User(e.rotation[idx])
}

func (e *Engine) injectAdsLocked() {
	// Invaders still queued means the last batch hasn't finished.
	if e.queue.Contains(messages.Invaders()) {
		return
	}

	track, playing := e.tracks.NowPlaying()
	batch := make([]messages.Message, 0, len(e.ads)+2)
	for _, ad := range e.ads {
		if ad.Kind != messages.KindNowPlayingTrack {
			batch = append(batch, ad)
			continue
		}
		if playing {
			batch = append(batch,
				messages.OneByOne("CURRENT", messages.ColorTwitch, messages.DefaultDelayMs),
				messages.OneByOne("TRACK:", messages.ColorTwitch, messages.DefaultDelayMs),
				track,
			)
		}
	}
	e.queue.PushFront(batch...)
}

// Snapshot is a read-only view of the engine state.
type Snapshot struct {
	NowPlaying  string         `json:"nowPlaying,omitempty"`
	Rotation    []string       `json:"rotation"`
	Recent      []tracks.Track `json:"recentTracks"`
	Cursor      int            `json:"cursor"`
	Queued      int            `json:"queued"`
	Ads         int            `json:"ads"`
	Displayed   int            `json:"displayed"`
	Typing      int            `json:"typing"`
	ChooserMode bool           `json:"chooser"`
	Paused      bool           `json:"paused"`
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Rotation:    slices.Clone(e.rotation),
		Recent:      e.tracks.Recent(),
		Cursor:      e.cursor,
		Queued:      e.queue.Len(),
		Ads:         len(e.ads),
		Displayed:   e.displayed,
		Typing:      e.keys.Len(),
		ChooserMode: e.chooser,
		Paused:      e.paused,
	}
	if snap.Rotation == nil {
		snap.Rotation = []string{}
	}
	if msg, ok := e.tracks.NowPlaying(); ok {
		snap.NowPlaying = msg.Text
	}
	return snap
}

// Ads returns a copy of the advertisement templates.
func (e *Engine) Ads() []messages.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.ads)
}
