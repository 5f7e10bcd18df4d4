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

// Package api serves the sign's control API: REST routes for producers and
// a websocket that streams notifications and accepts JSON-RPC requests.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/EnergySign/energysign-core/pkg/api/methods"
	"github.com/EnergySign/energysign-core/pkg/api/middleware"
	"github.com/EnergySign/energysign-core/pkg/api/models"
	"github.com/EnergySign/energysign-core/pkg/api/validation"
	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/service/state"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 64 << 10

	SourceREST      = "api"
	SourceWebSocket = "ws"
)

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
	JSONRPCErrorInvalidParams = models.ErrorObject{
		Code:    -32602,
		Message: "Invalid params",
	}
	JSONRPCErrorServerError = models.ErrorObject{
		Code:    -32000,
		Message: "Server error",
	}
)

// Deps are the service parts the API reads from and feeds. Metrics is
// served at /metrics when set.
type Deps struct {
	Config  *config.Instance
	State   *state.State
	Engine  methods.Engine
	Inputs  chan<- readers.Input
	Metrics http.Handler
}

func (d Deps) env(ctx context.Context, source string, params []byte) methods.RequestEnv {
	return methods.RequestEnv{
		Context: ctx,
		Config:  d.Config,
		State:   d.State,
		Engine:  d.Engine,
		Inputs:  d.Inputs,
		Source:  source,
		Params:  params,
	}
}

func isParamsError(err error) bool {
	var verr *validation.Error
	return errors.As(err, &verr) ||
		errors.Is(err, validation.ErrMissingParams) ||
		errors.Is(err, validation.ErrInvalidParams)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var maxErr *http.MaxBytesError
	switch {
	case isParamsError(err):
		status = http.StatusBadRequest
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, methods.ErrBusy):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
}

// handleREST adapts a method handler to an HTTP route. Inputs are
// acknowledged with 202 since the engine applies them asynchronously.
func handleREST(deps Deps, fn methods.Handler, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, fmt.Errorf("error reading request body: %w", err))
			return
		}

		resp, err := fn(deps.env(r.Context(), SourceREST, body))
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("request failed")
			writeError(w, err)
			return
		}
		writeJSON(w, status, resp)
	}
}

func sendResponse(session *melody.Session, resp models.ResponseObject) {
	resp.JSONRPC = "2.0"
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("error marshalling response")
		return
	}
	if err := session.Write(data); err != nil {
		log.Error().Err(err).Msg("error sending response")
	}
}

func sendError(session *melody.Session, id uuid.UUID, errObj models.ErrorObject) {
	log.Debug().Int("code", errObj.Code).Str("message", errObj.Message).Msg("sending error")
	sendResponse(session, models.ResponseObject{ID: id, Error: &errObj})
}

func handleWSMessage(deps Deps) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		// heartbeat
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("sending pong")
			}
			return
		}

		var req models.RequestObject
		if err := json.Unmarshal(msg, &req); err != nil {
			sendError(session, uuid.Nil, JSONRPCErrorParseError)
			return
		}
		if req.JSONRPC != "2.0" || req.Method == "" {
			sendError(session, uuid.Nil, JSONRPCErrorInvalidRequest)
			return
		}
		if req.ID == nil {
			log.Debug().Str("method", req.Method).Msg("received notification, ignoring")
			return
		}

		fn, ok := methods.Map[req.Method]
		if !ok {
			sendError(session, *req.ID, JSONRPCErrorMethodNotFound)
			return
		}

		resp, err := fn(deps.env(session.Request.Context(), SourceWebSocket, req.Params))
		switch {
		case err == nil:
			sendResponse(session, models.ResponseObject{ID: *req.ID, Result: resp})
		case isParamsError(err):
			errObj := JSONRPCErrorInvalidParams
			errObj.Message = err.Error()
			sendError(session, *req.ID, errObj)
		default:
			errObj := JSONRPCErrorServerError
			errObj.Message = err.Error()
			sendError(session, *req.ID, errObj)
		}
	}
}

// broadcastNotifications forwards every notification to all websocket
// clients until notifications closes or ctx is done.
func broadcastNotifications(
	ctx context.Context,
	session *melody.Melody,
	notifications <-chan models.Notification,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.RequestObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := session.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// allowedOrigins defaults to local pages only.
func allowedOrigins(cfg *config.Instance) []string {
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		return origins
	}
	return []string{"http://localhost:*", "http://127.0.0.1:*"}
}

// NewRouter builds the API routes around a websocket session hub.
func NewRouter(deps Deps, session *melody.Melody, limiter *middleware.IPRateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(deps.Config),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(middleware.HTTPRateLimitMiddleware(limiter))

	session.HandleMessage(middleware.WebSocketRateLimitHandler(limiter, handleWSMessage(deps)))
	r.Get("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := session.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))

		r.Post("/api/payload", handleREST(deps, methods.HandlePayload, http.StatusAccepted))
		r.Post("/api/keys", handleREST(deps, methods.HandleKeys, http.StatusAccepted))
		r.Post("/api/track", handleREST(deps, methods.HandleTrack, http.StatusAccepted))
		r.Get("/api/state", handleREST(deps, methods.HandleState, http.StatusOK))
		r.Get("/api/ads", handleREST(deps, methods.HandleAds, http.StatusOK))
		r.Get("/api/readers", handleREST(deps, methods.HandleReaders, http.StatusOK))
		r.Get("/api/version", handleREST(deps, methods.HandleVersion, http.StatusOK))
	})

	return r
}

// Serve runs the API on ln until ctx is done. notifications is drained
// into the websocket until it closes.
func Serve(
	ctx context.Context,
	ln net.Listener,
	deps Deps,
	notifications <-chan models.Notification,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := melody.New()
	limiter := middleware.NewIPRateLimiter()
	limiter.StartCleanup(ctx)

	broadcastDone := make(chan struct{})
	go func() {
		defer close(broadcastDone)
		broadcastNotifications(ctx, session, notifications)
	}()

	srv := &http.Server{
		Handler:           NewRouter(deps, session, limiter),
		ReadHeaderTimeout: requestTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("API listening on %s", ln.Addr())
		serveErr <- srv.Serve(ln)
	}()

	var err error
	select {
	case err = <-serveErr:
	case <-ctx.Done():
		if closeErr := session.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing websocket sessions")
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		err = srv.Shutdown(shutdownCtx)
		if serr := <-serveErr; err == nil {
			err = serr
		}
	}
	cancel()
	<-broadcastDone

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}
