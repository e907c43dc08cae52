// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

// Package api mounts the thin admin HTTP surface described in SPEC_FULL
// §4.11 on top of a feed.Registry: REST routes for store/delete/paginate/
// reset_last_read/counts plus health, metrics, and generated API docs.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/cairnfeed/activity/internal/feed"
	"github.com/cairnfeed/activity/internal/metrics"
	"github.com/cairnfeed/activity/internal/middleware"
)

// Router holds the dependencies SetupChi wires into the route tree.
type Router struct {
	Handler        *Handler
	Auth           *TokenAuthenticator
	CORSOrigins    []string
	RateLimitReqs  int
	RateLimitEvery time.Duration
}

// NewRouter constructs a Router over registry, guarded by auth.
func NewRouter(registry *feed.Registry, auth *TokenAuthenticator, callTimeout time.Duration, corsOrigins []string, rateLimitReqs int, rateLimitWindow time.Duration) *Router {
	return &Router{
		Handler:        NewHandler(registry, callTimeout),
		Auth:           auth,
		CORSOrigins:    corsOrigins,
		RateLimitReqs:  rateLimitReqs,
		RateLimitEvery: rateLimitWindow,
	}
}

func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi builds the full route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.Compression))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/healthz", router.Handler.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/v1/feeds/{feed}", func(r chi.Router) {
		r.Use(httprate.Limit(
			router.RateLimitReqs,
			router.RateLimitEvery,
			httprate.WithKeyByIP(),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				metrics.RecordRateLimitHit(chi.URLParam(r, "feed"))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			}),
		))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.Auth.Middleware)

		r.Get("/users/{user_id}/events", router.Handler.Paginate)
		r.Post("/users/{user_id}/events", router.Handler.Store)
		r.Delete("/users/{user_id}/events/{value}", router.Handler.Delete)
		r.Post("/users/{user_id}/read", router.Handler.ResetLastRead)
		r.Get("/users/{user_id}/counts", router.Handler.Counts)
		r.Delete("/users/{user_id}", router.Handler.Wipe)

		// Batch variants reuse the same handlers: ?user_ids=a,b,c takes
		// priority over the {user_id} path param (SPEC_FULL §4.11).
		r.Get("/users/events", router.Handler.Paginate)
		r.Post("/users/events", router.Handler.Store)
		r.Post("/users/read", router.Handler.ResetLastRead)
		r.Get("/users/counts", router.Handler.Counts)
	})

	return r
}
