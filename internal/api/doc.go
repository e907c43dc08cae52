// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

/*
Package api exposes the feed registry over HTTP.

This is glue, not core: every handler parses a request, calls an Activity
handle from internal/feed, and serializes the resulting Response. None of
the store/delete/paginate/reset_last_read/counts semantics live here.

# Routes

	GET    /healthz
	GET    /metrics
	GET    /swagger/*

	POST   /v1/feeds/{feed}/users/{user_id}/events
	GET    /v1/feeds/{feed}/users/{user_id}/events
	DELETE /v1/feeds/{feed}/users/{user_id}/events/{value}
	POST   /v1/feeds/{feed}/users/{user_id}/read
	GET    /v1/feeds/{feed}/users/{user_id}/counts
	DELETE /v1/feeds/{feed}/users/{user_id}

Batch variants of the user-scoped routes accept ?user_ids=a,b,c in place of
the {user_id} path segment and return the same per-user result array for
every ID in that list.

# Authentication

All /v1 routes require Authorization: Bearer <token>, checked against a
single bcrypt-hashed admin token (TokenAuthenticator). /healthz, /metrics,
and /swagger/* are unauthenticated.

# Response shape

Every batch endpoint returns a JSON array of per-user results, preserving
input order:

	[{"user_id": "u1", "value": true}, {"user_id": "u2", "error": "..."}]

A lookup failure on the feed name itself (not a per-user one) returns a
single JSON error object with the appropriate HTTP status instead.
*/
package api
