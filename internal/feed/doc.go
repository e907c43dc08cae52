// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

// Package feed implements the per-user activity feed primitive: a bounded,
// time-ordered, reverse-chronological event set per (feed, user), a provider
// contract any backing store must satisfy, and a batched multi-user dispatch
// engine that fans a single logical call out across N user identifiers.
//
// The package is organized around three layers:
//
//   - Event / orderedSet: the data model for one user's feed state.
//   - Provider: the contract (Store, Delete, Paginate, ...) that the
//     in-memory reference provider and the Redis-backed remote provider both
//     implement, batched over a list of user IDs.
//   - Activity / Response: the caller-facing handle that adapts the batched
//     provider contract to either a single scalar result (one user) or a
//     Response map (many users), preserving input order and isolating
//     per-user failures.
//
// None of these types hold feed state themselves; the provider is the sole
// owner of persistent state (see FeedContext and the Provider interface).
package feed
